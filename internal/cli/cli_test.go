package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithOptions(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

const scenarioYAML = `
defaults:
  horizon_days: 200
  parameters:
    seasonal_amplitude: 0.2
scenarios:
  - name: baseline
  - name: contagious
    request:
      parameters:
        r0: 3
  - name: reactive
    request:
      policy:
        kind: dynamic
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func base() model.Request {
	return model.Request{Parameters: epidemic.DefaultParameters(), HorizonDays: 730}
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given command line configurations", t, func() {
		cases := []struct {
			name string
			cfg  Config
			ok   bool
		}{
			{"table output", Config{Format: FormatTable}, true},
			{"csv with a policy", Config{Format: FormatCSV, Policy: "combined"}, true},
			{"an unknown format", Config{Format: "xml"}, false},
			{"a negative horizon", Config{Format: FormatJSON, HorizonDays: -1}, false},
			{"an unknown policy", Config{Format: FormatTable, Policy: "lockdown"}, false},
		}

		for _, tc := range cases {
			convey.Convey("When validating "+tc.name, func() {
				err := tc.cfg.Validate()

				convey.Convey("Then the result should match", func() {
					convey.So(err == nil, convey.ShouldEqual, tc.ok)
				})
			})
		}
	})
}

func TestLoadScenarios(t *testing.T) {
	convey.Convey("Given a scenario file with shared defaults", t, func() {
		path := writeFile(t, "scenarios.yaml", scenarioYAML)

		convey.Convey("When it is loaded", func() {
			scenarios, err := LoadScenarios(path, base())
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every scenario should be listed in file order", func() {
				convey.So(len(scenarios), convey.ShouldEqual, 3)
				convey.So(scenarios[0].Name, convey.ShouldEqual, "baseline")
				convey.So(scenarios[2].Name, convey.ShouldEqual, "reactive")
			})

			convey.Convey("And the defaults should apply to all of them", func() {
				for _, sc := range scenarios {
					convey.So(sc.Request.HorizonDays, convey.ShouldEqual, 200)
					convey.So(sc.Request.Parameters.SeasonalAmplitude, convey.ShouldEqual, 0.2)
				}
			})

			convey.Convey("And overrides should change only their fields", func() {
				convey.So(scenarios[1].Request.Parameters.R0, convey.ShouldEqual, 3)
				convey.So(scenarios[0].Request.Parameters.R0, convey.ShouldEqual, epidemic.DefaultParameters().R0)
				convey.So(scenarios[1].Request.Parameters.LatentDays, convey.ShouldEqual, epidemic.DefaultParameters().LatentDays)
			})

			convey.Convey("And a policy without settings should get the reference ones", func() {
				dyn := scenarios[2].Request.Policy.Dynamic
				convey.So(dyn, convey.ShouldNotBeNil)
				convey.So(dyn.OnThreshold, convey.ShouldEqual, policy.DefaultOnThreshold)
				convey.So(scenarios[0].Request.Policy.Dynamic, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a missing scenario file", t, func() {
		_, err := LoadScenarios(filepath.Join(t.TempDir(), "nope.yaml"), base())

		convey.Convey("Then loading should fail", func() {
			convey.So(errors.Is(err, ErrScenarioFile), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a scenario file without scenarios", t, func() {
		path := writeFile(t, "empty.yaml", "defaults:\n  horizon_days: 10\n")
		_, err := LoadScenarios(path, base())

		convey.Convey("Then loading should fail", func() {
			convey.So(errors.Is(err, ErrScenarioFile), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "no scenarios")
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a single dynamic run without a scenario file", t, func() {
		var out bytes.Buffer
		cfg := &Config{Policy: "dynamic", HorizonDays: 365, Format: FormatTable}

		convey.Convey("When it is run", func() {
			err := Run(context.Background(), cfg, &out)

			convey.Convey("Then a table row should be printed for it", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				convey.So(len(lines), convey.ShouldEqual, 2)
				convey.So(lines[0], convey.ShouldStartWith, "scenario")
				convey.So(lines[1], convey.ShouldStartWith, "dynamic")
			})
		})
	})

	convey.Convey("Given a scenario file and a CSV series output", t, func() {
		path := writeFile(t, "scenarios.yaml", scenarioYAML)
		seriesPath := filepath.Join(t.TempDir(), "out", "series.csv")
		var out bytes.Buffer
		cfg := &Config{ScenarioFile: path, HorizonDays: 50, Format: FormatJSON, OutputFile: seriesPath}

		convey.Convey("When it is run", func() {
			err := Run(context.Background(), cfg, &out)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the JSON summary should hold every scenario", func() {
				var rows []struct {
					Name    string `json:"name"`
					Summary *struct {
						PeakCritical float64 `json:"peak_critical"`
					} `json:"summary"`
				}
				convey.So(json.Unmarshal(out.Bytes(), &rows), convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 3)
				convey.So(rows[1].Name, convey.ShouldEqual, "contagious")
				convey.So(rows[1].Summary.PeakCritical, convey.ShouldBeGreaterThan, rows[0].Summary.PeakCritical)
			})

			convey.Convey("And the series file should have one row per scenario day", func() {
				f, err := os.Open(seriesPath)
				convey.So(err, convey.ShouldBeNil)
				defer f.Close()
				records, err := csv.NewReader(f).ReadAll()
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(records), convey.ShouldEqual, 1+3*51)
				convey.So(records[0], convey.ShouldResemble, seriesHeader)
				convey.So(records[1][0], convey.ShouldEqual, "baseline")
				convey.So(records[1][1], convey.ShouldEqual, "0")
			})
		})
	})

	convey.Convey("Given a scenario file with an invalid scenario", t, func() {
		path := writeFile(t, "bad.yaml", `
scenarios:
  - name: ok
  - name: broken
    request:
      parameters:
        infectious_days: -1
`)
		var out bytes.Buffer
		err := Run(context.Background(), &Config{ScenarioFile: path, HorizonDays: 30, Format: FormatCSV}, &out)

		convey.Convey("Then the batch should report the failure after printing", func() {
			convey.So(errors.Is(err, ErrScenariosFailed), convey.ShouldBeTrue)
			convey.So(errors.Is(err, simerr.ErrConfiguration), convey.ShouldBeTrue)
			records, rerr := csv.NewReader(&out).ReadAll()
			convey.So(rerr, convey.ShouldBeNil)
			convey.So(len(records), convey.ShouldEqual, 3)
			convey.So(records[2][0], convey.ShouldEqual, "broken")
			convey.So(records[2][len(records[2])-1], convey.ShouldStartWith, "configuration")
		})
	})

	convey.Convey("Given an invalid format", t, func() {
		err := Run(context.Background(), &Config{Format: "xml"}, &bytes.Buffer{})

		convey.Convey("Then nothing should run", func() {
			convey.So(errors.Is(err, ErrInvalidFormat), convey.ShouldBeTrue)
		})
	})
}
