package cli

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/types"
)

// LoadScenarios reads a scenario file of the form
//
//	defaults:        # optional, merged onto base
//	  horizon_days: 365
//	scenarios:
//	  - name: baseline
//	  - name: reactive
//	    request:
//	      policy: {kind: dynamic}
//
// Every request starts from the defaults, so a scenario only lists what it
// changes. Policies that name a kind without its block get the reference
// settings of that kind.
func LoadScenarios(path string, base model.Request) ([]types.Scenario, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScenarioFile, path, err)
	}

	defaults := base
	if k.Exists("defaults") {
		if err := k.Unmarshal("defaults", &defaults); err != nil {
			return nil, fmt.Errorf("%w: %s: defaults: %w", ErrScenarioFile, path, err)
		}
	}

	entries := k.Slices("scenarios")
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: no scenarios", ErrScenarioFile, path)
	}
	out := make([]types.Scenario, 0, len(entries))
	for i, e := range entries {
		req := defaults
		if e.Exists("request") {
			if err := e.Unmarshal("request", &req); err != nil {
				return nil, fmt.Errorf("%w: %s: scenario %d: %w", ErrScenarioFile, path, i+1, err)
			}
		}
		req.Policy = req.Policy.WithDefaults()
		out = append(out, types.Scenario{Name: e.String("name"), Request: req})
	}
	return out, nil
}

// singleScenario is the run used when no scenario file is given.
func singleScenario(base model.Request, kind policy.Kind) types.Scenario {
	if kind == policy.KindNone {
		return types.Scenario{Name: "baseline", Request: base}
	}
	req := base
	req.Policy = policy.DefaultConfig(kind)
	return types.Scenario{Name: string(kind), Request: req}
}
