package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/seirsim/internal/app"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
	"github.com/okian/seirsim/internal/domain/types"
	"github.com/okian/seirsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func dynamicPolicy() policy.Config {
	return policy.Config{
		Kind:    policy.KindDynamic,
		Dynamic: &policy.DynamicConfig{OnThreshold: 4, OffThreshold: 1, Intensity: 0.4},
	}
}

// request is the service defaults with the given horizon.
func request(svc *service.Service, horizon int) model.Request {
	req := svc.Defaults()
	req.HorizonDays = horizon
	return req
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should default requests to the reference parameters", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Defaults().Parameters, ShouldResemble, epidemic.DefaultParameters())
			So(svc.Defaults().HorizonDays, ShouldEqual, 730)
			So(svc.Catalog(), ShouldNotBeEmpty)
		})

		Convey("And it should report itself as not started", func() {
			So(svc.GetStats().Started, ShouldBeFalse)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		p := epidemic.DefaultParameters()
		p.R0 = 1.8
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(50),
			service.WithMemoSize(25),
			service.WithDefaults(p, 90, "2020-03-01"),
		)

		Convey("Then the defaults should reflect them", func() {
			d := svc.Defaults()
			So(d.Parameters.R0, ShouldEqual, 1.8)
			So(d.HorizonDays, ShouldEqual, 90)
			So(d.StartDate, ShouldEqual, "2020-03-01")
			stats := svc.GetStats()
			So(stats.Workers, ShouldEqual, 3)
			So(stats.QueueCapacity, ShouldEqual, 50)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats.Started, ShouldBeTrue)
				So(stats.Workers, ShouldEqual, 2)
				So(stats.RunStore, ShouldEqual, "memory")
			})

			Convey("And starting it again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping it should mark it stopped", func() {
				svc.Stop()
				So(svc.GetStats().Started, ShouldBeFalse)
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})

	Convey("Given a service configured with an unknown store", t, func() {
		svc := service.New(service.WithRunStore("etcd", ""))

		Convey("Then starting it should fail", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrUnknownStore), ShouldBeTrue)
		})
	})
}

func TestService_Simulate(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithMaxHorizon(1000))
		ctx := context.Background()

		Convey("When the default request is simulated", func() {
			series, err := svc.Simulate(ctx, svc.Defaults())

			Convey("Then it should run the default horizon", func() {
				So(err, ShouldBeNil)
				So(series.Len(), ShouldEqual, 731)
				So(series.Population(), ShouldEqual, epidemic.DefaultParameters().Population)
				So(series.Policy(), ShouldEqual, policy.KindNone)
			})
		})

		Convey("When the horizon is zero", func() {
			series, err := svc.Simulate(ctx, request(svc, 0))

			Convey("Then it should fail with a configuration error instead of running the default", func() {
				So(series, ShouldBeNil)
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the parameters are left out", func() {
			_, err := svc.Simulate(ctx, model.Request{HorizonDays: 30})

			Convey("Then they should not be filled in from the defaults", func() {
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When a request carries a start date", func() {
			req := request(svc, 10)
			req.StartDate = "2020-03-01"
			series, err := svc.Simulate(ctx, req)

			Convey("Then snapshots should be dated from it", func() {
				So(err, ShouldBeNil)
				So(series.At(0).Date.Format(model.DateLayout), ShouldEqual, "2020-03-01")
				So(series.At(10).Date.Format(model.DateLayout), ShouldEqual, "2020-03-11")
			})
		})

		Convey("When a dynamic policy is requested", func() {
			baseline, err := svc.Simulate(ctx, request(svc, 365))
			So(err, ShouldBeNil)
			reactive := request(svc, 365)
			reactive.Policy = dynamicPolicy()
			series, err := svc.Simulate(ctx, reactive)

			Convey("Then it should engage and flatten the critical peak", func() {
				So(err, ShouldBeNil)
				So(series.Policy(), ShouldEqual, policy.KindDynamic)
				So(series.Summary().InterventionDays, ShouldBeGreaterThan, 0)
				So(series.Summary().PeakCritical, ShouldBeLessThan, baseline.Summary().PeakCritical)
			})
		})

		Convey("When the request is invalid", func() {
			bad := request(svc, 30)
			bad.Parameters.InfectiousDays = 0
			_, err := svc.Simulate(ctx, bad)

			Convey("Then it should fail with a configuration error", func() {
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the horizon exceeds the limit", func() {
			_, err := svc.Simulate(ctx, request(svc, 1001))

			Convey("Then it should be rejected as configuration", func() {
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			series, err := svc.Simulate(cctx, request(svc, 30))

			Convey("Then no series should be returned", func() {
				So(series, ShouldBeNil)
				So(errors.Is(err, simerr.ErrCancelled), ShouldBeTrue)
			})
		})
	})
}

func TestService_Compare(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithMaxScenarios(3))
		ctx := context.Background()

		Convey("When comparing a baseline, a reactive policy and a broken scenario", func() {
			broken := request(svc, 365)
			broken.Parameters.R0 = -1
			reactive := request(svc, 365)
			reactive.Policy = dynamicPolicy()
			out, err := svc.Compare(ctx, []types.Scenario{
				{Name: "baseline", Request: request(svc, 365)},
				{Request: reactive},
				{Name: "broken", Request: broken},
			})

			Convey("Then outcomes should come back in input order", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 3)
				So(out[0].Name, ShouldEqual, "baseline")
				So(out[1].Name, ShouldEqual, "scenario-2")
				So(out[2].Name, ShouldEqual, "broken")
			})

			Convey("And each outcome should match a standalone run", func() {
				alone, err := svc.Simulate(ctx, reactive)
				So(err, ShouldBeNil)
				So(out[1].Series.Snapshots(), ShouldResemble, alone.Snapshots())
				So(*out[1].Summary, ShouldResemble, alone.Summary())
			})

			Convey("And the broken scenario should carry its own error", func() {
				So(out[2].Series, ShouldBeNil)
				So(errors.Is(out[2].Err, simerr.ErrConfiguration), ShouldBeTrue)
				So(out[2].Error.Code, ShouldEqual, "configuration")
				So(out[0].Err, ShouldBeNil)
			})
		})

		Convey("When there is nothing to compare", func() {
			_, err := svc.Compare(ctx, nil)

			Convey("Then it should fail as configuration", func() {
				So(errors.Is(err, service.ErrNoScenarios), ShouldBeTrue)
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When there are too many scenarios", func() {
			_, err := svc.Compare(ctx, make([]types.Scenario, 4))

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, service.ErrTooManyRuns), ShouldBeTrue)
			})
		})
	})
}
