package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
	. "github.com/smartystreets/goconvey/convey"
)

func request() model.Request {
	return model.Request{
		Parameters:  epidemic.DefaultParameters(),
		Policy:      policy.Config{Kind: policy.KindStatic, Static: &policy.StaticConfig{StartDay: 10, DurationDays: 30, Intensity: 0.5}},
		HorizonDays: 180,
		StartDate:   "2020-03-01",
	}
}

func TestRequest_Validate(t *testing.T) {
	Convey("Given a well-formed request", t, func() {
		req := request()

		Convey("Then it should validate", func() {
			So(req.Validate(365), ShouldBeNil)
			So(req.Validate(0), ShouldBeNil)
		})

		Convey("When the horizon exceeds the ceiling", func() {
			err := req.Validate(100)

			Convey("Then it should be a configuration error", func() {
				So(errors.Is(err, simerr.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the horizon is not positive", func() {
			req.HorizonDays = 0
			So(errors.Is(req.Validate(0), simerr.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When a parameter is out of range", func() {
			req.Parameters.CriticalFraction = 2
			So(errors.Is(req.Validate(0), simerr.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the policy block is missing", func() {
			req.Policy.Static = nil
			So(errors.Is(req.Validate(0), simerr.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When the start date is malformed", func() {
			req.StartDate = "03/01/2020"
			So(errors.Is(req.Validate(0), simerr.ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestRequest_Start(t *testing.T) {
	Convey("Given start dates", t, func() {
		req := request()
		start, err := req.Start()
		So(err, ShouldBeNil)
		So(start, ShouldEqual, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC))

		req.StartDate = ""
		start, err = req.Start()
		So(err, ShouldBeNil)
		So(start.IsZero(), ShouldBeTrue)
	})
}

func TestRequest_Fingerprint(t *testing.T) {
	Convey("Given two equal requests", t, func() {
		a, b := request(), request()

		Convey("Then their fingerprints should match", func() {
			So(a.Fingerprint(), ShouldEqual, b.Fingerprint())
			So(len(a.Fingerprint()), ShouldEqual, 64)
		})

		Convey("When only the spelling of the policy kind differs", func() {
			b.Policy.Kind = " Static "
			So(a.Fingerprint(), ShouldEqual, b.Fingerprint())
		})

		Convey("When an unused policy block is attached", func() {
			b.Policy.Dynamic = &policy.DynamicConfig{OnThreshold: 5, OffThreshold: 1, Intensity: 0.3}
			So(a.Fingerprint(), ShouldEqual, b.Fingerprint())
		})

		Convey("When a parameter differs", func() {
			b.Parameters.R0 = 2.5
			So(a.Fingerprint(), ShouldNotEqual, b.Fingerprint())
		})

		Convey("When the horizon differs", func() {
			b.HorizonDays = 181
			So(a.Fingerprint(), ShouldNotEqual, b.Fingerprint())
		})
	})

	Convey("Given an empty and an explicit none policy", t, func() {
		a, b := request(), request()
		a.Policy = policy.Config{}
		b.Policy = policy.Config{Kind: policy.KindNone, Static: &policy.StaticConfig{}}
		So(a.Fingerprint(), ShouldEqual, b.Fingerprint())
	})
}

func TestNewRun(t *testing.T) {
	Convey("Given a request", t, func() {
		req := request()
		now := time.Now()
		r1 := model.NewRun(req, now)
		r2 := model.NewRun(req, now)

		Convey("Then runs should be queued with distinct ids and the request fingerprint", func() {
			So(r1.Status, ShouldEqual, model.StatusQueued)
			So(r1.Status.Done(), ShouldBeFalse)
			So(r1.ID, ShouldNotEqual, r2.ID)
			So(r1.Fingerprint, ShouldEqual, req.Fingerprint())
			So(r1.CreatedAt.Location(), ShouldEqual, time.UTC)
		})

		Convey("And terminal statuses should report done", func() {
			So(model.StatusSucceeded.Done(), ShouldBeTrue)
			So(model.StatusFailed.Done(), ShouldBeTrue)
			So(model.StatusRunning.Done(), ShouldBeFalse)
		})
	})
}
