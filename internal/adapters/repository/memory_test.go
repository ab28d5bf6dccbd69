package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/seirsim/internal/adapters/repository"
	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func request(horizon int) model.Request {
	return model.Request{Parameters: epidemic.DefaultParameters(), HorizonDays: horizon}
}

func newRun(id string, created time.Time) *model.Run {
	r := model.NewRun(request(30), created)
	r.ID = id
	return r
}

func series(t *testing.T) *simulation.Series {
	t.Helper()
	s, err := simulation.Run(context.Background(), epidemic.DefaultParameters(), policy.None{}, 10)
	if err != nil {
		t.Fatalf("simulation.Run: %v", err)
	}
	return s
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an empty memory store", t, func() {
		s := repository.NewMemoryStore()

		Convey("When a run is created", func() {
			So(s.Create(ctx, newRun("run-1", base)), ShouldBeNil)

			Convey("Then it should be retrievable as queued", func() {
				got, err := s.Get(ctx, "run-1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.StatusQueued)
				So(got.Request.HorizonDays, ShouldEqual, 30)
				n, err := s.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("And creating it again should fail", func() {
				err := s.Create(ctx, newRun("run-1", base))
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})

			Convey("And it should move through its lifecycle", func() {
				started := base.Add(time.Second)
				finished := base.Add(2 * time.Second)
				So(s.MarkRunning(ctx, "run-1", started), ShouldBeNil)
				got, _ := s.Get(ctx, "run-1")
				So(got.Status, ShouldEqual, model.StatusRunning)
				So(got.StartedAt, ShouldEqual, started)

				ser := series(t)
				So(s.Complete(ctx, "run-1", ser, finished), ShouldBeNil)
				got, _ = s.Get(ctx, "run-1")
				So(got.Status, ShouldEqual, model.StatusSucceeded)
				So(got.Series, ShouldNotBeNil)
				So(got.Series.Len(), ShouldEqual, ser.Len())
				So(got.FinishedAt, ShouldEqual, finished)
			})

			Convey("And a failure should record its kind and reason", func() {
				So(s.Fail(ctx, "run-1", "numerical_domain", "state left the domain", base), ShouldBeNil)
				got, _ := s.Get(ctx, "run-1")
				So(got.Status, ShouldEqual, model.StatusFailed)
				So(got.ErrorKind, ShouldEqual, "numerical_domain")
				So(got.Error, ShouldEqual, "state left the domain")
			})

			Convey("And mutating the returned copy should not touch the store", func() {
				got, _ := s.Get(ctx, "run-1")
				got.Status = model.StatusFailed
				again, _ := s.Get(ctx, "run-1")
				So(again.Status, ShouldEqual, model.StatusQueued)
			})
		})

		Convey("When an unknown run is addressed", func() {
			_, err := s.Get(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.MarkRunning(ctx, "missing", base), repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Complete(ctx, "missing", nil, base), repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Fail(ctx, "missing", "k", "r", base), repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When listing several runs", func() {
			for i := 0; i < 5; i++ {
				So(s.Create(ctx, newRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))), ShouldBeNil)
			}
			So(s.Complete(ctx, "run-4", series(t), base), ShouldBeNil)

			Convey("Then they should come newest first, limited and without series", func() {
				runs, err := s.List(ctx, 3)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 3)
				So(runs[0].ID, ShouldEqual, "run-4")
				So(runs[1].ID, ShouldEqual, "run-3")
				So(runs[2].ID, ShouldEqual, "run-2")
				So(runs[0].Series, ShouldBeNil)
			})

			Convey("Then a non-positive limit should be rejected", func() {
				_, err := s.List(ctx, 0)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})

	Convey("Given a store bounded to two runs", t, func() {
		s := repository.NewMemoryStore(repository.WithMaxRuns(2))
		So(s.Create(ctx, newRun("run-a", base)), ShouldBeNil)
		So(s.Create(ctx, newRun("run-b", base)), ShouldBeNil)

		Convey("When every stored run is still pending", func() {
			So(s.Create(ctx, newRun("run-c", base)), ShouldBeNil)

			Convey("Then nothing should be evicted", func() {
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When the newer run has finished", func() {
			So(s.Fail(ctx, "run-b", "cancelled", "stopped", base), ShouldBeNil)
			So(s.Create(ctx, newRun("run-c", base)), ShouldBeNil)

			Convey("Then only the finished run should be evicted", func() {
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 2)
				_, err := s.Get(ctx, "run-a")
				So(err, ShouldBeNil)
				_, err = s.Get(ctx, "run-b")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
