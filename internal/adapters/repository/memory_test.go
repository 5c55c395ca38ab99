package repository

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/normalize"
	"github.com/okian/syncops/internal/domain/scoring"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()

		Convey("Missing services report ErrNotFound", func() {
			_, err := s.Service(ctx, "1")
			So(err, ShouldEqual, ErrNotFound)
			So(s.DeleteService(ctx, "1"), ShouldEqual, ErrNotFound)
		})

		Convey("Blank ids are rejected", func() {
			_, err := s.UpsertService(ctx, model.Service{ID: " "})
			So(err, ShouldEqual, ErrInvalidID)
			So(s.UpsertTeam(ctx, model.Team{}), ShouldEqual, ErrInvalidID)
		})

		Convey("Services are listed in numeric id order", func() {
			for _, id := range []string{"10", "2", "1"} {
				ok, err := s.UpsertService(ctx, model.Service{ID: id})
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			}
			list, err := s.Services(ctx)
			So(err, ShouldBeNil)
			So(ids(list), ShouldResemble, []string{"1", "2", "10"})
			So(s.Count(ctx), ShouldEqual, 3)
		})

		Convey("An older copy never replaces a newer one", func() {
			now := time.Now()
			_, _ = s.UpsertService(ctx, model.Service{ID: "1", Name: "new", UpdatedAt: now})
			ok, err := s.UpsertService(ctx, model.Service{ID: "1", Name: "old", UpdatedAt: now.Add(-time.Minute)})
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			got, _ := s.Service(ctx, "1")
			So(got.Name, ShouldEqual, "new")
		})

		Convey("Returned services do not alias stored metrics", func() {
			_, _ = s.UpsertService(ctx, model.Service{ID: "1", Metrics: scoring.Values{"uptime": 99}})
			got, _ := s.Service(ctx, "1")
			got.Metrics["uptime"] = 1
			again, _ := s.Service(ctx, "1")
			So(again.Metrics["uptime"], ShouldEqual, 99)
		})
	})
}

func TestFixtures(t *testing.T) {
	Convey("The embedded fixtures", t, func() {
		fx, err := DefaultFixtures()
		So(err, ShouldBeNil)
		So(fx.Services, ShouldHaveLength, 7)
		So(fx.Teams, ShouldHaveLength, 7)
		So(fx.Domains, ShouldHaveLength, 4)
		So(fx.Repositories, ShouldHaveLength, 2)

		Convey("seed a store with normalized services", func() {
			ctx := context.Background()
			s := NewMemoryStore()
			So(Seed(ctx, s, fx, normalize.New(nil)), ShouldBeNil)
			So(s.Count(ctx), ShouldEqual, 7)

			svc, err := s.Service(ctx, "1")
			So(err, ShouldBeNil)
			So(svc.Issues, ShouldBeEmpty)
			So(svc.Metrics[scoring.CodeCoverage], ShouldEqual, 87)
			So(svc.Metrics[scoring.MTTRMinutes], ShouldEqual, 15)
			So(svc.Metrics[scoring.LeadTimeMinutes], ShouldEqual, 150)
			So(svc.Metrics[scoring.TechnicalDebtDays], ShouldEqual, 15)

			payment, _ := s.Service(ctx, "5")
			So(payment.Metrics[scoring.TechnicalDebtDays], ShouldEqual, 6)
			So(math.IsNaN(payment.Metrics[scoring.Uptime]), ShouldBeFalse)

			teams, _ := s.Teams(ctx)
			So(teams[0].Name, ShouldEqual, "The Visual Storytellers")
		})
	})

	Convey("Invalid fixture documents are rejected", t, func() {
		_, err := LoadFixtures(strings.NewReader("services:\n  - name: nameless\n"))
		So(err, ShouldWrap, ErrInvalidFixture)

		_, err = LoadFixtures(strings.NewReader("services:\n  - serviceId: \"1\"\n  - serviceId: \"1\"\n"))
		So(err, ShouldWrap, ErrInvalidFixture)

		_, err = LoadFixtures(strings.NewReader("unknown: true\n"))
		So(err, ShouldWrap, ErrInvalidFixture)
	})
}

func ids(list []model.Service) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
