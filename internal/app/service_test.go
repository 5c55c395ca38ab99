package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/adapters/repository"
	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/scoring"
	"github.com/okian/syncops/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	return svc
}

func leaderboardIDs(t *testing.T, svc *service.Service, entity string) []string {
	t.Helper()
	entries, err := svc.Leaderboard(context.Background(), entity, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithSeed(false))

		Convey("Submitting before Start fails", func() {
			_, err := svc.Submit(ctx, model.Snapshot{ServiceID: "1"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Start and Stop are idempotent", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stats(ctx)["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stats(ctx)["started"], ShouldEqual, false)
		})
	})
}

func TestService_Scorecards(t *testing.T) {
	svc := started(t)
	ctx := context.Background()

	Convey("Given the seeded catalogue", t, func() {
		Convey("User Service scores with the gate formula", func() {
			sc, err := svc.Scorecard(ctx, "1", "")
			So(err, ShouldBeNil)
			So(sc.Formula, ShouldEqual, scoring.FormulaGate)
			So(sc.CategoryScores(), ShouldResemble, map[scoring.CategoryID]int{
				scoring.CodeQuality: 50, scoring.Security: 25, scoring.DORA: 100,
				scoring.ProductionReadiness: 100, scoring.APIReadiness: 100, scoring.PRMetrics: 100,
			})
			So(sc.Overall.Score, ShouldEqual, 79)
			So(sc.Overall.Level, ShouldEqual, scoring.Good)
		})

		Convey("The legacy formula is selected explicitly", func() {
			sc, err := svc.Scorecard(ctx, "1", "legacy")
			So(err, ShouldBeNil)
			So(sc.Overall.Score, ShouldEqual, 91)
		})

		Convey("Unknown formulas and services are reported", func() {
			_, err := svc.Scorecard(ctx, "1", "weighted")
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
			_, err = svc.Scorecard(ctx, "99", "")
			So(service.IsNotFound(err), ShouldBeTrue)
		})

		Convey("A single category accepts short names", func() {
			res, err := svc.Category(ctx, "7", "dora", "")
			So(err, ShouldBeNil)
			So(res.ID, ShouldEqual, scoring.DORA)
			So(res.Score, ShouldEqual, 50)
			So(res.Passed, ShouldEqual, 2)

			_, err = svc.Category(ctx, "7", "jira-metrics", "")
			So(service.IsNotFound(err), ShouldBeTrue)
		})

		Convey("Badges follow table order", func() {
			badges, err := svc.Badges(ctx, "1")
			So(err, ShouldBeNil)
			So(badges, ShouldNotBeEmpty)
			So(badges[0].Metric, ShouldEqual, scoring.CodeCoverage)
			So(badges[0].Tier, ShouldEqual, scoring.Gold)
		})

		Convey("The Jira block is exposed", func() {
			j, err := svc.Jira(ctx, "1")
			So(err, ShouldBeNil)
			So(j.OpenIssues, ShouldEqual, 8)
			So(j.AvgResolutionMinutes, ShouldAlmostEqual, 2.3*24*60, 0.001)
		})
	})
}

func TestService_Listings(t *testing.T) {
	svc := started(t)
	ctx := context.Background()

	Convey("Given the seeded catalogue", t, func() {
		Convey("Services filter by repository value or id", func() {
			byValue, err := svc.Services(ctx, service.ServiceFilter{Repository: "payment-gateway"})
			So(err, ShouldBeNil)
			So(byValue, ShouldHaveLength, 3)
			byID, err := svc.Services(ctx, service.ServiceFilter{Repository: "repo2"})
			So(err, ShouldBeNil)
			So(byID, ShouldHaveLength, 3)
		})

		Convey("Services filter by team and sort by name descending", func() {
			list, err := svc.Services(ctx, service.ServiceFilter{Team: "platform team", Sort: "name", Desc: true})
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 2)
			So(list[0].Name, ShouldEqual, "User Service")
			So(list[1].Name, ShouldEqual, "Notification Service")
			So(list[0].Overall.Score, ShouldEqual, 79)
		})

		Convey("Unknown sort keys are rejected", func() {
			_, err := svc.Services(ctx, service.ServiceFilter{Sort: "uptime"})
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})

		Convey("Teams rank by composite with id tie-break", func() {
			So(leaderboardIDs(t, svc, "teams"), ShouldResemble, []string{"5", "3", "1", "6", "4", "7", "2"})
			So(leaderboardIDs(t, svc, "services"), ShouldResemble, []string{"5", "1", "4", "2", "6", "3", "7"})

			top, err := svc.Leaderboard(ctx, "teams", 3)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 3)
			So(top[0].Rank, ShouldEqual, 1)
			So(top[0].Score, ShouldEqual, 84)

			_, err = svc.Leaderboard(ctx, "domains", 0)
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
		})

		Convey("The overview covers every category and service", func() {
			ov, err := svc.Overview(ctx)
			So(err, ShouldBeNil)
			So(ov.Services, ShouldHaveLength, 7)
			So(ov.Categories, ShouldHaveLength, 6)
			for _, c := range ov.Categories {
				sum := 0
				for _, seg := range c.Segments {
					sum += seg.Percent
				}
				So(sum, ShouldEqual, 100)
			}
		})

		Convey("Ad hoc scoring uses the same engine", func() {
			res, err := svc.ScoreCategory(ctx, "pr-metrics", scoring.Values{
				scoring.AvgCommitsPerPR: 10, scoring.OpenPRCount: 3,
				scoring.AvgLOCPerPR: 900, scoring.WeeklyMergedPRs: 5,
			}, "")
			So(err, ShouldBeNil)
			So(res.Score, ShouldEqual, 100)

			o := svc.ScoreOverall(ctx, []int{50, 50, 50, 50, 50, 50})
			So(o.Score, ShouldEqual, 50)
			So(o.Level, ShouldEqual, scoring.NeedsImprovement)

			b := svc.Classify(ctx, scoring.CodeCoverage, "65")
			So(b.Tier, ShouldEqual, scoring.Bronze)
			So(svc.Classify(ctx, scoring.CodeCoverage, "abc").Tier, ShouldEqual, scoring.Basic)
			So(svc.Definitions(), ShouldNotBeEmpty)
		})

		Convey("Ad hoc scoring of an unknown category is an invalid query", func() {
			_, err := svc.ScoreCategory(ctx, "vibes", scoring.Values{}, "")
			So(errors.Is(err, service.ErrInvalidQuery), ShouldBeTrue)
			So(service.IsNotFound(err), ShouldBeFalse)
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithSeed(false), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		snap := model.Snapshot{
			ID:        "snap-1",
			ServiceID: "42",
			Name:      "Ledger",
			PagerDuty: &model.RawPagerDuty{MTTR: "1h", Uptime: 99.99},
			TakenAt:   time.Now(),
		}

		Convey("A snapshot is accepted once and then applied", func() {
			res, err := svc.Submit(ctx, snap)
			So(err, ShouldBeNil)
			So(res.Status, ShouldEqual, "accepted")

			again, err := svc.Submit(ctx, snap)
			So(err, ShouldBeNil)
			So(again.Duplicate, ShouldBeTrue)

			So(svc.Stop(ctx), ShouldBeNil)
			got, err := store.Service(ctx, "42")
			So(err, ShouldBeNil)
			So(got.Metrics[scoring.MTTRMinutes], ShouldEqual, 60)
		})

		Convey("A snapshot without an id gets one", func() {
			snap.ID = ""
			res, err := svc.Submit(ctx, snap)
			So(err, ShouldBeNil)
			So(res.ID, ShouldNotBeBlank)
		})

		Convey("A snapshot without a service id is rejected", func() {
			_, err := svc.Submit(ctx, model.Snapshot{ID: "x"})
			So(errors.Is(err, service.ErrInvalidSnapshot), ShouldBeTrue)
		})
	})

	Convey("Given a busy worker and a full queue", t, func() {
		ctx := context.Background()
		store := &blockingStore{Catalogue: repository.NewMemoryStore(), entered: make(chan struct{}, 1), release: make(chan struct{})}
		svc := service.New(service.WithStore(store), service.WithSeed(false),
			service.WithQueueSize(1), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)

		_, err := svc.Submit(ctx, model.Snapshot{ID: "a", ServiceID: "1"})
		So(err, ShouldBeNil)
		<-store.entered
		_, err = svc.Submit(ctx, model.Snapshot{ID: "b", ServiceID: "1"})
		So(err, ShouldBeNil)

		_, err = svc.Submit(ctx, model.Snapshot{ID: "c", ServiceID: "1"})
		So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
		// the rejected id was released, so a retry is not a duplicate
		_, err = svc.Submit(ctx, model.Snapshot{ID: "c", ServiceID: "1"})
		So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)

		close(store.release)
		So(svc.Stop(ctx), ShouldBeNil)
	})
}

// blockingStore holds every write until release is closed.
type blockingStore struct {
	repository.Catalogue
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) UpsertService(ctx context.Context, svc model.Service) (bool, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.Catalogue.UpsertService(ctx, svc)
}
