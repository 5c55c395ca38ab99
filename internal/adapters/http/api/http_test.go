package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/syncops/internal/adapters/http/api"
	service "github.com/okian/syncops/internal/app"
)

func newTestServer(t *testing.T, maxLimit int) (*httptest.Server, *service.Service) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	srv, err := api.NewServer(svc, maxLimit)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	mux := http.NewServeMux()
	srv.Register(ctx, mux)
	ts := httptest.NewServer(api.CORS([]string{"*"})(mux))
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Stop(ctx)
	})
	return ts, svc
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestCatalogueRoutes(t *testing.T) {
	Convey("Given a seeded API server", t, func() {
		ts, _ := newTestServer(t, 10)

		Convey("services are listed with their overall score", func() {
			var list []map[string]any
			So(get(t, ts.URL+"/api/v1/services", &list), ShouldEqual, http.StatusOK)
			So(list, ShouldHaveLength, 7)
			So(list[0]["id"], ShouldEqual, "1")
			So(list[0]["overall"], ShouldNotBeNil)
		})

		Convey("services filter by repository id and team", func() {
			var list []map[string]any
			So(get(t, ts.URL+"/api/v1/services?repository=repo2", &list), ShouldEqual, http.StatusOK)
			So(list, ShouldHaveLength, 3)

			list = nil
			So(get(t, ts.URL+"/api/v1/services?team=platform%20team&sort=name&order=desc", &list), ShouldEqual, http.StatusOK)
			So(list, ShouldHaveLength, 2)
			So(list[0]["name"], ShouldEqual, "User Service")
		})

		Convey("a bad order or sort is rejected", func() {
			var e errorBody
			So(get(t, ts.URL+"/api/v1/services?order=sideways", &e), ShouldEqual, http.StatusBadRequest)
			So(e.Code, ShouldEqual, "bad_request")
			So(get(t, ts.URL+"/api/v1/services?sort=color", nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("an unknown service is 404", func() {
			var e errorBody
			So(get(t, ts.URL+"/api/v1/services/404", &e), ShouldEqual, http.StatusNotFound)
			So(e.Code, ShouldEqual, "not_found")
			So(get(t, ts.URL+"/api/v1/services/404/jira", nil), ShouldEqual, http.StatusNotFound)
		})

		Convey("teams, domains and repositories are listed", func() {
			var teams, domains, repos []map[string]any
			So(get(t, ts.URL+"/api/v1/teams", &teams), ShouldEqual, http.StatusOK)
			So(teams, ShouldHaveLength, 7)
			So(get(t, ts.URL+"/api/v1/domains", &domains), ShouldEqual, http.StatusOK)
			So(domains, ShouldHaveLength, 4)
			So(get(t, ts.URL+"/api/v1/repositories", &repos), ShouldEqual, http.StatusOK)
			So(repos, ShouldHaveLength, 2)
		})

		Convey("a wrong method is refused", func() {
			So(post(t, ts.URL+"/api/v1/services", "{}", nil), ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestScorecardRoutes(t *testing.T) {
	Convey("Given a seeded API server", t, func() {
		ts, _ := newTestServer(t, 10)

		Convey("a service scorecard covers six categories", func() {
			var sc struct {
				ServiceID  string           `json:"serviceId"`
				Formula    string           `json:"formula"`
				Categories []map[string]any `json:"categories"`
				Overall    struct {
					Score int    `json:"score"`
					Level string `json:"level"`
				} `json:"overall"`
			}
			So(get(t, ts.URL+"/api/v1/services/1/scorecard", &sc), ShouldEqual, http.StatusOK)
			So(sc.ServiceID, ShouldEqual, "1")
			So(sc.Formula, ShouldEqual, "gate")
			So(sc.Categories, ShouldHaveLength, 6)
			So(sc.Overall.Score, ShouldEqual, 79)
			So(sc.Overall.Level, ShouldEqual, "Good")
		})

		Convey("the legacy formula is selectable and unknown formulas are 400", func() {
			var sc struct {
				Overall struct {
					Score int `json:"score"`
				} `json:"overall"`
			}
			So(get(t, ts.URL+"/api/v1/services/1/scorecard?formula=legacy", &sc), ShouldEqual, http.StatusOK)
			So(sc.Overall.Score, ShouldEqual, 91)
			So(get(t, ts.URL+"/api/v1/services/1/scorecard?formula=weighted", nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("a single category accepts short names", func() {
			var res struct {
				ID     string `json:"id"`
				Score  int    `json:"score"`
				Passed int    `json:"passed"`
			}
			So(get(t, ts.URL+"/api/v1/services/7/dora", &res), ShouldEqual, http.StatusOK)
			So(res.ID, ShouldEqual, "dora-metrics")
			So(res.Score, ShouldEqual, 50)
			So(res.Passed, ShouldEqual, 2)
			So(get(t, ts.URL+"/api/v1/services/7/astrology", nil), ShouldEqual, http.StatusNotFound)
		})

		Convey("badges are returned for reported metrics", func() {
			var badges []map[string]any
			So(get(t, ts.URL+"/api/v1/services/1/badges", &badges), ShouldEqual, http.StatusOK)
			So(badges, ShouldNotBeEmpty)
		})

		Convey("the team leaderboard is ranked", func() {
			var entries []struct {
				Rank  int    `json:"rank"`
				ID    string `json:"id"`
				Score int    `json:"score"`
			}
			So(get(t, ts.URL+"/api/v1/leaderboard", &entries), ShouldEqual, http.StatusOK)
			So(entries, ShouldHaveLength, 7)
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[0].ID, ShouldEqual, "5")
			So(entries[0].Score, ShouldEqual, 84)

			entries = nil
			So(get(t, ts.URL+"/api/v1/leaderboard?entity=services&limit=3", &entries), ShouldEqual, http.StatusOK)
			So(entries, ShouldHaveLength, 3)
			So(entries[0].ID, ShouldEqual, "5")
		})

		Convey("leaderboard limits are validated", func() {
			var e errorBody
			So(get(t, ts.URL+"/api/v1/leaderboard?limit=0", &e), ShouldEqual, http.StatusBadRequest)
			So(e.Code, ShouldEqual, "bad_request")
			So(get(t, ts.URL+"/api/v1/leaderboard?limit=abc", nil), ShouldEqual, http.StatusBadRequest)
			So(get(t, ts.URL+"/api/v1/leaderboard?limit=11", &e), ShouldEqual, http.StatusBadRequest)
			So(e.Code, ShouldEqual, "limit_exceeded")
			So(get(t, ts.URL+"/api/v1/leaderboard?entity=planets", nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("the overview has one row per service", func() {
			var ov struct {
				Categories []map[string]any `json:"categories"`
				Services   []map[string]any `json:"services"`
			}
			So(get(t, ts.URL+"/api/v1/scorecards/overview", &ov), ShouldEqual, http.StatusOK)
			So(ov.Categories, ShouldHaveLength, 6)
			So(ov.Services, ShouldHaveLength, 7)
		})
	})
}

func TestScoringRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		ts, _ := newTestServer(t, 10)

		Convey("the metric table is published", func() {
			var defs []map[string]any
			So(get(t, ts.URL+"/api/v1/metrics", &defs), ShouldEqual, http.StatusOK)
			So(defs, ShouldNotBeEmpty)
		})

		Convey("classify needs a metric and a value", func() {
			So(get(t, ts.URL+"/api/v1/classify?metric=uptime", nil), ShouldEqual, http.StatusBadRequest)
			So(get(t, ts.URL+"/api/v1/classify?value=1", nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("an unknown metric classifies as basic with a reason", func() {
			var b map[string]any
			So(get(t, ts.URL+"/api/v1/classify?metric=happiness&value=3", &b), ShouldEqual, http.StatusOK)
			So(b["tier"], ShouldEqual, "basic")
			So(b["reason"], ShouldNotBeEmpty)
		})

		Convey("ad hoc category scores are computed", func() {
			var res map[string]any
			code := post(t, ts.URL+"/api/v1/score/category", `{"category":"security","metrics":{}}`, &res)
			So(code, ShouldEqual, http.StatusOK)
			So(res["id"], ShouldEqual, "security")
			So(res["score"], ShouldEqual, float64(0))

			So(post(t, ts.URL+"/api/v1/score/category", `{"category":"vibes","metrics":{}}`, nil), ShouldEqual, http.StatusBadRequest)
			So(post(t, ts.URL+"/api/v1/score/category", `{"metrics":{}}`, nil), ShouldEqual, http.StatusBadRequest)
			So(post(t, ts.URL+"/api/v1/score/category", `{"category":"security","extra":1}`, nil), ShouldEqual, http.StatusBadRequest)
		})

		Convey("overall scores round half up", func() {
			var o struct {
				Score int    `json:"score"`
				Level string `json:"level"`
			}
			So(post(t, ts.URL+"/api/v1/score/overall", `{"scores":[100,50]}`, &o), ShouldEqual, http.StatusOK)
			So(o.Score, ShouldEqual, 75)
			So(o.Level, ShouldEqual, "Good")
			So(post(t, ts.URL+"/api/v1/score/overall", `{"scores":[101]}`, nil), ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSnapshotRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		ts, svc := newTestServer(t, 10)

		Convey("a valid snapshot is accepted and applied", func() {
			body := `{"id":"snap-1","serviceId":"1","name":"Renamed Service","pagerduty":{"uptime":99.99,"mttr":"10 min"}}`
			var res service.SubmitResult
			So(post(t, ts.URL+"/api/v1/snapshots", body, &res), ShouldEqual, http.StatusAccepted)
			So(res.Status, ShouldEqual, "accepted")

			So(post(t, ts.URL+"/api/v1/snapshots", body, &res), ShouldEqual, http.StatusOK)
			So(res.Duplicate, ShouldBeTrue)

			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				got, err := svc.Service(context.Background(), "1")
				if err == nil && got.Name == "Renamed Service" {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			got, err := svc.Service(context.Background(), "1")
			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "Renamed Service")
		})

		Convey("schema violations are 400", func() {
			var e errorBody
			So(post(t, ts.URL+"/api/v1/snapshots", `{"name":"no id"}`, &e), ShouldEqual, http.StatusBadRequest)
			So(e.Code, ShouldEqual, "bad_request")
			So(post(t, ts.URL+"/api/v1/snapshots", `{"serviceId":"1","status":"Sleepy"}`, nil), ShouldEqual, http.StatusBadRequest)
			So(post(t, ts.URL+"/api/v1/snapshots", `{"serviceId":"1","color":"red"}`, nil), ShouldEqual, http.StatusBadRequest)
			So(post(t, ts.URL+"/api/v1/snapshots", `not json`, nil), ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		ts, _ := newTestServer(t, 10)

		Convey("healthz answers JSON by default and metrics for text clients", func() {
			var status map[string]string
			So(get(t, ts.URL+"/healthz", &status), ShouldEqual, http.StatusOK)
			So(status["status"], ShouldEqual, "ok")

			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
			req.Header.Set("Accept", "text/plain")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/plain")
		})

		Convey("stats report the catalogue", func() {
			var stats map[string]any
			So(get(t, ts.URL+"/stats", &stats), ShouldEqual, http.StatusOK)
			So(stats["services"], ShouldEqual, float64(7))
			So(stats["started"], ShouldEqual, true)
		})

		Convey("the dashboard page is served", func() {
			resp, err := http.Get(ts.URL + "/dashboard")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/html")
		})

		Convey("CORS preflight is answered", func() {
			req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/services", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", "GET")
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			So(resp.Header.Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestCORSOrigins(t *testing.T) {
	Convey("An explicit origin list only echoes listed origins", t, func() {
		h := api.CORS([]string{"https://ok.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://ok.example")
		h.ServeHTTP(rec, req)
		So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://ok.example")

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		h.ServeHTTP(rec, req)
		So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
	})
}
