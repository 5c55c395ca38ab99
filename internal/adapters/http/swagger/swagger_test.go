package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a mux with the docs routes", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("Then /openapi.yaml serves the document", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Len(), convey.ShouldEqual, len(OpenAPI))
		})

		convey.Convey("And /api-docs serves the viewer", func() {
			req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, RedocURL)
		})
	})

	convey.Convey("Given a nil mux", t, func() {
		convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("The embedded OpenAPI document", t, func() {
		var doc struct {
			OpenAPI string                    `yaml:"openapi"`
			Paths   map[string]map[string]any `yaml:"paths"`
		}
		convey.So(yaml.Unmarshal(OpenAPI, &doc), convey.ShouldBeNil)
		convey.So(doc.OpenAPI, convey.ShouldStartWith, "3.")

		convey.Convey("documents every API route", func() {
			routes := map[string]string{
				"/healthz":                         "get",
				"/stats":                           "get",
				"/api/v1/repositories":             "get",
				"/api/v1/teams":                    "get",
				"/api/v1/domains":                  "get",
				"/api/v1/services":                 "get",
				"/api/v1/services/{id}":            "get",
				"/api/v1/services/{id}/jira":       "get",
				"/api/v1/services/{id}/scorecard":  "get",
				"/api/v1/services/{id}/badges":     "get",
				"/api/v1/services/{id}/{category}": "get",
				"/api/v1/leaderboard":              "get",
				"/api/v1/scorecards/overview":      "get",
				"/api/v1/metrics":                  "get",
				"/api/v1/classify":                 "get",
				"/api/v1/score/category":           "post",
				"/api/v1/score/overall":            "post",
				"/api/v1/snapshots":                "post",
			}
			for path, method := range routes {
				ops, ok := doc.Paths[path]
				convey.So(ok, convey.ShouldBeTrue)
				_, ok = ops[strings.ToLower(method)]
				convey.So(ok, convey.ShouldBeTrue)
			}
		})
	})
}
