package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/analogy/pkg/extract"
	"github.com/theapemachine/analogy/pkg/feedback"
	"github.com/theapemachine/analogy/pkg/limiter"
	"github.com/theapemachine/analogy/pkg/metrics"
	"github.com/theapemachine/analogy/pkg/pipeline"
	"github.com/theapemachine/analogy/pkg/prompts"
	"github.com/theapemachine/analogy/pkg/provider"
)

var responses = map[string]string{
	"domain_analyzer":      `## Final Answer: {"target_structures": ["a causes b"]}`,
	"base_domain_selector": `## Final Answer: {"base_domain": "kitchen"}`,
	"mapping_agent": `Sure.
## Final Answer:
{"final_analogy": "Photosynthesis is like baking bread.", "source_domain": "baking",
 "target_domain": "photosynthesis", "explanation": "Energy turns ingredients into food."}`,
}

type fixture struct {
	server *AnalogyServer
	store  *feedback.Store
	mock   *provider.MockProvider
}

func newFixture(t *testing.T, prvdr *provider.MockProvider, options ...AnalogyServerOption) fixture {
	registry, err := prompts.DefaultRegistry()
	So(err, ShouldBeNil)

	m := metrics.NewPipelineMetrics()
	runner := pipeline.NewRunner(registry, prvdr, extract.NewExtractor(), pipeline.WithMetrics(m))
	store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.csv"))

	return fixture{
		server: NewAnalogyServer(runner, store, append([]AnalogyServerOption{WithMetrics(m)}, options...)...),
		store:  store,
		mock:   prvdr,
	}
}

func do(srv *AnalogyServer, method, path, body string) (*http.Response, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	So(err, ShouldBeNil)

	buf, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)

	out := map[string]any{}
	if len(buf) > 0 && buf[0] == '{' {
		So(json.Unmarshal(buf, &out), ShouldBeNil)
	}

	return resp, out
}

func feedbackBody(drop string) string {
	body := map[string]any{
		"target_domain":      "photosynthesis",
		"final_analogy":      "Photosynthesis is like baking bread.",
		"source_domain":      "baking",
		"explanation":        "Energy turns ingredients into food.",
		"rating_clarity":     5,
		"rating_relational":  4,
		"rating_familiarity": 5,
		"rating_overall":     4,
		"runtime_seconds":    3.2,
		"comment":            "good",
	}

	delete(body, drop)

	buf, _ := json.Marshal(body)
	return string(buf)
}

func TestGenerateAnalogy(t *testing.T) {
	Convey("Given a server backed by a scripted model", t, func() {
		fx := newFixture(t, provider.NewScriptedProvider(responses))

		Convey("When asking for a concept", func() {
			resp, body := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "photosynthesis"}`)

			Convey("Then it answers with the analogy record", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["target_domain"], ShouldEqual, "photosynthesis")
				So(body["source_domain"], ShouldEqual, "baking")
				So(body["final_analogy"], ShouldEqual, "Photosynthesis is like baking bread.")
				So(body["explanation"], ShouldNotBeBlank)
				So(body["runtime_seconds"], ShouldBeGreaterThanOrEqualTo, 0.0)
				So(resp.Header.Get(RunIDHeader), ShouldNotBeBlank)
			})
		})

		Convey("When the question is empty, missing or malformed", func() {
			for _, payload := range []string{`{"question": ""}`, `{"question": "  "}`, `{}`, `not json`} {
				resp, body := do(fx.server, http.MethodPost, "/generate_analogy", payload)

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["error"], ShouldEqual, "No concept provided.")
			}

			So(fx.mock.Requests(), ShouldBeEmpty)
		})
	})

	Convey("Given a model that fails on the second stage", t, func() {
		fx := newFixture(t, provider.NewMockProvider(func(ctx context.Context, req provider.Request) (string, error) {
			if req.Stage == "base_domain_selector" {
				return "", fmt.Errorf("model unavailable")
			}

			return responses[req.Stage], nil
		}))

		resp, body := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)

		Convey("Then it answers 500 naming the stage", func() {
			So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
			So(body["error"], ShouldContainSubstring, `stage "base_domain_selector" failed`)
			So(body["error"], ShouldContainSubstring, "model unavailable")
			So(fx.mock.Requests(), ShouldHaveLength, 2)
		})
	})

	Convey("Given a model that never answers in time", t, func() {
		slow := provider.NewMockProvider(func(ctx context.Context, req provider.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

		registry, _ := prompts.DefaultRegistry()
		runner := pipeline.NewRunner(registry, provider.NewGuard(slow, "mock", 10*time.Millisecond), nil)
		srv := NewAnalogyServer(runner, feedback.NewStore(filepath.Join(t.TempDir(), "f.csv")))

		resp, body := do(srv, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)

		So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
		So(body["error"], ShouldContainSubstring, "ModelTimeout")
	})
}

func TestGenerateAnalogyRateLimited(t *testing.T) {
	Convey("Given a limiter that admits one request", t, func() {
		tb, err := limiter.New(1, time.Hour)
		So(err, ShouldBeNil)

		fx := newFixture(t, provider.NewScriptedProvider(responses), WithLimiter(tb, 0))

		first, _ := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)
		second, body := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)

		So(first.StatusCode, ShouldEqual, http.StatusOK)
		So(second.StatusCode, ShouldEqual, http.StatusTooManyRequests)
		So(body["error"], ShouldEqual, "Too many requests.")
	})
}

func TestGenerateAnalogyQueuesForToken(t *testing.T) {
	Convey("Given a limiter that refills quickly and a wait budget", t, func() {
		tb, err := limiter.New(1, 50*time.Millisecond)
		So(err, ShouldBeNil)

		fx := newFixture(t, provider.NewScriptedProvider(responses), WithLimiter(tb, time.Second))

		Convey("Then a second request waits for the refill instead of failing", func() {
			first, _ := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)
			second, _ := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)

			So(first.StatusCode, ShouldEqual, http.StatusOK)
			So(second.StatusCode, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a slow limiter and a short wait budget", t, func() {
		tb, err := limiter.New(1, time.Hour)
		So(err, ShouldBeNil)

		fx := newFixture(t, provider.NewScriptedProvider(responses), WithLimiter(tb, 20*time.Millisecond))

		Convey("Then the queued request is rejected once the budget runs out", func() {
			do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)
			resp, body := do(fx.server, http.MethodPost, "/generate_analogy", `{"question": "tides"}`)

			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			So(body["error"], ShouldEqual, "Too many requests.")
		})
	})
}

func TestSubmitFeedback(t *testing.T) {
	Convey("Given a server with an empty feedback store", t, func() {
		store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.csv"))
		registry, _ := prompts.DefaultRegistry()
		srv := NewAnalogyServer(pipeline.NewRunner(registry, provider.NewScriptedProvider(responses), nil), store)
		ctx := context.Background()

		Convey("When submitting a complete payload", func() {
			resp, body := do(srv, http.MethodPost, "/submit_feedback", feedbackBody(""))

			Convey("Then it is stored", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["message"], ShouldEqual, "Feedback submitted successfully.")

				count, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When a required field is missing", func() {
			for _, field := range feedback.Required {
				resp, body := do(srv, http.MethodPost, "/submit_feedback", feedbackBody(field))

				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["error"], ShouldEqual, "Missing field: "+field)
			}

			count, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 0)
		})

		Convey("When the comment is left out", func() {
			resp, _ := do(srv, http.MethodPost, "/submit_feedback", feedbackBody("comment"))
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("Then metrics report the submissions", func() {
			do(srv, http.MethodPost, "/submit_feedback", feedbackBody(""))
			do(srv, http.MethodPost, "/submit_feedback", feedbackBody("explanation"))

			resp, body := do(srv, http.MethodGet, "/metrics", "")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["feedback_entries"], ShouldEqual, 1.0)
			So(body["feedback_rejected"], ShouldEqual, 1.0)
		})
	})
}

func TestCORSAndHealth(t *testing.T) {
	Convey("Given a server", t, func() {
		fx := newFixture(t, provider.NewScriptedProvider(responses))

		Convey("Then preflight requests from any origin are allowed", func() {
			req := httptest.NewRequest(http.MethodOptions, "/generate_analogy", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			resp, err := fx.server.App().Test(req)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
			So(resp.Header.Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("Then the health endpoint answers", func() {
			resp, _ := do(fx.server, http.MethodGet, "/healthz", "")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
