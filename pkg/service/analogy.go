package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/theapemachine/analogy/pkg/errors"
	"github.com/theapemachine/analogy/pkg/feedback"
	"github.com/theapemachine/analogy/pkg/limiter"
	"github.com/theapemachine/analogy/pkg/metrics"
	"github.com/theapemachine/analogy/pkg/pipeline"
)

const RunIDHeader = "X-Run-ID"

/*
AnalogyServer exposes the pipeline and the feedback store over HTTP. It
holds no per-request state, every request gets its own run.
*/
type AnalogyServer struct {
	app     *fiber.App
	addr    string
	runner  *pipeline.Runner
	store   *feedback.Store
	metrics *metrics.PipelineMetrics
	limiter *limiter.TokenBucket
	wait    time.Duration
}

type AnalogyServerOption func(*AnalogyServer)

func NewAnalogyServer(
	runner *pipeline.Runner,
	store *feedback.Store,
	options ...AnalogyServerOption,
) *AnalogyServer {
	srv := &AnalogyServer{
		app: fiber.New(fiber.Config{
			AppName:      "Analogy",
			ServerHeader: "Analogy-Server",
		}),
		addr:    ":5000",
		runner:  runner,
		store:   store,
		metrics: metrics.NewPipelineMetrics(),
	}

	for _, option := range options {
		option(srv)
	}

	srv.routes()
	return srv
}

func WithAddress(addr string) AnalogyServerOption {
	return func(srv *AnalogyServer) {
		srv.addr = addr
	}
}

// WithMetrics shares a metrics instance, typically the one the runner records into.
func WithMetrics(m *metrics.PipelineMetrics) AnalogyServerOption {
	return func(srv *AnalogyServer) {
		srv.metrics = m
	}
}

/*
WithLimiter guards /generate_analogy with the bucket. A positive wait lets a
request queue for a token up to that long before it is rejected.
*/
func WithLimiter(tb *limiter.TokenBucket, wait time.Duration) AnalogyServerOption {
	return func(srv *AnalogyServer) {
		srv.limiter = tb
		srv.wait = wait
	}
}

func (srv *AnalogyServer) routes() {
	srv.app.Use(
		recoverer.New(),
		logger.New(logger.Config{
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/healthz"
			},
		}),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
			AllowHeaders: []string{fiber.HeaderContentType},
		}),
	)

	srv.app.Get("/healthz", healthcheck.New())
	srv.app.Get("/metrics", srv.handleMetrics)
	srv.app.Post("/generate_analogy", srv.handleGenerate)
	srv.app.Post("/submit_feedback", srv.handleFeedback)
}

// App returns the underlying fiber app.
func (srv *AnalogyServer) App() *fiber.App {
	return srv.app
}

func (srv *AnalogyServer) Start() error {
	log.Info("analogy server listening", "addr", srv.addr)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *AnalogyServer) Shutdown(ctx context.Context) error {
	return srv.app.ShutdownWithContext(ctx)
}

type generateRequest struct {
	Question string `json:"question"`
}

func (srv *AnalogyServer) handleGenerate(ctx fiber.Ctx) error {
	if !srv.admit(ctx) {
		return srv.fail(ctx, errors.ErrRateLimited)
	}

	var request generateRequest

	if err := json.Unmarshal(ctx.Body(), &request); err != nil || strings.TrimSpace(request.Question) == "" {
		return srv.fail(ctx, errors.ErrValidation.WithMessagef("No concept provided."))
	}

	run := srv.runner.NewRun(request.Question)
	ctx.Set(RunIDHeader, run.ID())

	record, err := srv.runner.Execute(ctx.RequestCtx(), run)
	if err != nil {
		log.Warn("analogy not generated", "run", run.ID(), "state", run.State(), "stage", run.Stage())
		return srv.fail(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(record)
}

func (srv *AnalogyServer) admit(ctx fiber.Ctx) bool {
	if srv.limiter == nil {
		return true
	}

	if srv.wait <= 0 {
		return srv.limiter.Allow()
	}

	waitCtx, cancel := context.WithTimeout(ctx.RequestCtx(), srv.wait)
	defer cancel()

	return srv.limiter.Wait(waitCtx) == nil
}

func (srv *AnalogyServer) handleFeedback(ctx fiber.Ctx) error {
	entry, err := feedback.Decode(ctx.Body())

	if err == nil {
		err = srv.store.Append(ctx.RequestCtx(), entry)
	}

	srv.metrics.RecordFeedback(err == nil)

	if err != nil {
		return srv.fail(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Feedback submitted successfully.",
	})
}

func (srv *AnalogyServer) handleMetrics(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(srv.metrics.GetMetrics())
}

func (srv *AnalogyServer) fail(ctx fiber.Ctx, err error) error {
	status := errors.StatusCode(err)

	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", "path", ctx.Path(), "error", err)
	}

	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}
