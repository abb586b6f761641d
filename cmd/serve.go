package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/limiter"
	"github.com/theapemachine/analogy/pkg/metrics"
	"github.com/theapemachine/analogy/pkg/pipeline"
	"github.com/theapemachine/analogy/pkg/service"
)

var (
	portFlag int
	hostFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the analogy pipeline over HTTP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			m := metrics.NewPipelineMetrics()

			runner, err := newRunner(v, pipeline.WithMetrics(m))
			if err != nil {
				return err
			}

			options := []service.AnalogyServerOption{
				service.WithAddress(fmt.Sprintf("%s:%d", v.GetString("server.host"), v.GetInt("server.port"))),
				service.WithMetrics(m),
			}

			if rate := v.GetInt64("limiter.rate"); rate > 0 {
				tb, err := limiter.New(rate, v.GetDuration("limiter.interval"))
				if err != nil {
					return err
				}

				options = append(options, service.WithLimiter(tb, v.GetDuration("limiter.wait")))
			}

			srv := service.NewAnalogyServer(runner, newStore(v), options...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()

				shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(shutdown); err != nil {
					log.Error("failed to shut down", "error", err)
				}
			}()

			log.Info("serving stages", "stages", runner.Stages())
			return srv.Start()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 5000, "Port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

var longServe = `
Serve the analogy pipeline and the feedback store over HTTP.

Endpoints:
  POST /generate_analogy   {"question": "<concept>"}
  POST /submit_feedback    ratings for a generated analogy
  GET  /metrics            pipeline counters
  GET  /healthz            liveness

Examples:
  # Serve on the default port
  analogy serve

  # Serve on port 8080, using OpenAI instead of a local model
  ANALOGY_PROVIDER_NAME=openai ANALOGY_PROVIDER_MODEL=gpt-4o-mini analogy serve --port 8080
`
