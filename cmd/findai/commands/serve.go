package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/findai-go/internal/config"
	"github.com/54b3r/findai-go/internal/logging"
	"github.com/54b3r/findai-go/internal/ollama"
	"github.com/54b3r/findai-go/internal/server"
	"github.com/54b3r/findai-go/internal/store"
	"github.com/54b3r/findai-go/internal/vectorstore"
	"github.com/54b3r/findai-go/internal/version"
)

// NewServeCmd constructs the `findai serve` command, which loads the corpus
// and starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the findai HTTP API",
		Long: `Start the findai HTTP API.

The corpus is loaded at startup. If loading fails the server still starts,
reports not-ready on /health and /stats, and can retry via POST /admin/reload.

Examples:
  findai serve
  findai serve --port 9090
  RAG_BACKEND_PORT=8001 findai serve
  GENERATION_BACKEND=provider MODEL_PROVIDER=openai findai serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			rt, err := buildEngine(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer rt.flush()

			if err := rt.engine.EnsureLoaded(ctx); err != nil {
				attrs := []any{slog.String("error", err.Error())}
				var le *vectorstore.LoadError
				if errors.As(err, &le) {
					attrs = append(attrs, slog.String("kind", string(le.Kind)))
				}
				log.Warn("serve: corpus not loaded, starting anyway", attrs...)
			}

			// FINDAI_HISTORY_DB overrides the default path (~/.findai/history.db).
			// Set to "disabled" to turn the exchange log off.
			var history store.ExchangeLog
			dbPath, err := store.ResolvePath(config.EnvOr("FINDAI_HISTORY_DB", ""))
			switch {
			case err != nil:
				log.Warn("history: could not resolve default DB path, disabling", slog.String("error", err.Error()))
			case dbPath == "":
				log.Info("history: disabled via FINDAI_HISTORY_DB=" + store.Disabled)
			default:
				hs, hsErr := store.Open(dbPath)
				if hsErr != nil {
					log.Warn("history: failed to open store, disabling", slog.String("error", hsErr.Error()))
					break
				}
				history = hs
				defer func() { _ = hs.Close() }()
				log.Info("history: store opened", slog.String("path", dbPath))
			}

			if !cmd.Flags().Changed("host") {
				host = config.EnvOr("FINDAI_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = config.EnvInt("RAG_BACKEND_PORT", port)
			}

			srv, err := server.New(rt.engine, &server.Config{
				Host:        host,
				Port:        port,
				Logger:      log,
				Pingers:     []server.Pinger{ollama.NewPinger(ollamaClient(), rt.requested...)},
				RateLimit:   config.EnvFloat("FINDAI_RATE_LIMIT", 0),
				RateBurst:   config.EnvInt("FINDAI_RATE_BURST", 0),
				APIKey:      config.EnvOr("FINDAI_API_KEY", ""),
				CORSOrigins: config.EnvList("FINDAI_CORS_ORIGINS", nil),
				History:     history,
				Version:     version.String(),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address to bind to (env: FINDAI_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (env: RAG_BACKEND_PORT)")

	return cmd
}
