package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/0-o0/tgbot/internal/chathistory"
	"github.com/0-o0/tgbot/internal/dispatch"
	"github.com/0-o0/tgbot/internal/handlers"
	"github.com/0-o0/tgbot/internal/logutil"
	"github.com/0-o0/tgbot/internal/messages"
	"github.com/0-o0/tgbot/internal/retryutil"
	"github.com/0-o0/tgbot/internal/telegram"
	"github.com/0-o0/tgbot/internal/webhook"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --bot-token or TGBOT_TELEGRAM_BOT_TOKEN)")
			}

			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			catalog, err := messages.Load()
			if err != nil {
				return err
			}
			locale := strings.TrimSpace(flagOrViperString(cmd, "locale", "messages.locale"))
			if locale == "" {
				locale = "en"
			}
			failureNotice := catalog.Get(locale, messages.KeyDegradedFailure)

			baseURL := strings.TrimSpace(flagOrViperString(cmd, "api-base-url", "telegram.api_base_url"))
			httpClient := &http.Client{Timeout: 60 * time.Second}
			api := telegram.NewClient(httpClient, baseURL, token)

			// Fail fast on a bad token before the listener comes up.
			var me *telegram.User
			err = retryutil.Do(cmd.Context(), logger, "get_me", 3, 2*time.Second, func(ctx context.Context) error {
				var probeErr error
				me, probeErr = api.GetMe(ctx)
				return probeErr
			})
			if err != nil {
				return fmt.Errorf("verify bot token: %w", err)
			}
			logger.Info("bot_identity", "username", me.Username, "id", me.ID)

			var history *chathistory.Store
			historyPath := strings.TrimSpace(flagOrViperString(cmd, "history-path", "history.path"))
			if historyPath != "" {
				history, err = chathistory.Open(chathistory.Options{
					Path:   historyPath,
					Logger: logger,
				})
				if err != nil {
					return err
				}
				retention := flagOrViperDuration(cmd, "history-retention", "history.retention")
				if retention > 0 {
					schedule := flagOrViperString(cmd, "history-cleanup-schedule", "history.cleanup_schedule")
					sweep, err := history.StartRetentionSweep(schedule, retention)
					if err != nil {
						return err
					}
					defer sweep.Stop()
				}
			}

			showReasoning := flagOrViperBool(cmd, "show-reasoning", "display.show_reasoning")
			reg := dispatch.NewRegistry(dispatch.RegistryOptions{
				ShowReasoning: showReasoning,
			})
			if err := handlers.Register(reg, handlers.Deps{
				Responder: handlers.EchoResponder{},
				History:   history,
				Messages:  catalog,
				Locale:    locale,
				Logger:    logger,
			}); err != nil {
				return err
			}

			hook, err := webhook.NewHandler(webhook.Options{
				API:               api,
				Registry:          reg,
				Logger:            logger,
				Secret:            flagOrViperString(cmd, "webhook-secret", "webhook.secret"),
				FailureNotice:     failureNotice,
				ProcessingTimeout: flagOrViperDuration(cmd, "processing-timeout", "webhook.processing_timeout"),
			})
			if err != nil {
				return err
			}

			r := chi.NewRouter()
			r.Use(middleware.RealIP)
			r.Use(middleware.Recoverer)
			r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok":true}`))
			})
			r.Handle("/metrics", promhttp.Handler())
			r.Post("/telegram/webhook", hook.ServeHTTP)

			bind := strings.TrimSpace(flagOrViperString(cmd, "server-bind", "server.bind"))
			if bind == "" {
				bind = "127.0.0.1"
			}
			port := flagOrViperInt(cmd, "server-port", "server.port")
			if port <= 0 {
				port = 8090
			}
			addr := bind + ":" + strconv.Itoa(port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Info("server_start",
				"addr", addr,
				"locale", locale,
				"show_reasoning", showReasoning,
				"history_enabled", history != nil,
			)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().String("server-bind", "127.0.0.1", "Bind address (default: 127.0.0.1).")
	cmd.Flags().Int("server-port", 8090, "HTTP port to listen on.")
	cmd.Flags().String("webhook-secret", "", "Expected X-Telegram-Bot-Api-Secret-Token header value.")
	cmd.Flags().Duration("processing-timeout", 60*time.Second, "Max time to process one update.")
	cmd.Flags().String("locale", "en", "Locale for user-visible texts (en|ru).")
	cmd.Flags().Bool("show-reasoning", false, "Show the responder's reasoning block before the final reply.")
	cmd.Flags().String("history-path", "", "SQLite path for chat history (empty disables history).")
	cmd.Flags().Duration("history-retention", 720*time.Hour, "Delete history entries older than this.")
	cmd.Flags().String("history-cleanup-schedule", "@hourly", "Cron schedule for the history retention sweep.")

	return cmd
}
