// Package webhook is the HTTP entry point for Bot API updates. Telegram's
// webhook contract only needs acknowledgment, so the handler answers 200 for
// every update it could parse, whatever happened inside; only an unparseable
// body (400) or a panicking handler (500) break that.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/0-o0/tgbot/internal/dispatch"
	"github.com/0-o0/tgbot/internal/metrics"
	"github.com/0-o0/tgbot/internal/telegram"
)

const defaultProcessingTimeout = 60 * time.Second

type Options struct {
	API      *telegram.Client
	Registry *dispatch.Registry
	Logger   *slog.Logger
	// Secret, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header Telegram attaches to webhook deliveries.
	Secret            string
	FailureNotice     string
	ProcessingTimeout time.Duration
}

type Handler struct {
	api           *telegram.Client
	registry      *dispatch.Registry
	logger        *slog.Logger
	secret        string
	failureNotice string
	processingTTL time.Duration
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("telegram client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("dispatch registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.ProcessingTimeout
	if ttl <= 0 {
		ttl = defaultProcessingTimeout
	}
	return &Handler{
		api:           opts.API,
		registry:      opts.Registry,
		logger:        logger,
		secret:        opts.Secret,
		failureNotice: opts.FailureNotice,
		processingTTL: ttl,
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		if got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); got != h.secret {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
			return
		}
	}

	upd, err := telegram.ParseUpdate(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "cannot parse update"})
		return
	}

	traceID := uuid.NewString()
	tctx, err := telegram.NewContext(h.api, upd, telegram.ContextOptions{
		Logger:        h.logger,
		FailureNotice: h.failureNotice,
		TraceID:       traceID,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "cannot parse update"})
		return
	}

	kind := tctx.Kind()
	metrics.UpdatesTotal.WithLabelValues(kind.Label()).Inc()
	h.logger.Info("webhook_update",
		"update_id", upd.UpdateID,
		"kind", kind.Label(),
		"trace_id", traceID,
	)

	// One update is processed to completion before the acknowledgment goes
	// out; the context bounds every outbound call made underneath.
	ctx, cancel := context.WithTimeout(r.Context(), h.processingTTL)
	defer cancel()

	if panicked := h.dispatchGuarded(ctx, tctx, traceID); panicked {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// dispatchGuarded runs the handler pipeline and reports whether it panicked.
// Handler error returns are already-degraded outcomes: logged, acknowledged.
func (h *Handler) dispatchGuarded(ctx context.Context, tctx *telegram.Context, traceID string) (panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			metrics.HandlerErrorsTotal.WithLabelValues("panic").Inc()
			h.logger.Error("handler_panic",
				"kind", tctx.Kind().Label(),
				"trace_id", traceID,
				"panic", fmt.Sprintf("%v", rec),
			)
		}
	}()
	if err := h.registry.Dispatch(ctx, tctx); err != nil {
		metrics.HandlerErrorsTotal.WithLabelValues("error").Inc()
		h.logger.Error("handler_error",
			"kind", tctx.Kind().Label(),
			"trace_id", traceID,
			"error", err.Error(),
		)
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
