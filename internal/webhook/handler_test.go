package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/0-o0/tgbot/internal/dispatch"
	"github.com/0-o0/tgbot/internal/telegram"
)

func newTestHandler(t *testing.T, secret string, h dispatch.HandlerFunc) *Handler {
	t.Helper()
	reg := dispatch.NewRegistry(dispatch.RegistryOptions{})
	if h != nil {
		if err := reg.Kind(telegram.KindMessage, h); err != nil {
			t.Fatalf("Kind() error = %v", err)
		}
	}
	api := telegram.NewClient(nil, "http://127.0.0.1:0", "test-token")
	hook, err := NewHandler(Options{
		API:      api,
		Registry: reg,
		Logger:   slog.Default(),
		Secret:   secret,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return hook
}

func postUpdate(t *testing.T, hook *Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	hook.ServeHTTP(rec, req)
	return rec
}

const textUpdateJSON = `{"update_id":1,"message":{"message_id":7,"chat":{"id":42},"text":"hello"}}`

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

func TestWebhookAcknowledgesUpdate(t *testing.T) {
	t.Parallel()

	var handled bool
	hook := newTestHandler(t, "", func(ctx context.Context, inv dispatch.Invocation) error {
		handled = true
		if inv.Text != "hello" {
			t.Errorf("text mismatch: got %q", inv.Text)
		}
		return nil
	})
	rec := postUpdate(t, hook, textUpdateJSON, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("body mismatch: got %v", body)
	}
	if !handled {
		t.Fatalf("handler must run before the acknowledgment")
	}
}

func TestWebhookRejectsUnparseableBody(t *testing.T) {
	t.Parallel()

	hook := newTestHandler(t, "", nil)
	rec := postUpdate(t, hook, `{"update_id":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status mismatch: got %d want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "cannot parse update" {
		t.Fatalf("body mismatch: got %v", body)
	}
}

func TestWebhookSecretEnforcement(t *testing.T) {
	t.Parallel()

	hook := newTestHandler(t, "s3cret", func(ctx context.Context, inv dispatch.Invocation) error {
		return nil
	})

	rec := postUpdate(t, hook, textUpdateJSON, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing secret: got %d want 403", rec.Code)
	}

	rec = postUpdate(t, hook, textUpdateJSON, map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "wrong",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong secret: got %d want 403", rec.Code)
	}

	rec = postUpdate(t, hook, textUpdateJSON, map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("correct secret: got %d want 200", rec.Code)
	}
}

// A handler error is a degraded outcome, not a delivery failure: Telegram
// still gets a 200 so it does not redeliver the update.
func TestWebhookHandlerErrorStillAcknowledged(t *testing.T) {
	t.Parallel()

	hook := newTestHandler(t, "", func(ctx context.Context, inv dispatch.Invocation) error {
		return errors.New("responder unavailable")
	})
	rec := postUpdate(t, hook, textUpdateJSON, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("body mismatch: got %v", body)
	}
}

func TestWebhookPanicReturnsGenericError(t *testing.T) {
	t.Parallel()

	hook := newTestHandler(t, "", func(ctx context.Context, inv dispatch.Invocation) error {
		panic("boom")
	})
	rec := postUpdate(t, hook, textUpdateJSON, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status mismatch: got %d want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "internal error" {
		t.Fatalf("panic detail must not leak: got %v", body)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("panic value leaked into response: %s", rec.Body.String())
	}
}

func TestWebhookUnclassifiableUpdateIsAcknowledged(t *testing.T) {
	t.Parallel()

	hook := newTestHandler(t, "", func(ctx context.Context, inv dispatch.Invocation) error {
		t.Errorf("handler must not run for an unclassifiable update")
		return nil
	})
	rec := postUpdate(t, hook, `{"update_id":2,"edited_message":null}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d want 200", rec.Code)
	}
}

func TestNewHandlerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(Options{Registry: dispatch.NewRegistry(dispatch.RegistryOptions{})}); err == nil {
		t.Fatalf("NewHandler() expected error for nil client")
	}
	api := telegram.NewClient(nil, "", "test-token")
	if _, err := NewHandler(Options{API: api}); err == nil {
		t.Fatalf("NewHandler() expected error for nil registry")
	}
}
