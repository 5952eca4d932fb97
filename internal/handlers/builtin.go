// Package handlers holds the built-in handlers the serve command registers.
// Handlers talk to the world exclusively through the reply operations on the
// update context and the collaborators injected here; they never see raw
// transport errors from sends.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0-o0/tgbot/internal/chathistory"
	"github.com/0-o0/tgbot/internal/dispatch"
	"github.com/0-o0/tgbot/internal/messages"
	"github.com/0-o0/tgbot/internal/telegram"
)

// Response is what a Responder produces for one prompt. Reasoning is shown
// before Text only when the deployment enables reasoning display.
type Response struct {
	Text      string
	Reasoning string
}

// Responder is the external answer-producing collaborator (an AI backend in
// production). The built-in handlers only need this one method.
type Responder interface {
	Respond(ctx context.Context, chatID, prompt string) (Response, error)
}

// EchoResponder is the default wiring when no AI backend is configured.
type EchoResponder struct{}

func (EchoResponder) Respond(_ context.Context, _ string, prompt string) (Response, error) {
	return Response{Text: prompt}, nil
}

type Deps struct {
	Responder Responder
	History   *chathistory.Store
	Messages  *messages.Catalog
	Locale    string
	Logger    *slog.Logger
}

type builtin struct {
	responder Responder
	history   *chathistory.Store
	catalog   *messages.Catalog
	locale    string
	logger    *slog.Logger
}

// Register wires the built-in command and kind handlers into the registry.
func Register(reg *dispatch.Registry, deps Deps) error {
	if reg == nil {
		return fmt.Errorf("registry is required")
	}
	if deps.Responder == nil {
		return fmt.Errorf("responder is required")
	}
	if deps.Messages == nil {
		return fmt.Errorf("message catalog is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &builtin{
		responder: deps.Responder,
		history:   deps.History,
		catalog:   deps.Messages,
		locale:    deps.Locale,
		logger:    logger,
	}

	if err := reg.Command("start", b.handleStart); err != nil {
		return err
	}
	if err := reg.Command("help", b.handleHelp); err != nil {
		return err
	}
	if err := reg.Command("reasoning", b.handleReasoning); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindMessage, b.handleMessage); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindBusinessMessage, b.handleMessage); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindPhoto, b.handlePhoto); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindDocument, b.handleDocument); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindInline, b.handleInline); err != nil {
		return err
	}
	if err := reg.Kind(telegram.KindCallback, b.handleCallback); err != nil {
		return err
	}
	return nil
}

func (b *builtin) text(key string) string {
	return b.catalog.Get(b.locale, key)
}

func (b *builtin) handleStart(ctx context.Context, inv dispatch.Invocation) error {
	inv.Update.ReplyText(ctx, b.text(messages.KeyStart), telegram.TextOptions{})
	return nil
}

func (b *builtin) handleHelp(ctx context.Context, inv dispatch.Invocation) error {
	inv.Update.ReplyText(ctx, b.text(messages.KeyHelp), telegram.TextOptions{})
	return nil
}

func (b *builtin) handleReasoning(ctx context.Context, inv dispatch.Invocation) error {
	key := messages.KeyReasoningOff
	if inv.ShowReasoning {
		key = messages.KeyReasoningOn
	}
	inv.Update.ReplyText(ctx, b.text(key), telegram.TextOptions{})
	return nil
}

func (b *builtin) handleMessage(ctx context.Context, inv dispatch.Invocation) error {
	prompt := strings.TrimSpace(inv.Text)
	if prompt == "" {
		inv.Update.ReplyText(ctx, b.text(messages.KeyEmptyMessage), telegram.TextOptions{})
		return nil
	}
	inv.Update.SendTyping(ctx)
	b.record(inv.Update.ChatID(), chathistory.RoleUser, prompt)

	return b.respond(ctx, inv, prompt)
}

// handlePhoto resolves the inbound file first; a fetch failure aborts the
// handler since there is nothing to respond to.
func (b *builtin) handlePhoto(ctx context.Context, inv dispatch.Invocation) error {
	photo := inv.Update.Update().BestPhoto()
	if photo == nil {
		return nil
	}
	inv.Update.SendTyping(ctx)
	if _, err := inv.Update.GetFile(ctx, photo.FileID); err != nil {
		return fmt.Errorf("resolve photo file: %w", err)
	}

	prompt := strings.TrimSpace(inv.Text)
	if prompt == "" {
		inv.Update.ReplyText(ctx, b.text(messages.KeyFileReceived), telegram.TextOptions{})
		return nil
	}
	b.record(inv.Update.ChatID(), chathistory.RoleUser, prompt)
	return b.respond(ctx, inv, prompt)
}

func (b *builtin) handleDocument(ctx context.Context, inv dispatch.Invocation) error {
	msg := inv.Update.Update().Message
	if msg == nil || msg.Document == nil {
		return nil
	}
	inv.Update.SendTyping(ctx)
	if _, err := inv.Update.GetFile(ctx, msg.Document.FileID); err != nil {
		return fmt.Errorf("resolve document file: %w", err)
	}
	inv.Update.ReplyText(ctx, b.text(messages.KeyFileReceived), telegram.TextOptions{})
	return nil
}

func (b *builtin) handleInline(ctx context.Context, inv dispatch.Invocation) error {
	query := strings.TrimSpace(inv.Text)
	if query == "" {
		return nil
	}
	resp, err := b.responder.Respond(ctx, "", query)
	if err != nil {
		b.logger.Error("responder_error", "kind", "inline", "error", err.Error())
		return nil
	}
	inv.Update.ReplyInline(ctx, "Response", resp.Text, query)
	return nil
}

func (b *builtin) handleCallback(ctx context.Context, inv dispatch.Invocation) error {
	data := strings.TrimSpace(inv.Text)
	if data == "" {
		return nil
	}
	return b.respond(ctx, inv, data)
}

func (b *builtin) respond(ctx context.Context, inv dispatch.Invocation, prompt string) error {
	resp, err := b.responder.Respond(ctx, inv.Update.ChatID(), prompt)
	if err != nil {
		b.logger.Error("responder_error", "kind", inv.Update.Kind().Label(), "error", err.Error())
		inv.Update.ReplyText(ctx, b.text(messages.KeyDegradedFailure), telegram.TextOptions{})
		return nil
	}
	if inv.ShowReasoning && strings.TrimSpace(resp.Reasoning) != "" {
		inv.Update.ReplyText(ctx, resp.Reasoning, telegram.TextOptions{ParseMode: "HTML"})
	}
	if res := inv.Update.ReplyText(ctx, resp.Text, telegram.TextOptions{}); res != nil {
		b.record(inv.Update.ChatID(), chathistory.RoleBot, resp.Text)
	}
	return nil
}

func (b *builtin) record(chatID, role, content string) {
	if b.history == nil || chatID == "" || strings.TrimSpace(content) == "" {
		return
	}
	if err := b.history.Append(chatID, role, content); err != nil {
		b.logger.Warn("history_append_error", "chat_id", chatID, "error", err.Error())
	}
}
