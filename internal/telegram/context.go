package telegram

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Context binds one update to one bot identity for the lifetime of a webhook
// request. The kind tag is derived once at construction and never changes;
// every reply operation re-derives its call shape from it.
type Context struct {
	api     *Client
	update  *Update
	kind    Kind
	logger  *slog.Logger
	notice  string
	traceID string
}

type ContextOptions struct {
	Logger *slog.Logger
	// FailureNotice is the fixed localized text sent when an outbound call
	// fails. Empty falls back to a plain English notice.
	FailureNotice string
	TraceID       string
}

const defaultFailureNotice = "Something went wrong. Please try again later."

func NewContext(api *Client, update *Update, opts ContextOptions) (*Context, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram client is required")
	}
	if update == nil {
		return nil, fmt.Errorf("update is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notice := strings.TrimSpace(opts.FailureNotice)
	if notice == "" {
		notice = defaultFailureNotice
	}
	return &Context{
		api:     api,
		update:  update,
		kind:    Classify(update),
		logger:  logger,
		notice:  notice,
		traceID: strings.TrimSpace(opts.TraceID),
	}, nil
}

func (c *Context) Kind() Kind      { return c.kind }
func (c *Context) Update() *Update { return c.update }
func (c *Context) TraceID() string { return c.traceID }

// ChatID returns the addressable chat for message-like kinds, or the empty
// string when the update has no chat to send into. Callers treat the empty
// sentinel as "do not send".
func (c *Context) ChatID() string {
	switch c.kind {
	case KindMessage, KindPhoto, KindDocument:
		if c.update.Message != nil && c.update.Message.Chat != nil {
			return strconv.FormatInt(c.update.Message.Chat.ID, 10)
		}
	case KindBusinessMessage:
		if c.update.BusinessMessage != nil && c.update.BusinessMessage.Chat != nil {
			return strconv.FormatInt(c.update.BusinessMessage.Chat.ID, 10)
		}
	}
	return ""
}

// MessageID returns the inbound message id, or the empty string when the
// update carries none.
func (c *Context) MessageID() string {
	if c.update.Message != nil && c.update.Message.MessageID != 0 {
		return strconv.FormatInt(c.update.Message.MessageID, 10)
	}
	return ""
}

func (c *Context) BusinessConnectionID() string {
	if c.update.BusinessMessage != nil {
		return strings.TrimSpace(c.update.BusinessMessage.BusinessConnectionID)
	}
	return ""
}

func (c *Context) InlineQueryID() string {
	if c.update.InlineQuery != nil {
		return strings.TrimSpace(c.update.InlineQuery.ID)
	}
	return ""
}

// CallbackChatID returns the chat that originated a callback query, used to
// route text replies for the callback kind.
func (c *Context) CallbackChatID() string {
	cb := c.update.CallbackQuery
	if cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		return strconv.FormatInt(cb.Message.Chat.ID, 10)
	}
	return ""
}

func (c *Context) Text() string { return c.update.Text() }
