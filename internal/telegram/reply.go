package telegram

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/0-o0/tgbot/internal/metrics"
)

// CallResult is one issued Bot API call: the method, the parameter mapping
// the router built for it, and the raw result. Send operations return nil
// both for unsupported kinds and for absorbed failures, so handlers never
// branch on send errors.
type CallResult struct {
	Method string
	Params map[string]any
	Raw    json.RawMessage
}

type TextOptions struct {
	ParseMode             string
	DisableWebPagePreview bool
	ReplyMarkup           any
}

type MediaOptions struct {
	ParseMode   string
	ReplyMarkup any
}

// ReplyText routes a text reply by kind: direct send with reply-to for plain
// message kinds, business-connection send for business messages, a send into
// the originating chat for callbacks, and an inline answer for inline
// queries. Unsupported kinds no-op.
func (c *Context) ReplyText(ctx context.Context, text string, opts TextOptions) *CallResult {
	switch c.kind {
	case KindMessage, KindPhoto, KindDocument:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"text":    text,
		}
		if id := c.MessageID(); id != "" {
			params["reply_to_message_id"] = id
		}
		applyTextOptions(params, opts)
		return c.send(ctx, "sendMessage", params)
	case KindBusinessMessage:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"text":    text,
		}
		if bc := c.BusinessConnectionID(); bc != "" {
			params["business_connection_id"] = bc
		}
		applyTextOptions(params, opts)
		return c.send(ctx, "sendMessage", params)
	case KindCallback:
		chatID := c.CallbackChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"text":    text,
		}
		applyTextOptions(params, opts)
		return c.send(ctx, "sendMessage", params)
	case KindInline:
		return c.ReplyInline(ctx, "Response", text, "")
	default:
		return nil
	}
}

// ReplyPhoto sends a photo by URL or file id. Inline contexts answer with a
// photo result instead of a direct send.
func (c *Context) ReplyPhoto(ctx context.Context, photo, caption string, opts MediaOptions) *CallResult {
	switch c.kind {
	case KindPhoto, KindMessage:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"photo":   photo,
		}
		if id := c.MessageID(); id != "" {
			params["reply_to_message_id"] = id
		}
		applyMediaOptions(params, caption, opts)
		return c.send(ctx, "sendPhoto", params)
	case KindInline:
		return c.AnswerInline(ctx, []map[string]any{{
			"type":      "photo",
			"id":        uuid.NewString(),
			"photo_url": photo,
			"thumb_url": photo,
			"caption":   caption,
		}})
	default:
		return nil
	}
}

// ReplyVideo mirrors ReplyPhoto for video payloads.
func (c *Context) ReplyVideo(ctx context.Context, video, caption string, opts MediaOptions) *CallResult {
	switch c.kind {
	case KindPhoto, KindMessage:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"video":   video,
		}
		if id := c.MessageID(); id != "" {
			params["reply_to_message_id"] = id
		}
		applyMediaOptions(params, caption, opts)
		return c.send(ctx, "sendVideo", params)
	case KindInline:
		return c.AnswerInline(ctx, []map[string]any{{
			"type":      "video",
			"id":        uuid.NewString(),
			"video_url": video,
			"mime_type": "video/mp4",
			"thumb_url": video,
			"title":     "Video",
			"caption":   caption,
		}})
	default:
		return nil
	}
}

// SendTyping issues a "typing" chat action. Business messages scope the
// action by business connection id; kinds without a chat no-op. No state is
// kept: calling twice issues two identical calls.
func (c *Context) SendTyping(ctx context.Context) *CallResult {
	switch c.kind {
	case KindMessage, KindPhoto, KindDocument:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		return c.send(ctx, "sendChatAction", map[string]any{
			"chat_id": chatID,
			"action":  "typing",
		})
	case KindBusinessMessage:
		chatID := c.ChatID()
		if chatID == "" {
			return nil
		}
		params := map[string]any{
			"chat_id": chatID,
			"action":  "typing",
		}
		if bc := c.BusinessConnectionID(); bc != "" {
			params["business_connection_id"] = bc
		}
		return c.send(ctx, "sendChatAction", params)
	default:
		return nil
	}
}

// ReplyInline answers the inline query with a single article result wrapping
// the given text.
func (c *Context) ReplyInline(ctx context.Context, title, text, description string) *CallResult {
	result := map[string]any{
		"type":  "article",
		"id":    uuid.NewString(),
		"title": title,
		"input_message_content": map[string]any{
			"message_text": text,
		},
	}
	if strings.TrimSpace(description) != "" {
		result["description"] = description
	}
	return c.AnswerInline(ctx, []map[string]any{result})
}

// AnswerInline is valid only for inline contexts with a query id; anything
// else no-ops.
func (c *Context) AnswerInline(ctx context.Context, results []map[string]any) *CallResult {
	if c.kind != KindInline {
		return nil
	}
	queryID := c.InlineQueryID()
	if queryID == "" {
		return nil
	}
	return c.send(ctx, "answerInlineQuery", map[string]any{
		"inline_query_id": queryID,
		"results":         results,
	})
}

// GetFile resolves a file id. Unlike sends, fetch failures are re-raised
// after the degraded notice: the caller has nothing to continue with.
func (c *Context) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := c.api.GetFile(ctx, fileID)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues("getFile", "error").Inc()
		c.logger.Error("fetch_failed", "method", "getFile", "kind", c.kind.Label(), "trace_id", c.traceID, "error", err.Error())
		c.notifyDegraded(ctx)
		return nil, err
	}
	metrics.APICallsTotal.WithLabelValues("getFile", "ok").Inc()
	return f, nil
}

// DownloadFile fetches the file behind a GetFile result, with the same
// notify-then-rethrow policy as GetFile.
func (c *Context) DownloadFile(ctx context.Context, filePath, dstPath string, maxBytes int64) (int64, error) {
	n, err := c.api.DownloadTo(ctx, filePath, dstPath, maxBytes)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues("downloadFile", "error").Inc()
		c.logger.Error("fetch_failed", "method", "downloadFile", "kind", c.kind.Label(), "trace_id", c.traceID, "error", err.Error())
		c.notifyDegraded(ctx)
		return n, err
	}
	metrics.APICallsTotal.WithLabelValues("downloadFile", "ok").Inc()
	return n, nil
}

// send guards every outbound reply call. Failures are logged, answered with
// one degraded notice, and absorbed: the handler pipeline never sees them.
func (c *Context) send(ctx context.Context, method string, params map[string]any) *CallResult {
	raw, err := c.api.Invoke(ctx, method, params)
	if err != nil {
		metrics.APICallsTotal.WithLabelValues(method, "error").Inc()
		c.logger.Error("send_failed", "method", method, "kind", c.kind.Label(), "trace_id", c.traceID, "error", err.Error())
		c.notifyDegraded(ctx)
		return nil
	}
	metrics.APICallsTotal.WithLabelValues(method, "ok").Inc()
	return &CallResult{Method: method, Params: params, Raw: raw}
}

// notifyDegraded attempts exactly one fallback text send through the same
// channel as the failed call. Its own failure is logged and dropped; it must
// never loop back into send.
func (c *Context) notifyDegraded(ctx context.Context) {
	chatID := c.ChatID()
	if c.kind == KindCallback {
		chatID = c.CallbackChatID()
	}
	if chatID == "" {
		return
	}
	params := map[string]any{
		"chat_id": chatID,
		"text":    c.notice,
	}
	if c.kind == KindBusinessMessage {
		if bc := c.BusinessConnectionID(); bc != "" {
			params["business_connection_id"] = bc
		}
	}
	metrics.DegradedNoticesTotal.Inc()
	if _, err := c.api.Invoke(ctx, "sendMessage", params); err != nil {
		c.logger.Error("degraded_notice_failed", "kind", c.kind.Label(), "trace_id", c.traceID, "error", err.Error())
	}
}

func applyTextOptions(params map[string]any, opts TextOptions) {
	if strings.TrimSpace(opts.ParseMode) != "" {
		params["parse_mode"] = strings.TrimSpace(opts.ParseMode)
	}
	if opts.DisableWebPagePreview {
		params["disable_web_page_preview"] = true
	}
	if opts.ReplyMarkup != nil {
		params["reply_markup"] = opts.ReplyMarkup
	}
}

func applyMediaOptions(params map[string]any, caption string, opts MediaOptions) {
	if strings.TrimSpace(caption) != "" {
		params["caption"] = caption
	}
	if strings.TrimSpace(opts.ParseMode) != "" {
		params["parse_mode"] = strings.TrimSpace(opts.ParseMode)
	}
	if opts.ReplyMarkup != nil {
		params["reply_markup"] = opts.ReplyMarkup
	}
}
