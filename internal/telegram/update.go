package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Update is one inbound event from the Bot API webhook. At most one of the
// variant fields is populated per instance; Classify resolves which one wins
// when a malformed payload populates several.
type Update struct {
	UpdateID        int64          `json:"update_id"`
	Message         *Message       `json:"message,omitempty"`
	BusinessMessage *Message       `json:"business_message,omitempty"`
	InlineQuery     *InlineQuery   `json:"inline_query,omitempty"`
	CallbackQuery   *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID            int64       `json:"message_id"`
	Date                 int64       `json:"date,omitempty"`
	Chat                 *Chat       `json:"chat,omitempty"`
	From                 *User       `json:"from,omitempty"`
	ReplyTo              *Message    `json:"reply_to_message,omitempty"`
	Text                 string      `json:"text,omitempty"`
	Caption              string      `json:"caption,omitempty"`
	Photo                []PhotoSize `json:"photo,omitempty"`
	Document             *Document   `json:"document,omitempty"`
	BusinessConnectionID string      `json:"business_connection_id,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"` // private|group|supergroup|channel
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type InlineQuery struct {
	ID     string `json:"id"`
	From   *User  `json:"from,omitempty"`
	Query  string `json:"query"`
	Offset string `json:"offset,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// ParseUpdate is the single validating parse step for webhook bodies.
func ParseUpdate(r io.Reader) (*Update, error) {
	if r == nil {
		return nil, fmt.Errorf("update body is required")
	}
	dec := json.NewDecoder(r)
	var upd Update
	if err := dec.Decode(&upd); err != nil {
		return nil, fmt.Errorf("parse update: %w", err)
	}
	return &upd, nil
}

// Text returns the user-authored text of the winning variant: message text or
// caption, the inline query string, or the callback data.
func (u *Update) Text() string {
	if u == nil {
		return ""
	}
	switch {
	case u.Message != nil && strings.TrimSpace(u.Message.Text) != "":
		return strings.TrimSpace(u.Message.Text)
	case u.Message != nil && strings.TrimSpace(u.Message.Caption) != "":
		return strings.TrimSpace(u.Message.Caption)
	case u.InlineQuery != nil:
		return strings.TrimSpace(u.InlineQuery.Query)
	case u.CallbackQuery != nil:
		return strings.TrimSpace(u.CallbackQuery.Data)
	case u.BusinessMessage != nil:
		return strings.TrimSpace(u.BusinessMessage.Text)
	default:
		return ""
	}
}

// BestPhoto returns the largest photo size of the message variant, if any.
func (u *Update) BestPhoto() *PhotoSize {
	if u == nil || u.Message == nil || len(u.Message.Photo) == 0 {
		return nil
	}
	best := u.Message.Photo[0]
	for _, p := range u.Message.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return &best
}
