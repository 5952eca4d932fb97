package telegram

import (
	"log/slog"
	"testing"
)

func testContext(t *testing.T, upd *Update) *Context {
	t.Helper()
	api := NewClient(nil, "http://127.0.0.1:0", "test-token")
	ctx, err := NewContext(api, upd, ContextOptions{Logger: slog.Default()})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return ctx
}

func TestNewContextValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewContext(nil, &Update{}, ContextOptions{}); err == nil {
		t.Fatalf("NewContext() expected error for nil client")
	}
	api := NewClient(nil, "", "test-token")
	if _, err := NewContext(api, nil, ContextOptions{}); err == nil {
		t.Fatalf("NewContext() expected error for nil update")
	}
}

func TestChatIDByKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		upd  *Update
		want string
	}{
		{
			name: "message kind uses message chat id",
			upd:  &Update{Message: &Message{MessageID: 7, Chat: &Chat{ID: 42}, Text: "hi"}},
			want: "42",
		},
		{
			name: "photo kind uses message chat id",
			upd:  &Update{Message: &Message{MessageID: 7, Chat: &Chat{ID: 42}, Photo: []PhotoSize{{FileID: "p"}}}},
			want: "42",
		},
		{
			name: "business kind uses business chat id",
			upd:  &Update{BusinessMessage: &Message{MessageID: 1, Chat: &Chat{ID: 9}, BusinessConnectionID: "bc1"}},
			want: "9",
		},
		{
			name: "inline kind has no addressable chat",
			upd:  &Update{InlineQuery: &InlineQuery{ID: "q1", Query: "x"}},
			want: "",
		},
		{
			name: "callback kind has no addressable chat via ChatID",
			upd:  &Update{CallbackQuery: &CallbackQuery{ID: "cb1", Message: &Message{Chat: &Chat{ID: 5}}}},
			want: "",
		},
		{
			name: "none kind",
			upd:  &Update{},
			want: "",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := testContext(t, tc.upd)
			if got := c.ChatID(); got != tc.want {
				t.Fatalf("ChatID() mismatch: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestMessageIDSentinel(t *testing.T) {
	t.Parallel()

	c := testContext(t, &Update{Message: &Message{MessageID: 7, Chat: &Chat{ID: 42}, Text: "hi"}})
	if got := c.MessageID(); got != "7" {
		t.Fatalf("MessageID() mismatch: got %q want %q", got, "7")
	}

	c = testContext(t, &Update{InlineQuery: &InlineQuery{ID: "q1", Query: "x"}})
	if got := c.MessageID(); got != "" {
		t.Fatalf("MessageID() sentinel mismatch: got %q want empty", got)
	}
}

func TestBusinessAndCallbackAccessors(t *testing.T) {
	t.Parallel()

	c := testContext(t, &Update{BusinessMessage: &Message{MessageID: 1, Chat: &Chat{ID: 9}, BusinessConnectionID: "bc1"}})
	if got := c.BusinessConnectionID(); got != "bc1" {
		t.Fatalf("BusinessConnectionID() mismatch: got %q want %q", got, "bc1")
	}

	c = testContext(t, &Update{CallbackQuery: &CallbackQuery{ID: "cb1", Message: &Message{Chat: &Chat{ID: 5}}, Data: "pick"}})
	if got := c.CallbackChatID(); got != "5" {
		t.Fatalf("CallbackChatID() mismatch: got %q want %q", got, "5")
	}
	if got := c.BusinessConnectionID(); got != "" {
		t.Fatalf("BusinessConnectionID() sentinel mismatch: got %q want empty", got)
	}

	c = testContext(t, &Update{InlineQuery: &InlineQuery{ID: "q1", Query: "x"}})
	if got := c.InlineQueryID(); got != "q1" {
		t.Fatalf("InlineQueryID() mismatch: got %q want %q", got, "q1")
	}
}

func TestUpdateText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		upd  *Update
		want string
	}{
		{"message text", &Update{Message: &Message{Text: " hi "}}, "hi"},
		{"photo caption", &Update{Message: &Message{Photo: []PhotoSize{{FileID: "p"}}, Caption: "look"}}, "look"},
		{"inline query", &Update{InlineQuery: &InlineQuery{ID: "q", Query: "weather"}}, "weather"},
		{"callback data", &Update{CallbackQuery: &CallbackQuery{ID: "cb", Data: "pick:1"}}, "pick:1"},
		{"business text", &Update{BusinessMessage: &Message{Text: "hello"}}, "hello"},
		{"empty", &Update{}, ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.upd.Text(); got != tc.want {
				t.Fatalf("Text() mismatch: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestBestPhotoPicksLargest(t *testing.T) {
	t.Parallel()

	upd := &Update{Message: &Message{Photo: []PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 800, Height: 600},
		{FileID: "medium", Width: 320, Height: 240},
	}}}
	best := upd.BestPhoto()
	if best == nil || best.FileID != "large" {
		t.Fatalf("BestPhoto() mismatch: got %+v want file id %q", best, "large")
	}
	if (&Update{}).BestPhoto() != nil {
		t.Fatalf("BestPhoto() on empty update must be nil")
	}
}
