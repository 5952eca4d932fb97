package telegram

import "strings"

// Kind is the discrete tag assigned to an update by Classify. Every routing
// decision downstream keys on it.
type Kind string

const (
	KindNone            Kind = ""
	KindMessage         Kind = "message"
	KindPhoto           Kind = "photo"
	KindInline          Kind = "inline"
	KindDocument        Kind = "document"
	KindCallback        Kind = "callback"
	KindBusinessMessage Kind = "business_message"
)

// Classify maps an update to exactly one kind. The precedence is fixed: a
// payload that structurally satisfies several predicates resolves to the
// first match, so photo beats text, text beats inline, and so on. Callers
// must not reorder these cases.
func Classify(u *Update) Kind {
	switch {
	case u == nil:
		return KindNone
	case u.Message != nil && len(u.Message.Photo) > 0:
		return KindPhoto
	case u.Message != nil && strings.TrimSpace(u.Message.Text) != "":
		return KindMessage
	case u.InlineQuery != nil && strings.TrimSpace(u.InlineQuery.Query) != "":
		return KindInline
	case u.Message != nil && u.Message.Document != nil:
		return KindDocument
	case u.CallbackQuery != nil && strings.TrimSpace(u.CallbackQuery.ID) != "":
		return KindCallback
	case u.BusinessMessage != nil:
		return KindBusinessMessage
	default:
		return KindNone
	}
}

// Label returns a stable metrics/log label; KindNone reads as "none".
func (k Kind) Label() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}
