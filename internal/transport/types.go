package transport

import (
	"context"
	"errors"
)

// ErrRecipientUnreachable marks a send/copy failure that is specific to one
// recipient: the user blocked the bot, never started it, or the request is
// malformed for that chat. Callers treat it as a per-recipient fault, not a
// transport outage.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromName     string
	FromUsername string
	Text         string
}

type Callback struct {
	ID        string
	FromID    int64
	ChatID    int64
	MessageID int
	Data      string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool

	// InlineActions renders a single row of inline buttons.
	// Each action becomes one button; Data is the callback payload.
	InlineActions []InlineAction
}

type InlineAction struct {
	Label string
	Data  string
}

// DocumentRef identifies the gated document. FileID (a platform re-upload
// handle) wins over Path when both are set.
type DocumentRef struct {
	Path   string
	Name   string
	FileID string
}

// Membership statuses as reported by the platform.
const (
	MemberCreator = "creator"
	MemberAdmin   = "administrator"
	MemberMember  = "member"
)

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)

	// SendDocument delivers the gated document and returns the platform
	// file id of the uploaded copy (empty if the platform does not report one).
	SendDocument(ctx context.Context, to ChatTarget, doc DocumentRef) (string, error)

	// CopyMessage replicates src to the target preserving its content type.
	CopyMessage(ctx context.Context, to ChatTarget, src MessageRef) error

	// MemberStatus reports the user's relationship with the given channel
	// ("creator", "administrator", "member", "restricted", "left", "kicked").
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)

	AnswerCallback(ctx context.Context, callbackID string) error
}
