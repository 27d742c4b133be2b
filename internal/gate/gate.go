// Package gate decides whether a user may receive the gated document.
//
// The gate is a pure query over the platform's membership lookup; persisting
// the user on an Allowed verdict is the caller's job, so the gate can be
// tested without a directory.
package gate

import (
	"context"
	"fmt"

	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
)

type Decision int

const (
	Denied Decision = iota
	Allowed
)

// PlatformError is a transport/API fault during the membership lookup.
// Detail is surfaced to the end user verbatim; the check is not retried.
type PlatformError struct {
	Detail string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform error: %s", e.Detail)
}

// MembershipQuerier is the subset of the transport adapter the gate needs.
type MembershipQuerier interface {
	MemberStatus(ctx context.Context, channel string, userID int64) (string, error)
}

type Gate struct {
	members MembershipQuerier
	channel string
}

func New(members MembershipQuerier, channel string) *Gate {
	return &Gate{members: members, channel: channel}
}

// Check reports whether the user's channel relationship grants access.
// Anything other than creator/administrator/member (left, kicked,
// restricted, unknown) is Denied.
func (g *Gate) Check(ctx context.Context, userID int64) (Decision, error) {
	status, err := g.members.MemberStatus(ctx, g.channel, userID)
	if err != nil {
		return Denied, &PlatformError{Detail: err.Error()}
	}
	switch status {
	case kit.MemberCreator, kit.MemberAdmin, kit.MemberMember:
		return Allowed, nil
	default:
		return Denied, nil
	}
}
