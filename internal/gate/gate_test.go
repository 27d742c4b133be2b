package gate

import (
	"context"
	"errors"
	"testing"
)

type fakeQuerier struct {
	status string
	err    error

	gotChannel string
	gotUser    int64
}

func (f *fakeQuerier) MemberStatus(_ context.Context, channel string, userID int64) (string, error) {
	f.gotChannel = channel
	f.gotUser = userID
	return f.status, f.err
}

func TestCheckByStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status string
		want   Decision
	}{
		{status: "creator", want: Allowed},
		{status: "administrator", want: Allowed},
		{status: "member", want: Allowed},
		{status: "restricted", want: Denied},
		{status: "left", want: Denied},
		{status: "kicked", want: Denied},
		{status: "", want: Denied},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			q := &fakeQuerier{status: tt.status}
			g := New(q, "@channel")
			got, err := g.Check(context.Background(), 42)
			if err != nil {
				t.Fatalf("Check error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Check(%q) = %v, want %v", tt.status, got, tt.want)
			}
			if q.gotChannel != "@channel" || q.gotUser != 42 {
				t.Fatalf("query routed to %s/%d", q.gotChannel, q.gotUser)
			}
		})
	}
}

func TestCheckPlatformError(t *testing.T) {
	t.Parallel()
	q := &fakeQuerier{err: errors.New("Bad Request: chat not found")}
	g := New(q, "@channel")

	got, err := g.Check(context.Background(), 42)
	if got != Denied {
		t.Fatalf("decision = %v, want Denied", got)
	}
	var pe *PlatformError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T, want *PlatformError", err)
	}
	if pe.Detail != "Bad Request: chat not found" {
		t.Fatalf("detail = %q", pe.Detail)
	}
}
