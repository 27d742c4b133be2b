package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/hermitdesu/anod-check-bot/internal/config"
	"github.com/hermitdesu/anod-check-bot/internal/storage"
	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

type sentText struct {
	ChatID int64
	Text   string
	Opt    *kit.SendOptions
}

// fakeAdapter records outbound traffic and serves canned membership answers.
type fakeAdapter struct {
	mu sync.Mutex

	status    string
	statusErr error
	copyErr   map[int64]error

	texts     []sentText
	docs      []int64
	copies    []int64
	answered  []string
	docFileID string
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{ChatID: to.ChatID, Text: text, Opt: opt})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.texts)}, nil
}

func (f *fakeAdapter) SendDocument(_ context.Context, to kit.ChatTarget, _ kit.DocumentRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, to.ChatID)
	return f.docFileID, nil
}

func (f *fakeAdapter) CopyMessage(_ context.Context, to kit.ChatTarget, _ kit.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copies = append(f.copies, to.ChatID)
	if err, ok := f.copyErr[to.ChatID]; ok {
		return err
	}
	return nil
}

func (f *fakeAdapter) MemberStatus(context.Context, string, int64) (string, error) {
	return f.status, f.statusErr
}

func (f *fakeAdapter) AnswerCallback(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, id)
	return nil
}

func (f *fakeAdapter) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1].Text
}

func newTestApp(t *testing.T, ad *fakeAdapter) (*App, storage.Store) {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "memory"}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open error: %v", err)
	}
	cfg := &config.Config{
		Channel:   "@official_anod",
		AdminIDs:  []int64{7},
		Document:  config.DocumentConfig{FileID: "BQAC"},
		Broadcast: config.BroadcastConfig{Pace: "0s"},
	}
	return New(cfg, nil, nil, ad, st, logx.Nop()), st
}

func message(from int64, text string) kit.Update {
	return kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{
		ID:       100,
		ChatID:   from,
		FromID:   from,
		FromName: "Tester",
		Text:     text,
	}}
}

func checkCallback(from int64) kit.Update {
	return kit.Update{Kind: kit.UpdateCallback, Callback: &kit.Callback{
		ID:     "cb1",
		ChatID: from,
		FromID: from,
		Data:   "check",
	}}
}

func dispatch(t *testing.T, a *App, up kit.Update) {
	t.Helper()
	_ = a.route(context.Background(), newRequest(up))
}

func directory(t *testing.T, st storage.Store) []int64 {
	t.Helper()
	ids, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestStartRegistersAndGreets(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)

	dispatch(t, a, message(42, "/start"))

	if ids := directory(t, st); len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("directory = %v, want [42]", ids)
	}
	if len(ad.texts) != 1 {
		t.Fatalf("sent %d texts, want 1", len(ad.texts))
	}
	greet := ad.texts[0]
	if !strings.Contains(greet.Text, "<b>Tester</b>") || !strings.Contains(greet.Text, "https://t.me/official_anod") {
		t.Fatalf("greeting = %q", greet.Text)
	}
	if greet.Opt == nil || len(greet.Opt.InlineActions) != 1 || greet.Opt.InlineActions[0].Data != "check" {
		t.Fatalf("greeting actions = %+v", greet.Opt)
	}
}

func TestCheckAllowedDeliversDocument(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{status: "member"}
	a, st := newTestApp(t, ad)

	dispatch(t, a, message(42, "/start"))
	dispatch(t, a, checkCallback(42))

	if len(ad.docs) != 1 || ad.docs[0] != 42 {
		t.Fatalf("documents sent to %v, want [42]", ad.docs)
	}
	if ids := directory(t, st); len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("directory = %v, want [42]", ids)
	}
	if len(ad.answered) != 1 {
		t.Fatalf("callback answered %d times, want 1", len(ad.answered))
	}
}

func TestCheckDeniedWithholdsDocument(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{status: "left"}
	a, _ := newTestApp(t, ad)

	dispatch(t, a, checkCallback(42))

	if len(ad.docs) != 0 {
		t.Fatalf("document sent to %v despite denial", ad.docs)
	}
	if got := ad.lastText(); got != textNotSubscribed {
		t.Fatalf("reply = %q, want %q", got, textNotSubscribed)
	}
	if len(ad.answered) != 1 {
		t.Fatalf("callback answered %d times, want 1", len(ad.answered))
	}
}

func TestCheckPlatformErrorSurfaced(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{statusErr: errors.New("Bad Request: chat not found")}
	a, _ := newTestApp(t, ad)

	dispatch(t, a, checkCallback(42))

	if len(ad.docs) != 0 {
		t.Fatalf("document sent despite platform error")
	}
	got := ad.lastText()
	if !strings.HasPrefix(got, "Произошла ошибка.") || !strings.Contains(got, "chat not found") {
		t.Fatalf("reply = %q", got)
	}
}

func TestBroadcastFanOut(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)

	for _, id := range []int64{42, 99} {
		if err := st.Register(context.Background(), id); err != nil {
			t.Fatalf("Register error: %v", err)
		}
	}

	dispatch(t, a, message(7, "/broadcast"))
	if got := ad.lastText(); got != textBroadcastPrompt {
		t.Fatalf("prompt = %q", got)
	}
	dispatch(t, a, message(7, "Hello"))

	sort.Slice(ad.copies, func(i, j int) bool { return ad.copies[i] < ad.copies[j] })
	if len(ad.copies) != 2 || ad.copies[0] != 42 || ad.copies[1] != 99 {
		t.Fatalf("copied to %v, want [42 99]", ad.copies)
	}
	if got, want := ad.lastText(), "Успешно: 2\nНе доставлено: 0"; got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{copyErr: map[int64]error{
		99: fmt.Errorf("%w: blocked", kit.ErrRecipientUnreachable),
	}}
	a, st := newTestApp(t, ad)

	for _, id := range []int64{42, 99, 100} {
		_ = st.Register(context.Background(), id)
	}

	dispatch(t, a, message(7, "/broadcast"))
	dispatch(t, a, message(7, "Hello"))

	if len(ad.copies) != 3 {
		t.Fatalf("copied to %d recipients, want all 3", len(ad.copies))
	}
	if got, want := ad.lastText(), "Успешно: 2\nНе доставлено: 1"; got != want {
		t.Fatalf("summary = %q, want %q", got, want)
	}
}

func TestBroadcastCancel(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)
	_ = st.Register(context.Background(), 42)

	dispatch(t, a, message(7, "/broadcast"))
	dispatch(t, a, message(7, "/cancel"))
	if got := ad.lastText(); got != textBroadcastCancel {
		t.Fatalf("reply = %q, want %q", got, textBroadcastCancel)
	}

	// The would-be payload is now just a plain message.
	dispatch(t, a, message(7, "Hello"))
	if len(ad.copies) != 0 {
		t.Fatalf("broadcast executed after cancel: %v", ad.copies)
	}

	dispatch(t, a, message(7, "/cancel"))
	if got := ad.lastText(); got != textNothingToCancel {
		t.Fatalf("reply = %q, want %q", got, textNothingToCancel)
	}
}

func TestBroadcastUnauthorizedIsSilent(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)
	_ = st.Register(context.Background(), 42)

	dispatch(t, a, message(42, "/broadcast"))
	dispatch(t, a, message(42, "Hello"))

	if len(ad.texts) != 0 || len(ad.copies) != 0 {
		t.Fatalf("unauthorized broadcast produced output: texts=%v copies=%v", ad.texts, ad.copies)
	}
}

func TestPayloadFromOtherUserIgnored(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)
	_ = st.Register(context.Background(), 42)

	dispatch(t, a, message(7, "/broadcast"))
	dispatch(t, a, message(42, "not the payload"))

	if len(ad.copies) != 0 {
		t.Fatalf("non-owner message captured as payload: %v", ad.copies)
	}
	// The owner's session must still be live.
	dispatch(t, a, message(7, "Hello"))
	if len(ad.copies) != 1 {
		t.Fatalf("owner payload not broadcast, copies=%v", ad.copies)
	}
}

func TestConcurrentPayloadsTriggerOneRun(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	a, st := newTestApp(t, ad)
	_ = st.Register(context.Background(), 42)

	const rounds = 100
	for i := 0; i < rounds; i++ {
		dispatch(t, a, message(7, "/broadcast"))

		// Updates are handled in their own goroutines, so duplicate payload
		// messages can race for the same session. Exactly one must win.
		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dispatch(t, a, message(7, "Hello"))
			}()
		}
		wg.Wait()
	}

	ad.mu.Lock()
	copies := len(ad.copies)
	ad.mu.Unlock()
	if copies != rounds {
		t.Fatalf("broadcast delivered %d copies over %d sessions, want exactly one run per session", copies, rounds)
	}
}

func TestCommandName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "/start", want: "/start"},
		{in: "/broadcast@anod_bot", want: "/broadcast"},
		{in: "  /CANCEL  ", want: "/cancel"},
		{in: "hello", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := commandName(tt.in); got != tt.want {
			t.Fatalf("commandName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
