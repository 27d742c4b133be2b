package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	out     atomic.Value // stores (chan<- kit.Update)
	runMu   sync.Mutex
	running bool
	done    chan struct{}

	// droppedUpdates counts updates dropped because the consumer was slower
	// than the Telegram poll loop. Logged on Stop to avoid per-update spam.
	droppedUpdates uint64
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	// Ensure atomic.Value is initialized with a stable dynamic type.
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.registerHandlers()
	return a, nil
}

func (a *Adapter) registerHandlers() {
	// Handlers forward to the CURRENT output channel. Start() may swap it.
	onMessage := func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		up := kit.Update{
			Kind: kit.UpdateMessage,
			Message: &kit.Message{
				ID:           m.ID,
				ChatID:       m.Chat.ID,
				FromID:       m.Sender.ID,
				FromName:     displayName(m.Sender),
				FromUsername: m.Sender.Username,
				Text:         m.Text,
			},
		}
		a.sendUpdate(up)
		return nil
	}
	a.bot.Handle(tele.OnText, onMessage)
	// Media messages matter too: a broadcast payload may be a photo,
	// document or video, replicated later via CopyMessage.
	a.bot.Handle(tele.OnMedia, onMessage)

	a.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		m := c.Message()
		if cb == nil || cb.Sender == nil || m == nil {
			return nil
		}
		up := kit.Update{
			Kind: kit.UpdateCallback,
			Callback: &kit.Callback{
				ID:        cb.ID,
				ChatID:    m.Chat.ID,
				FromID:    cb.Sender.ID,
				MessageID: m.ID,
				Data:      strings.TrimSpace(cb.Data),
			},
		}
		a.sendUpdate(up)
		return nil
	})
}

func (a *Adapter) sendUpdate(up kit.Update) {
	v := a.out.Load()
	out, _ := v.(chan<- kit.Update)
	if out == nil {
		return
	}
	select {
	case out <- up:
	default:
		atomic.AddUint64(&a.droppedUpdates, 1)
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out.Store(out)
	a.done = make(chan struct{})
	done := a.done
	a.runMu.Unlock()

	// Stop telebot when the adapter context is cancelled.
	go func() {
		select {
		case <-ctx.Done():
			a.bot.Stop()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		a.log.Info("polling started")
		a.bot.Start() // blocks until Stop()
		a.log.Info("polling stopped")
	}()

	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	wasRunning := a.running
	a.running = false
	done := a.done
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
		a.log.Warn("incoming updates dropped (channel full)", logx.Any("count", n))
	}

	// telebot Stop is expected to be fast; run it async just in case and keep
	// shutdown snappy even if a getUpdates long-poll is still waiting.
	go a.bot.Stop()

	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		a.log.Warn("telegram stop timed out")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return kit.MessageRef{}, err
	}
	msg, err := a.bot.Send(tele.ChatID(to.ChatID), text, sendOptions(opt))
	if err != nil {
		return kit.MessageRef{}, classifySendErr(err)
	}
	return kit.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

func (a *Adapter) SendDocument(ctx context.Context, to kit.ChatTarget, doc kit.DocumentRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var d *tele.Document
	if doc.FileID != "" {
		d = &tele.Document{File: tele.File{FileID: doc.FileID}}
	} else {
		d = &tele.Document{File: tele.FromDisk(doc.Path), FileName: doc.Name}
	}
	msg, err := a.bot.Send(tele.ChatID(to.ChatID), d)
	if err != nil {
		return "", classifySendErr(err)
	}
	if msg.Document == nil {
		return "", nil
	}
	return msg.Document.FileID, nil
}

func (a *Adapter) CopyMessage(ctx context.Context, to kit.ChatTarget, src kit.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(src.MessageID),
		ChatID:    src.ChatID,
	}
	_, err := a.bot.Copy(tele.ChatID(to.ChatID), stored)
	return classifySendErr(err)
}

func (a *Adapter) MemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := a.bot.ChatMemberOf(chatRecipient(channel), tele.ChatID(userID))
	if err != nil {
		return "", err
	}
	return string(member.Role), nil
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{})
}

// chatRecipient addresses a channel either by numeric id or by @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

func displayName(u *tele.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func sendOptions(opt *kit.SendOptions) *tele.SendOptions {
	out := &tele.SendOptions{}
	if opt == nil {
		return out
	}
	out.ParseMode = opt.ParseMode
	out.DisableWebPagePreview = opt.DisablePreview
	if len(opt.InlineActions) > 0 {
		row := make([]tele.InlineButton, 0, len(opt.InlineActions))
		for _, act := range opt.InlineActions {
			row = append(row, tele.InlineButton{Text: act.Label, Data: act.Data})
		}
		out.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
	}
	return out
}

// classifySendErr maps per-recipient delivery refusals onto
// kit.ErrRecipientUnreachable so the broadcast loop can isolate them.
func classifySendErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tele.ErrBlockedByUser) ||
		errors.Is(err, tele.ErrUserIsDeactivated) ||
		errors.Is(err, tele.ErrChatNotFound) {
		return fmt.Errorf("%w: %v", kit.ErrRecipientUnreachable, err)
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		// Rate-limit pushback is a transport condition, not a recipient fault.
		return err
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 400 || apiErr.Code == 403) {
		return fmt.Errorf("%w: %v", kit.ErrRecipientUnreachable, err)
	}
	return err
}
