package app

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/hermitdesu/anod-check-bot/internal/gate"
	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

const (
	textNotSubscribed   = "Вы не подписаны на канал!"
	textGenericFailure  = "Произошла ошибка. Попробуйте позже."
	textBroadcastPrompt = "Отправьте сообщение для рассылки."
	textBroadcastCancel = "Рассылка отменена."
	textNothingToCancel = "Нет активной рассылки."

	callbackCheck = "check"
)

func (a *App) route(ctx context.Context, req *Request) error {
	switch req.Update.Kind {
	case kit.UpdateCallback:
		if req.Update.Callback == nil {
			return nil
		}
		return a.handleCallback(ctx, req)
	case kit.UpdateMessage:
		if req.Update.Message == nil {
			return nil
		}
		switch req.Command {
		case "/start":
			return a.handleStart(ctx, req)
		case "/broadcast":
			return a.handleBroadcastCmd(ctx, req)
		case "/cancel":
			return a.handleCancelCmd(ctx, req)
		default:
			return a.handlePayload(ctx, req)
		}
	}
	return nil
}

func (a *App) handleStart(ctx context.Context, req *Request) error {
	if err := a.store.Register(ctx, req.FromID); err != nil {
		a.log.Error("register failed", logx.Int64("user_id", req.FromID), logx.Err(err))
		_, _ = a.adapter.SendText(ctx, req.Chat, textGenericFailure, nil)
		return err
	}

	a.mu.RLock()
	link := a.channelLink
	a.mu.RUnlock()

	name := html.EscapeString(req.Update.Message.FromName)
	greeting := fmt.Sprintf(
		"Привет, <b>%s</b>, чтобы получить доступ к материалу подпишись на наш канал: %s",
		name, link,
	)
	_, err := a.adapter.SendText(ctx, req.Chat, greeting, &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
		InlineActions:  []kit.InlineAction{{Label: "Я подписался!", Data: callbackCheck}},
	})
	return err
}

func (a *App) handleCallback(ctx context.Context, req *Request) error {
	cb := req.Update.Callback
	// Always clear the button spinner, whatever the verdict.
	defer func() {
		_ = a.adapter.AnswerCallback(ctx, cb.ID)
	}()

	if cb.Data != callbackCheck {
		return nil
	}

	decision, err := a.gate.Check(ctx, req.FromID)
	if err != nil {
		var pe *gate.PlatformError
		if errors.As(err, &pe) {
			_, _ = a.adapter.SendText(ctx, req.Chat, "Произошла ошибка. "+pe.Detail, nil)
			return nil
		}
		_, _ = a.adapter.SendText(ctx, req.Chat, textGenericFailure, nil)
		return err
	}
	if decision != gate.Allowed {
		_, err := a.adapter.SendText(ctx, req.Chat, textNotSubscribed, nil)
		return err
	}

	if err := a.store.Register(ctx, req.FromID); err != nil {
		a.log.Error("register failed", logx.Int64("user_id", req.FromID), logx.Err(err))
		_, _ = a.adapter.SendText(ctx, req.Chat, textGenericFailure, nil)
		return err
	}
	return a.sendDocument(ctx, req.Chat)
}

func (a *App) sendDocument(ctx context.Context, to kit.ChatTarget) error {
	a.mu.RLock()
	doc := a.document
	a.mu.RUnlock()

	fileID, err := a.adapter.SendDocument(ctx, to, doc)
	if err != nil {
		_, _ = a.adapter.SendText(ctx, to, textGenericFailure, nil)
		return err
	}

	// First delivery uploads from disk; keep the returned file_id so later
	// deliveries skip the upload, and tell the operator to pin it in config.
	if doc.FileID == "" && fileID != "" {
		a.mu.Lock()
		if a.document.FileID == "" {
			a.document.FileID = fileID
			a.log.Info("document file_id obtained; pin it in config", logx.String("file_id", fileID))
		}
		a.mu.Unlock()
	}
	return nil
}

func (a *App) handleBroadcastCmd(ctx context.Context, req *Request) error {
	if !a.isAdmin(req.FromID) {
		// Silent by design: an explicit denial would reveal which ids are
		// administrators.
		a.log.Debug("unauthorized broadcast command", logx.Int64("from_id", req.FromID))
		return nil
	}

	if reopened := a.sessions.Open(req.FromID); reopened {
		a.log.Debug("broadcast session reset", logx.Int64("admin_id", req.FromID))
	}
	_, err := a.adapter.SendText(ctx, req.Chat, textBroadcastPrompt, nil)
	return err
}

func (a *App) handleCancelCmd(ctx context.Context, req *Request) error {
	if !a.isAdmin(req.FromID) {
		a.log.Debug("unauthorized cancel command", logx.Int64("from_id", req.FromID))
		return nil
	}

	text := textNothingToCancel
	if a.sessions.Close(req.FromID) {
		text = textBroadcastCancel
	}
	_, err := a.adapter.SendText(ctx, req.Chat, text, nil)
	return err
}

// handlePayload fires the fan-out when an admin with an open session sends
// any message. Everyone else's plain messages are ignored.
func (a *App) handlePayload(ctx context.Context, req *Request) error {
	// Close is the guard: it consumes the session atomically, so two
	// near-simultaneous payload messages cannot both trigger a run.
	if !a.isAdmin(req.FromID) || !a.sessions.Close(req.FromID) {
		return nil
	}

	recipients, err := a.store.ListAll(ctx)
	if err != nil {
		a.log.Error("directory snapshot failed", logx.Err(err))
		_, _ = a.adapter.SendText(ctx, req.Chat, textGenericFailure, nil)
		return err
	}

	msg := req.Update.Message
	rep := a.executor.Run(ctx, recipients, kit.MessageRef{ChatID: msg.ChatID, MessageID: msg.ID})

	summary := fmt.Sprintf("Успешно: %d\nНе доставлено: %d", rep.Delivered, rep.Failed)
	_, err = a.adapter.SendText(ctx, req.Chat, summary, nil)
	return err
}
