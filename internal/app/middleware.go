package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string // "/start", "/broadcast", "/cancel"; empty for plain messages
}

func newRequest(up kit.Update) *Request {
	req := &Request{Update: up}
	switch up.Kind {
	case kit.UpdateMessage:
		if m := up.Message; m != nil {
			req.Chat = kit.ChatTarget{ChatID: m.ChatID}
			req.FromID = m.FromID
			req.Command = commandName(m.Text)
		}
	case kit.UpdateCallback:
		if cb := up.Callback; cb != nil {
			req.Chat = kit.ChatTarget{ChatID: cb.ChatID}
			req.FromID = cb.FromID
		}
	}
	return req
}

// commandName extracts a leading bot command ("/broadcast@bot_name arg" ->
// "/broadcast"). Empty for non-command text.
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0]
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered",
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			d := time.Since(start)

			fields := []logx.Field{
				logx.String("kind", string(req.Update.Kind)),
				logx.Int64("chat_id", req.Chat.ChatID),
				logx.Int64("from_id", req.FromID),
				logx.String("cmd", req.Command),
				logx.Duration("dur", d),
			}
			if err != nil {
				log.Warn("request failed", append(fields, logx.Err(err))...)
			} else {
				// Keep INFO useful: short successful requests go to DEBUG.
				if d >= 750*time.Millisecond {
					log.Info("request ok", fields...)
				} else {
					log.Debug("request ok", fields...)
				}
			}
			return err
		}
	}
}
