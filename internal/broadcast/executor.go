package broadcast

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

const defaultPace = 50 * time.Millisecond

// MessageCopier is the subset of the transport adapter the executor needs.
type MessageCopier interface {
	CopyMessage(ctx context.Context, to kit.ChatTarget, src kit.MessageRef) error
}

// Report aggregates one run. Per-recipient outcomes are not persisted.
type Report struct {
	Delivered int
	Failed    int
}

type Executor struct {
	copier MessageCopier
	log    logx.Logger

	limiter *rate.Limiter
}

// NewExecutor builds an executor pacing one send per `pace`.
// pace <= 0 disables pacing (tests).
func NewExecutor(copier MessageCopier, pace time.Duration, log logx.Logger) *Executor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Executor{
		copier:  copier,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(pace), 1),
	}
}

// SetPace replaces the pacing interval (config hot reload).
func (e *Executor) SetPace(pace time.Duration) {
	e.limiter.SetLimit(rate.Every(pace))
}

// Run replicates src to every recipient, sequentially. Each recipient fault
// is counted and logged, never escalated; the run only stops early when ctx
// is cancelled. There is no partial-run persistence: an interrupted run is
// restarted manually.
func (e *Executor) Run(ctx context.Context, recipients []int64, src kit.MessageRef) Report {
	start := time.Now()
	e.log.Info("broadcast run started", logx.Int("total", len(recipients)))

	var rep Report
	for _, id := range recipients {
		if err := e.limiter.Wait(ctx); err != nil {
			e.log.Warn("broadcast run interrupted", logx.Err(err),
				logx.Int("delivered", rep.Delivered), logx.Int("failed", rep.Failed))
			return rep
		}
		err := e.copier.CopyMessage(ctx, kit.ChatTarget{ChatID: id}, src)
		switch {
		case err == nil:
			rep.Delivered++
		case errors.Is(err, kit.ErrRecipientUnreachable):
			rep.Failed++
			e.log.Debug("recipient unreachable", logx.Int64("user_id", id), logx.Err(err))
		default:
			rep.Failed++
			e.log.Warn("broadcast send failed", logx.Int64("user_id", id), logx.Err(err))
		}
	}

	fields := []logx.Field{
		logx.Int("total", len(recipients)),
		logx.Int("delivered", rep.Delivered),
		logx.Int("failed", rep.Failed),
		logx.Duration("dur", time.Since(start)),
	}
	if rep.Failed > 0 {
		e.log.Warn("broadcast run finished with failures", fields...)
	} else {
		e.log.Info("broadcast run finished", fields...)
	}
	return rep
}
