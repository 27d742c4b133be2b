// Package app wires the bot together and routes inbound updates: the /start
// greeting, the subscription gate callback, and the admin broadcast workflow.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/hermitdesu/anod-check-bot/internal/broadcast"
	"github.com/hermitdesu/anod-check-bot/internal/config"
	"github.com/hermitdesu/anod-check-bot/internal/gate"
	"github.com/hermitdesu/anod-check-bot/internal/storage"
	kit "github.com/hermitdesu/anod-check-bot/internal/transport"
	logx "github.com/hermitdesu/anod-check-bot/pkg/logx"
)

type App struct {
	log  logx.Logger
	logs *logx.Service // nil in tests
	mgr  *config.Manager

	adapter  kit.Adapter
	store    storage.Store
	gate     *gate.Gate
	sessions *broadcast.Sessions
	executor *broadcast.Executor

	// guarded by mu; replaced on config reload
	mu          sync.RWMutex
	admins      map[int64]struct{}
	document    kit.DocumentRef
	channelLink string

	updates chan kit.Update
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg *config.Config, mgr *config.Manager, logs *logx.Service, ad kit.Adapter, st storage.Store, log logx.Logger) *App {
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &App{
		log:      log,
		logs:     logs,
		mgr:      mgr,
		adapter:  ad,
		store:    st,
		gate:     gate.New(ad, cfg.Channel),
		sessions: broadcast.NewSessions(cfg.SessionTTL()),
		executor: broadcast.NewExecutor(ad, cfg.Pace(), log.With(logx.String("comp", "broadcast"))),
	}
	a.applyConfig(cfg)
	return a
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.updates = make(chan kit.Update, 64)

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		cancel()
		return err
	}

	handler := Chain(a.route,
		MWPanicRecover(a.log),
		MWRequestLog(a.log),
	)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case up := <-a.updates:
				// Distinct users' updates may be handled concurrently;
				// session mutation is serialized inside the registry.
				a.wg.Add(1)
				go func(up kit.Update) {
					defer a.wg.Done()
					req := newRequest(up)
					_ = handler(runCtx, req)
				}(up)
			}
		}
	}()

	if a.mgr != nil {
		reloads := a.mgr.Subscribe(1)
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			if err := a.mgr.Watch(runCtx); err != nil {
				a.log.Warn("config watch stopped", logx.Err(err))
			}
		}()
		go func() {
			defer a.wg.Done()
			defer a.mgr.Unsubscribe(reloads)
			for {
				select {
				case <-runCtx.Done():
					return
				case cfg := <-reloads:
					if cfg != nil {
						a.applyConfig(cfg)
					}
				}
			}
		}()
	}

	a.log.Info("bot started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	err := a.adapter.Stop(ctx)
	a.wg.Wait()
	a.log.Info("bot stopped")
	return err
}

// applyConfig installs the hot-reloadable part of the config: admin list,
// document reference, channel link, pacing, and log sinks.
func (a *App) applyConfig(cfg *config.Config) {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	a.mu.Lock()
	a.admins = admins
	a.document = kit.DocumentRef{
		Path:   cfg.Document.Path,
		Name:   cfg.Document.Name,
		FileID: cfg.Document.FileID,
	}
	a.channelLink = channelLink(cfg.Channel)
	a.mu.Unlock()

	a.executor.SetPace(cfg.Pace())
	if a.logs != nil {
		a.logs.Apply(logx.Config{
			Level:   cfg.Logging.Level,
			Console: cfg.ConsoleLogging(),
			File: logx.FileConfig{
				Enabled: cfg.Logging.File.Enabled,
				Path:    cfg.Logging.File.Path,
			},
		})
	}
}

func (a *App) isAdmin(id int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.admins[id]
	return ok
}

func channelLink(channel string) string {
	if name, ok := strings.CutPrefix(channel, "@"); ok {
		return "https://t.me/" + name
	}
	return channel
}
