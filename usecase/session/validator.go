package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ValidatorConfig controls how often the session is re-checked.
type ValidatorConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Validator re-checks the session against the backend on a schedule.
type Validator struct {
	store  *Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ValidatorConfig
}

func NewValidator(store *Store, logger *zap.Logger, cfg ValidatorConfig) *Validator {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &Validator{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	secs := int(cfg.Interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	_, _ = v.cron.AddFunc(fmt.Sprintf("@every %ds", secs), v.run)

	return v
}

// Start launches the scheduler.
func (v *Validator) Start() {
	if v == nil || v.cron == nil {
		return
	}
	v.cron.Start()
	v.logger.Info("session validator started", zap.Duration("interval", v.cfg.Interval))
}

// Stop waits for a running check to finish or ctx to expire.
func (v *Validator) Stop(ctx context.Context) {
	if v == nil || v.cron == nil {
		return
	}
	stopCtx := v.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	v.logger.Info("session validator stopped")
}

func (v *Validator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), v.cfg.Timeout)
	defer cancel()
	if err := v.store.Validate(ctx); err != nil {
		v.logger.Warn("session validation ended the session", zap.Error(err))
	}
}
