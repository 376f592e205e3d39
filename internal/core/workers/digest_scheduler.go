package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const digestRunTimeout = 10 * time.Minute

type DigestSender interface {
	SendWeeklyDigests(ctx context.Context, asOf time.Time) (domain.DigestReport, error)
}

// DigestScheduler triggers the weekly digest on a cron schedule.
type DigestScheduler struct {
	cron   *cron.Cron
	sender DigestSender
	logger *logrus.Logger
	ctx    context.Context
}

func NewDigestScheduler(spec string, sender DigestSender, logger *logrus.Logger) (*DigestScheduler, error) {
	cronLogger := cron.PrintfLogger(logger)

	s := &DigestScheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		sender: sender,
		logger: logger,
		ctx:    context.Background(),
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("digest scheduler: invalid schedule %q: %w", spec, err)
	}

	return s, nil
}

func (s *DigestScheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("digest scheduler started")
}

// Stop waits for a running digest to finish.
func (s *DigestScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("digest scheduler stopped")
}

func (s *DigestScheduler) run() {
	ctx, cancel := context.WithTimeout(s.ctx, digestRunTimeout)
	defer cancel()

	if _, err := s.sender.SendWeeklyDigests(ctx, time.Now().UTC()); err != nil {
		s.logger.WithError(err).Error("weekly digest failed")
	}
}
