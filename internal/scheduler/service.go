package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/newsletterhub/crosspromo/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const runTimeout = 30 * time.Minute

// Runner performs the scheduled matching pass
type Runner interface {
	RunMatchingForAll(ctx context.Context) error
}

// Service handles scheduling of matching runs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner Runner) (*Service, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %s: %w", cfg.TimeZone, err)
	}

	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(location)),
	}, nil
}

// Expression returns the cron expression for a schedule name
func Expression(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM
		return "0 0 9 * * *"
	default:
		// Run weekly on Monday at 9 AM
		return "0 0 9 * * MON"
	}
}

// Start begins the scheduled matching
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(Expression(s.config.MatchSchedule), s.run)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule", s.config.MatchSchedule)
	return nil
}

func (s *Service) run() {
	logrus.Info("Starting scheduled matching run")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.runner.RunMatchingForAll(ctx); err != nil {
		logrus.Errorf("Scheduled matching run failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
