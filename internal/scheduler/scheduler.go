package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/engine"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
)

const runTimeout = 2 * time.Minute

// SnapshotStore persists daily KPI snapshots.
type SnapshotStore interface {
	SaveKPISnapshots(ctx context.Context, snapshots []models.KPISnapshot) error
}

// SnapshotSheet mirrors daily KPI snapshots into a spreadsheet.
type SnapshotSheet interface {
	Append(ctx context.Context, snapshots []models.KPISnapshot) (int, error)
}

// Notifier delivers the daily digest.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	store        SnapshotStore
	sheet        SnapshotSheet
	notifier     Notifier
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. store, sheet and notifier
// are optional; a nil one skips its step of the daily run.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, store SnapshotStore, sheet SnapshotSheet, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithLocation(reportingSvc.Location()))

	return &Scheduler{
		cron:         c,
		reportingSvc: reportingSvc,
		store:        store,
		sheet:        sheet,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the daily report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunOnce refreshes every dataset from the API, then records today's KPI
// snapshots and sends the digest. A failed sink is logged and the remaining
// sinks still run; their errors are joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("generating daily report")

	forced := reporting.ForceFetch(ctx)
	g, gctx := errgroup.WithContext(forced)
	for _, dataset := range models.Datasets {
		dataset := dataset
		g.Go(func() error {
			_, err := s.reportingSvc.Refresh(gctx, dataset, engine.Filter{})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh datasets: %w", err)
	}

	snapshots, err := s.reportingSvc.DailySnapshots(ctx)
	if err != nil {
		return fmt.Errorf("compute daily snapshots: %w", err)
	}

	var errs []error
	if s.store != nil {
		if err := s.store.SaveKPISnapshots(ctx, snapshots); err != nil {
			s.logger.Error("failed to save kpi snapshots", zap.Error(err))
			errs = append(errs, fmt.Errorf("save snapshots: %w", err))
		}
	}

	if s.sheet != nil {
		added, err := s.sheet.Append(ctx, snapshots)
		if err != nil {
			s.logger.Error("failed to append kpi sheet", zap.Error(err))
			errs = append(errs, fmt.Errorf("append sheet: %w", err))
		} else {
			s.logger.Info("kpi sheet updated", zap.Int("rows", added))
		}
	}

	if s.notifier != nil && s.cfg.WhatsApp.ManagerRecipient != "" {
		req := models.OutboundMessageRequest{
			To:      s.cfg.WhatsApp.ManagerRecipient,
			Message: reporting.FormatDigest(snapshots),
		}
		if err := s.notifier.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send daily digest", zap.Error(err))
			errs = append(errs, fmt.Errorf("send digest: %w", err))
		} else {
			s.logger.Info("daily digest sent successfully")
		}
	}

	return errors.Join(errs...)
}
