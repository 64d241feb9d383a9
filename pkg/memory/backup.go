package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/vikasprajapat2/nexa/pkg/logger"
)

type cronChecker interface {
	IsValid(expr string) bool
	IsDue(expr string, ref ...time.Time) (bool, error)
}

// BackupScheduler snapshots the knowledge model on a cron expression.
type BackupScheduler struct {
	svc      *Service
	expr     string
	dir      string
	cron     cronChecker
	interval time.Duration
	now      func() time.Time
}

func NewBackupScheduler(svc *Service, expr, dir string) (*BackupScheduler, error) {
	expr = strings.TrimSpace(expr)
	if svc == nil {
		return nil, fmt.Errorf("memory service is required")
	}
	cron := gronx.New()
	if !cron.IsValid(expr) {
		return nil, fmt.Errorf("invalid backup cron expression %q", expr)
	}
	return &BackupScheduler{
		svc:      svc,
		expr:     expr,
		dir:      dir,
		cron:     cron,
		interval: time.Minute,
		now:      time.Now,
	}, nil
}

// Run checks the schedule once per interval until ctx is done.
func (b *BackupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.RunIfDue(ctx); err != nil {
				logger.WarnCF("memory", "Knowledge backup failed", map[string]interface{}{
					"dir":   b.dir,
					"error": err.Error(),
				})
			}
		}
	}
}

// RunIfDue writes a backup when the schedule matches the current minute.
func (b *BackupScheduler) RunIfDue(ctx context.Context) (string, error) {
	ref := b.now().Truncate(time.Minute)
	due, err := b.cron.IsDue(b.expr, ref)
	if err != nil {
		return "", fmt.Errorf("evaluate backup schedule: %w", err)
	}
	if !due {
		return "", nil
	}
	path, err := b.svc.Backup(ctx, b.dir)
	if err != nil {
		return "", err
	}
	logger.InfoCF("memory", "Knowledge backup written", map[string]interface{}{"path": path})
	return path, nil
}
