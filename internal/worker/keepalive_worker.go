package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/config"
)

const keepAliveTimeout = 30 * time.Second

// KeepAliveJob issues a GET against the service's public URL so the hosting platform
// does not idle the process.
type KeepAliveJob struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewKeepAliveJob builds the job. A nil client gets a default with a request timeout.
func NewKeepAliveJob(url string, client *http.Client, logger *zap.Logger) *KeepAliveJob {
	if client == nil {
		client = &http.Client{Timeout: keepAliveTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeepAliveJob{url: url, client: client, logger: logger}
}

// Run satisfies cron.Job. Failures are logged and never stop the schedule.
func (j *KeepAliveJob) Run() {
	if err := j.ping(context.Background()); err != nil {
		j.logger.Warn("keep-alive ping failed", zap.String("url", j.url), zap.Error(err))
	}
}

func (j *KeepAliveJob) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return err
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	j.logger.Debug("keep-alive ping", zap.String("url", j.url), zap.Int("status", resp.StatusCode))
	return nil
}

// StartKeepAlive schedules the keep-alive job. It returns nil when no URL is configured.
func StartKeepAlive(cfg config.KeepAliveConfig, logger *zap.Logger) (*cron.Cron, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	c := cron.New()
	if _, err := c.AddJob(schedule, NewKeepAliveJob(cfg.URL, nil, logger)); err != nil {
		return nil, fmt.Errorf("schedule keep-alive %q: %w", schedule, err)
	}
	c.Start()
	logger.Info("keep-alive scheduled", zap.String("url", cfg.URL), zap.String("schedule", schedule))
	return c, nil
}
