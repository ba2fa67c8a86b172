package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeZReportRebuild regenerates a Z-report that failed to issue
	// after a period close.
	TaskTypeZReportRebuild = "zreport:rebuild"
	// TaskTypeStaleScan flags work periods left open past the configured age.
	TaskTypeStaleScan = "workperiod:stale_scan"
)

// ZReportRebuildPayload identifies the closed period whose report is missing.
type ZReportRebuildPayload struct {
	PeriodID string `json:"period_id"`
}

// NewZReportRebuildTask constructs an Asynq task.
func NewZReportRebuildTask(payload ZReportRebuildPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeZReportRebuild, data), nil
}

// NewStaleScanTask constructs the cron-driven stale scan task.
func NewStaleScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeStaleScan, nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueZReportRebuild enqueues a rebuild for the given period.
func (c *Client) EnqueueZReportRebuild(ctx context.Context, periodID uuid.UUID) error {
	task, err := NewZReportRebuildTask(ZReportRebuildPayload{PeriodID: periodID.String()})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(10))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
