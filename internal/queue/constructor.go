package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used to defer work.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueCampaignStatus defers a START/STOP by delay. The task is not retried:
// a failed status change is recorded in sync history and left to the caller.
func EnqueueCampaignStatus(enq Enqueuer, payload CampaignStatusPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeCampaignStatus, taskPayload)

	info, err := enq.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(0))
	if err != nil {
		return err
	}

	slog.Info("campaign status change scheduled",
		"task_id", info.ID,
		"campaign_id", payload.CampaignID,
		"action", payload.Action,
		"delay", delay.String(),
	)
	return nil
}
