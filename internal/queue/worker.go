package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleCampaignStatusTask(ctx context.Context, task *asynq.Task) error {
	var payload CampaignStatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	campaign, err := q.cs.ChangeStatus(ctx, payload.CampaignID, payload.Action)
	if err != nil {
		slog.Warn("scheduled status change failed",
			"campaign_id", payload.CampaignID, "action", payload.Action, "error", err)
		return err
	}

	slog.Info("scheduled status change applied",
		"campaign_id", campaign.ID, "status", campaign.Status)
	return nil
}
