package queue

import (
	"github.com/maheshrc27/adsync/internal/service"
)

type Queue struct {
	cs service.CampaignService
}

func NewQueue(cs service.CampaignService) *Queue {
	return &Queue{cs: cs}
}

const TaskTypeCampaignStatus = "campaign:status"

type CampaignStatusPayload struct {
	CampaignID string `json:"campaign_id"`
	Action     string `json:"action"`
}
