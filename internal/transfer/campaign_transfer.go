package transfer

type CampaignCreation struct {
	Name      string `json:"name"`
	Objective string `json:"objective"`
}

type CreativeUpload struct {
	CampaignID   string `json:"campaign_id"`
	CreativeType string `json:"creative_type"`
	FilePath     string `json:"file_path"`
}

type TargetingUpdate struct {
	CampaignID      string         `json:"campaign_id"`
	TargetingParams map[string]any `json:"targeting_params"`
}

type CampaignSchedule struct {
	CampaignID    string `json:"campaign_id"`
	Action        string `json:"action"`
	ScheduledTime string `json:"scheduled_time"`
}

const (
	ActionStart = "START"
	ActionStop  = "STOP"
)
