package transfer

import "encoding/json"

// TiktokEnvelope is the response shape shared by every Marketing API call.
// Code zero means success; anything else is a business error.
type TiktokEnvelope struct {
	Code      *int64          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type TiktokCampaignCreateRequest struct {
	AdvertiserID  string  `json:"advertiser_id"`
	CampaignName  string  `json:"campaign_name"`
	ObjectiveType string  `json:"objective_type"`
	BudgetMode    string  `json:"budget_mode"`
	Budget        float64 `json:"budget"`
}

type TiktokTargetingUpdateRequest struct {
	AdvertiserID  string         `json:"advertiser_id"`
	CampaignID    string         `json:"campaign_id"`
	TargetingList map[string]any `json:"targeting_list"`
}

type TiktokCampaignStatusRequest struct {
	AdvertiserID    string   `json:"advertiser_id"`
	CampaignIDs     []string `json:"campaign_ids"`
	OperationStatus string   `json:"operation_status"`
}

type TiktokReportFilter struct {
	FieldName  string   `json:"field_name"`
	FilterType string   `json:"filter_type"`
	FieldValue []string `json:"field_value"`
}

type TiktokReportRequest struct {
	AdvertiserID string               `json:"advertiser_id"`
	ServiceType  string               `json:"service_type"`
	DataLevel    string               `json:"data_level"`
	Dimensions   []string             `json:"dimensions"`
	Metrics      []string             `json:"metrics"`
	Filters      []TiktokReportFilter `json:"filters"`
}

const (
	TiktokBudgetModeInfinite = "BUDGET_MODE_INFINITE"
	TiktokUploadTypeImage    = "UPLOAD_TYPE_IMAGE"
	TiktokUploadTypeVideo    = "UPLOAD_TYPE_VIDEO"
	TiktokStatusEnable       = "ENABLE"
	TiktokStatusDisable      = "DISABLE"
)
