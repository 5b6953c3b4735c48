package transfer

import "golang.org/x/oauth2"

type Operation string

const (
	OpCreateCampaign Operation = "CreateCampaign"
	OpUploadCreative Operation = "UploadCreative"
	OpSetTargeting   Operation = "SetTargeting"
	OpChangeStatus   Operation = "ChangeStatus"
	OpGetReport      Operation = "GetReport"
)

// AccountContext identifies the advertiser account a call acts on.
type AccountContext struct {
	AdvertiserID string
	Credential   oauth2.TokenSource
}

// GatewayParams is implemented by the per-operation parameter structs below.
type GatewayParams interface {
	Operation() Operation
}

type CreateCampaignParams struct {
	Name      string
	Objective string
}

type UploadCreativeParams struct {
	Kind     string
	FilePath string
}

type SetTargetingParams struct {
	RemoteCampaignID string
	Targeting        map[string]any
}

type ChangeStatusParams struct {
	RemoteCampaignID string
	Enable           bool
}

type GetReportParams struct {
	RemoteCampaignID string
}

func (CreateCampaignParams) Operation() Operation { return OpCreateCampaign }
func (UploadCreativeParams) Operation() Operation { return OpUploadCreative }
func (SetTargetingParams) Operation() Operation   { return OpSetTargeting }
func (ChangeStatusParams) Operation() Operation   { return OpChangeStatus }
func (GetReportParams) Operation() Operation      { return OpGetReport }

// NormalizedResult is what the gateway hands back for every completed
// exchange. On success Payload holds the envelope's data object; on failure
// it holds the whole envelope.
type NormalizedResult struct {
	OK       bool
	Code     int64
	RemoteID string
	Payload  map[string]any
	RawError string
}
