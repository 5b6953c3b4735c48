package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	config "github.com/maheshrc27/adsync/configs"
	"github.com/maheshrc27/adsync/internal/models"
	"github.com/maheshrc27/adsync/internal/transfer"
)

var errMalformedResponse = errors.New("malformed response")

// TiktokService is the gateway to the TikTok Marketing API. Each Invoke makes
// exactly one outbound request and never retries.
type TiktokService interface {
	Invoke(ctx context.Context, acct transfer.AccountContext, params transfer.GatewayParams) (*transfer.NormalizedResult, error)
}

type tiktokService struct {
	baseURL string
	client  *http.Client
}

func NewTiktokService(cfg config.Config, client *http.Client) TiktokService {
	if client == nil {
		client = &http.Client{Timeout: cfg.Tiktok.Timeout}
	}
	baseURL := cfg.Tiktok.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &tiktokService{baseURL: baseURL, client: client}
}

func (s *tiktokService) Invoke(ctx context.Context, acct transfer.AccountContext, params transfer.GatewayParams) (*transfer.NormalizedResult, error) {
	if acct.Credential == nil {
		return nil, fmt.Errorf("%w: no credential configured for advertiser account", ErrCredentials)
	}
	token, err := acct.Credential.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}

	req, err := s.buildRequest(ctx, acct.AdvertiserID, params)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Access-Token", token.AccessToken)

	op := params.Operation()
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("tiktok request failed", "operation", op, "error", err)
		return nil, &TransportError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("tiktok response read failed", "operation", op, "error", err)
		return nil, &TransportError{Operation: op, Err: err}
	}

	return normalize(op, resp.StatusCode, body)
}

func (s *tiktokService) buildRequest(ctx context.Context, advertiserID string, params transfer.GatewayParams) (*http.Request, error) {
	switch p := params.(type) {
	case transfer.CreateCampaignParams:
		return s.jsonRequest(ctx, "campaign/create/", transfer.TiktokCampaignCreateRequest{
			AdvertiserID:  advertiserID,
			CampaignName:  p.Name,
			ObjectiveType: p.Objective,
			BudgetMode:    transfer.TiktokBudgetModeInfinite,
			Budget:        0,
		})

	case transfer.UploadCreativeParams:
		return s.uploadRequest(ctx, advertiserID, p)

	case transfer.SetTargetingParams:
		targeting := p.Targeting
		if targeting == nil {
			targeting = map[string]any{}
		}
		return s.jsonRequest(ctx, "targeting/update/", transfer.TiktokTargetingUpdateRequest{
			AdvertiserID:  advertiserID,
			CampaignID:    p.RemoteCampaignID,
			TargetingList: targeting,
		})

	case transfer.ChangeStatusParams:
		status := transfer.TiktokStatusDisable
		if p.Enable {
			status = transfer.TiktokStatusEnable
		}
		return s.jsonRequest(ctx, "campaign/update/status/", transfer.TiktokCampaignStatusRequest{
			AdvertiserID:    advertiserID,
			CampaignIDs:     []string{p.RemoteCampaignID},
			OperationStatus: status,
		})

	case transfer.GetReportParams:
		return s.jsonRequest(ctx, "report/integrated/get/", transfer.TiktokReportRequest{
			AdvertiserID: advertiserID,
			ServiceType:  "AUCTION",
			DataLevel:    "CAMPAIGN",
			Dimensions:   []string{"campaign_id"},
			Metrics:      []string{"spend", "impressions", "clicks"},
			Filters: []transfer.TiktokReportFilter{{
				FieldName:  "campaign_id",
				FilterType: "IN",
				FieldValue: []string{p.RemoteCampaignID},
			}},
		})
	}

	return nil, fmt.Errorf("unsupported gateway operation %T", params)
}

func (s *tiktokService) jsonRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *tiktokService) uploadRequest(ctx context.Context, advertiserID string, p transfer.UploadCreativeParams) (*http.Request, error) {
	file, err := os.Open(p.FilePath)
	if err != nil {
		slog.Info(err.Error())
		return nil, validationError("creative file %s is not readable: %v", p.FilePath, err)
	}
	defer file.Close()

	uploadType := transfer.TiktokUploadTypeImage
	if p.Kind == models.CreativeKindVideo {
		uploadType = transfer.TiktokUploadTypeVideo
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("advertiser_id", advertiserID); err != nil {
		return nil, err
	}
	if err := writer.WriteField("upload_type", uploadType); err != nil {
		return nil, err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(p.FilePath)))
	header.Set("Content-Type", sniffMIME(p.FilePath))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read creative file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"file/upload/", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// normalize turns a raw platform response into a NormalizedResult. Only
// undecodable bodies and success envelopes missing the remote id are
// transport errors; everything with a code is a completed exchange.
func normalize(op transfer.Operation, statusCode int, body []byte) (*transfer.NormalizedResult, error) {
	var envelope transfer.TiktokEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == nil {
		slog.Error("tiktok response malformed", "operation", op, "status", statusCode)
		return nil, &TransportError{
			Operation: op,
			Err:       fmt.Errorf("%w: http status %d", errMalformedResponse, statusCode),
		}
	}

	full, err := decodeObject(body)
	if err != nil {
		return nil, &TransportError{Operation: op, Err: fmt.Errorf("%w: %v", errMalformedResponse, err)}
	}

	if *envelope.Code != 0 {
		return &transfer.NormalizedResult{
			OK:       false,
			Code:     *envelope.Code,
			Payload:  full,
			RawError: envelope.Message,
		}, nil
	}

	data, _ := full["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	result := &transfer.NormalizedResult{OK: true, Payload: data}

	var idKey string
	switch op {
	case transfer.OpCreateCampaign:
		idKey = "campaign_id"
	case transfer.OpUploadCreative:
		idKey = "creative_id"
	}
	if idKey != "" {
		remoteID, ok := stringField(data, idKey)
		if !ok {
			slog.Error("tiktok success response without remote id", "operation", op, "field", idKey)
			return nil, &TransportError{
				Operation: op,
				Err:       fmt.Errorf("%w: data.%s missing", errMalformedResponse, idKey),
			}
		}
		result.RemoteID = remoteID
	}

	return result, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// stringField reads an identifier that the platform may send as either a
// string or a number.
func stringField(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
