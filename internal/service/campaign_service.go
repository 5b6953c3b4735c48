package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/adsync/internal/models"
	"github.com/maheshrc27/adsync/internal/repository"
	"github.com/maheshrc27/adsync/internal/transfer"
)

// CampaignService keeps local campaigns and creatives in step with the
// remote platform. Local state is written only after the platform confirms.
type CampaignService interface {
	CreateCampaign(ctx context.Context, cc *transfer.CampaignCreation) (*CreateCampaignResult, error)
	UploadCreative(ctx context.Context, cu *transfer.CreativeUpload) (*models.Creative, error)
	SetTargeting(ctx context.Context, tu *transfer.TargetingUpdate) error
	ChangeStatus(ctx context.Context, campaignID, action string) (*models.Campaign, error)
	CheckStatusChange(ctx context.Context, campaignID, action string) error
	GetReport(ctx context.Context, campaignID string) (map[string]any, error)
	CampaignInfo(ctx context.Context, campaignID string) (*CampaignInfo, error)
	History(ctx context.Context, campaignID string) ([]*models.SyncHistory, error)
}

type CreateCampaignResult struct {
	Campaign *models.Campaign
	// Duplicate is set when the campaign already had a remote id and the
	// platform created a second remote campaign anyway.
	Duplicate         bool
	DuplicateRemoteID string
}

type CampaignInfo struct {
	Campaign  *models.Campaign   `json:"campaign"`
	Creatives []*models.Creative `json:"creatives"`
}

type campaignService struct {
	account transfer.AccountContext
	tt      TiktokService
	cr      repository.CampaignRepository
	cv      repository.CreativeRepository
	sh      repository.SyncHistoryRepository
	archive CreativeArchive
	locks   *keyedMutex
}

// NewCampaignService wires the synchronizer. archive may be nil when no
// object storage is configured.
func NewCampaignService(
	account transfer.AccountContext,
	tt TiktokService,
	cr repository.CampaignRepository,
	cv repository.CreativeRepository,
	sh repository.SyncHistoryRepository,
	archive CreativeArchive) CampaignService {
	return &campaignService{
		account: account,
		tt:      tt,
		cr:      cr,
		cv:      cv,
		sh:      sh,
		archive: archive,
		locks:   newKeyedMutex(),
	}
}

func (s *campaignService) CreateCampaign(ctx context.Context, cc *transfer.CampaignCreation) (*CreateCampaignResult, error) {
	if cc == nil {
		return nil, validationError("campaign creation data is nil")
	}
	name := strings.TrimSpace(cc.Name)
	if name == "" {
		err := validationError("name is required")
		slog.Info(err.Error())
		return nil, err
	}
	objective := strings.TrimSpace(cc.Objective)
	if objective == "" {
		objective = models.DefaultObjective
	}

	unlock := s.locks.Lock("name:" + name)
	defer unlock()

	campaign, err := s.cr.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		campaign, err = s.cr.Upsert(ctx, &models.Campaign{
			Name:      name,
			Objective: objective,
			Status:    models.CampaignStatusInactive,
		})
		if err != nil {
			return nil, err
		}
	}

	unlockCampaign := s.locks.Lock(campaign.ID)
	defer unlockCampaign()

	result, err := s.invoke(ctx, campaign.ID, transfer.CreateCampaignParams{
		Name:      campaign.Name,
		Objective: campaign.Objective,
	})
	if err != nil {
		return nil, err
	}

	if campaign.HasRemote() {
		slog.Warn("platform created a duplicate remote campaign",
			"campaign_id", campaign.ID,
			"remote_id", *campaign.RemoteID,
			"duplicate_remote_id", result.RemoteID,
		)
		s.record(ctx, campaign.ID, transfer.OpCreateCampaign, result, nil, true)
		return &CreateCampaignResult{
			Campaign:          campaign,
			Duplicate:         true,
			DuplicateRemoteID: result.RemoteID,
		}, nil
	}

	remoteID := result.RemoteID
	campaign.RemoteID = &remoteID
	campaign.Status = models.CampaignStatusActive

	stored, err := s.cr.Upsert(ctx, campaign)
	if err != nil {
		slog.Error("remote campaign created but local update failed",
			"campaign_id", campaign.ID, "remote_id", remoteID, "error", err)
		return nil, err
	}
	s.record(ctx, stored.ID, transfer.OpCreateCampaign, result, nil, false)

	return &CreateCampaignResult{Campaign: stored}, nil
}

func (s *campaignService) UploadCreative(ctx context.Context, cu *transfer.CreativeUpload) (*models.Creative, error) {
	if cu == nil {
		return nil, validationError("creative upload data is nil")
	}
	if cu.CampaignID == "" {
		return nil, validationError("campaign_id is required")
	}
	kind := strings.ToUpper(strings.TrimSpace(cu.CreativeType))
	if kind == "" {
		kind = models.CreativeKindImage
	}
	if kind != models.CreativeKindImage && kind != models.CreativeKindVideo {
		return nil, validationError("creative_type must be IMAGE or VIDEO, got %q", cu.CreativeType)
	}
	if cu.FilePath == "" {
		return nil, validationError("file_path is required")
	}

	unlock := s.locks.Lock(cu.CampaignID)
	defer unlock()

	campaign, err := s.cr.GetByID(ctx, cu.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrNotFound
	}

	if err := validateCreativeFile(cu.FilePath, kind); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	result, err := s.invoke(ctx, campaign.ID, transfer.UploadCreativeParams{
		Kind:     kind,
		FilePath: cu.FilePath,
	})
	if err != nil {
		return nil, err
	}

	remoteID := result.RemoteID
	creative := &models.Creative{
		CampaignID:    campaign.ID,
		RemoteID:      &remoteID,
		Kind:          kind,
		LocalFilePath: cu.FilePath,
	}
	if fileURL, ok := stringField(result.Payload, "file_url"); ok {
		creative.RemoteFileURL = &fileURL
	}

	if s.archive != nil {
		key, err := s.archive.ArchiveCreative(ctx, campaign.ID, cu.FilePath)
		if err != nil {
			slog.Warn("creative archive failed", "campaign_id", campaign.ID, "remote_id", remoteID, "error", err)
		} else {
			creative.ArchiveKey = &key
		}
	}

	stored, err := s.cv.Upsert(ctx, creative)
	if err != nil {
		slog.Error("remote creative uploaded but local insert failed",
			"campaign_id", campaign.ID, "remote_id", remoteID, "error", err)
		return nil, err
	}
	s.record(ctx, campaign.ID, transfer.OpUploadCreative, result, nil, false)

	return stored, nil
}

func (s *campaignService) SetTargeting(ctx context.Context, tu *transfer.TargetingUpdate) error {
	if tu == nil {
		return validationError("targeting data is nil")
	}
	if tu.CampaignID == "" {
		return validationError("campaign_id is required")
	}

	unlock := s.locks.Lock(tu.CampaignID)
	defer unlock()

	campaign, err := s.loadLinked(ctx, tu.CampaignID)
	if err != nil {
		return err
	}

	targeting := tu.TargetingParams
	if targeting == nil {
		targeting = map[string]any{}
	}

	result, err := s.invoke(ctx, campaign.ID, transfer.SetTargetingParams{
		RemoteCampaignID: *campaign.RemoteID,
		Targeting:        targeting,
	})
	if err != nil {
		return err
	}
	s.record(ctx, campaign.ID, transfer.OpSetTargeting, result, nil, false)
	return nil
}

func (s *campaignService) ChangeStatus(ctx context.Context, campaignID, action string) (*models.Campaign, error) {
	enable, err := parseAction(action)
	if err != nil {
		return nil, err
	}
	if campaignID == "" {
		return nil, validationError("campaign_id is required")
	}

	unlock := s.locks.Lock(campaignID)
	defer unlock()

	campaign, err := s.loadLinked(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result, err := s.invoke(ctx, campaign.ID, transfer.ChangeStatusParams{
		RemoteCampaignID: *campaign.RemoteID,
		Enable:           enable,
	})
	if err != nil {
		return nil, err
	}

	campaign.Status = models.CampaignStatusInactive
	if enable {
		campaign.Status = models.CampaignStatusActive
	}

	stored, err := s.cr.Upsert(ctx, campaign)
	if err != nil {
		slog.Error("remote status changed but local update failed",
			"campaign_id", campaign.ID, "status", campaign.Status, "error", err)
		return nil, err
	}
	s.record(ctx, campaign.ID, transfer.OpChangeStatus, result, nil, false)

	return stored, nil
}

// CheckStatusChange runs ChangeStatus's preconditions without calling the
// platform. Used before deferring a status change to the queue.
func (s *campaignService) CheckStatusChange(ctx context.Context, campaignID, action string) error {
	if _, err := parseAction(action); err != nil {
		return err
	}
	if campaignID == "" {
		return validationError("campaign_id is required")
	}
	_, err := s.loadLinked(ctx, campaignID)
	return err
}

func (s *campaignService) GetReport(ctx context.Context, campaignID string) (map[string]any, error) {
	if campaignID == "" {
		return nil, validationError("campaign_id is required")
	}

	campaign, err := s.loadLinked(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result, err := s.invoke(ctx, campaign.ID, transfer.GetReportParams{RemoteCampaignID: *campaign.RemoteID})
	if err != nil {
		return nil, err
	}
	s.record(ctx, campaign.ID, transfer.OpGetReport, result, nil, false)

	return result.Payload, nil
}

func (s *campaignService) CampaignInfo(ctx context.Context, campaignID string) (*CampaignInfo, error) {
	campaign, err := s.cr.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrNotFound
	}

	creatives, err := s.cv.ListByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	if creatives == nil {
		creatives = []*models.Creative{}
	}

	return &CampaignInfo{Campaign: campaign, Creatives: creatives}, nil
}

func (s *campaignService) History(ctx context.Context, campaignID string) ([]*models.SyncHistory, error) {
	campaign, err := s.cr.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrNotFound
	}

	history, err := s.sh.ListByCampaignID(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.SyncHistory{}
	}
	return history, nil
}

// loadLinked fetches a campaign that must already exist on the platform.
func (s *campaignService) loadLinked(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.cr.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrNotFound
	}
	if !campaign.HasRemote() {
		return nil, ErrPreconditionFailed
	}
	return campaign, nil
}

// invoke calls the gateway and converts a business failure into a
// RemoteBusinessError. Failed calls are recorded here; successful ones are
// recorded by the caller once local state reflects them.
func (s *campaignService) invoke(ctx context.Context, campaignID string, params transfer.GatewayParams) (*transfer.NormalizedResult, error) {
	op := params.Operation()

	result, err := s.tt.Invoke(ctx, s.account, params)
	if err != nil {
		s.record(ctx, campaignID, op, nil, err, false)
		return nil, err
	}

	if !result.OK {
		slog.Warn("remote platform rejected operation",
			"operation", op, "campaign_id", campaignID, "code", result.Code, "message", result.RawError)
		s.record(ctx, campaignID, op, result, nil, false)
		return nil, &RemoteBusinessError{
			Operation: op,
			Code:      result.Code,
			Message:   result.RawError,
			Payload:   result.Payload,
		}
	}

	return result, nil
}

// record appends to the sync history. It never fails the operation.
func (s *campaignService) record(ctx context.Context, campaignID string, op transfer.Operation, result *transfer.NormalizedResult, callErr error, duplicate bool) {
	if s.sh == nil {
		return
	}

	entry := &models.SyncHistory{
		CampaignID: campaignID,
		Operation:  string(op),
		Duplicate:  duplicate,
	}
	switch {
	case callErr != nil:
		entry.ErrorMessage = callErr.Error()
	case result != nil:
		entry.OK = result.OK
		entry.RemoteCode = result.Code
		entry.ErrorMessage = result.RawError
	}

	if _, err := s.sh.Create(ctx, entry); err != nil {
		slog.Warn("failed to record sync history", "campaign_id", campaignID, "operation", op, "error", err)
	}
}

func parseAction(action string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case transfer.ActionStart:
		return true, nil
	case transfer.ActionStop:
		return false, nil
	}
	return false, validationError("action must be START or STOP, got %q", action)
}

func validateCreativeFile(path, kind string) error {
	if path == "" {
		return validationError("file_path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return validationError("file %s does not exist", path)
		}
		return validationError("file %s is not readable: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return validationError("file %s is not a regular file", path)
	}

	sniffed := sniffFile(path)
	if sniffed == filetype.Unknown {
		return nil
	}
	switch {
	case kind == models.CreativeKindVideo && sniffed.MIME.Type == "image":
		return validationError("file %s is an image but creative_type is VIDEO", path)
	case kind == models.CreativeKindImage && sniffed.MIME.Type == "video":
		return validationError("file %s is a video but creative_type is IMAGE", path)
	}
	return nil
}
