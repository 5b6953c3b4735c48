package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	config "github.com/maheshrc27/adsync/configs"
	"github.com/maheshrc27/adsync/internal/models"
	"github.com/maheshrc27/adsync/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type serviceFixture struct {
	svc       CampaignService
	tt        *MockTiktokService
	store     *memoryStore
	campaigns fakeCampaignRepository
	creatives fakeCreativeRepository
	history   fakeSyncHistoryRepository
}

func testAccount() transfer.AccountContext {
	return transfer.AccountContext{
		AdvertiserID: "adv-1",
		Credential:   oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}),
	}
}

func newServiceFixture(t *testing.T, archive CreativeArchive) *serviceFixture {
	t.Helper()
	store := newMemoryStore()
	f := &serviceFixture{
		tt:        new(MockTiktokService),
		store:     store,
		campaigns: fakeCampaignRepository{s: store},
		creatives: fakeCreativeRepository{s: store},
		history:   fakeSyncHistoryRepository{s: store},
	}
	f.svc = NewCampaignService(testAccount(), f.tt, f.campaigns, f.creatives, f.history, archive)
	return f
}

func (f *serviceFixture) seedCampaign(t *testing.T, remoteID string, status string) *models.Campaign {
	t.Helper()
	c := &models.Campaign{Name: "seeded", Objective: models.DefaultObjective, Status: status}
	if remoteID != "" {
		c.RemoteID = &remoteID
	}
	stored, err := f.campaigns.Upsert(context.Background(), c)
	require.NoError(t, err)
	return stored
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestCreateCampaignActivatesOnRemoteSuccess(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.CreateCampaignParams{Name: "Launch", Objective: "REACH"}).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "r1", Payload: map[string]any{"campaign_id": "r1"}}, nil).Once()

	result, err := f.svc.CreateCampaign(context.Background(), &transfer.CampaignCreation{Name: "Launch"})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	require.NotNil(t, result.Campaign.RemoteID)
	assert.Equal(t, "r1", *result.Campaign.RemoteID)
	assert.Equal(t, models.CampaignStatusActive, result.Campaign.Status)

	stored, err := f.campaigns.GetByID(context.Background(), result.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, stored.Status)

	history, err := f.svc.History(context.Background(), result.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].OK)
	assert.Equal(t, string(transfer.OpCreateCampaign), history[0].Operation)
	f.tt.AssertExpectations(t)
}

func TestCreateCampaignRemoteFailureLeavesCampaignInactive(t *testing.T) {
	f := newServiceFixture(t, nil)
	envelope := map[string]any{"code": int64(40002), "message": "invalid objective"}
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: false, Code: 40002, RawError: "invalid objective", Payload: envelope}, nil).Once()

	_, err := f.svc.CreateCampaign(context.Background(), &transfer.CampaignCreation{Name: "Broken", Objective: "NOPE"})

	var rbe *RemoteBusinessError
	require.ErrorAs(t, err, &rbe)
	assert.Equal(t, int64(40002), rbe.Code)
	assert.Equal(t, envelope, rbe.Payload)

	local, err := f.campaigns.GetByName(context.Background(), "Broken")
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Nil(t, local.RemoteID)
	assert.Equal(t, models.CampaignStatusInactive, local.Status)
	assert.Equal(t, "NOPE", local.Objective)
}

func TestCreateCampaignRejectsEmptyName(t *testing.T) {
	f := newServiceFixture(t, nil)

	_, err := f.svc.CreateCampaign(context.Background(), &transfer.CampaignCreation{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.campaigns.count())
	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCampaignTwiceKeepsSingleLocalRecord(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "r1"}, nil).Once()
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "r2"}, nil).Once()
	ctx := context.Background()

	first, err := f.svc.CreateCampaign(ctx, &transfer.CampaignCreation{Name: "Same"})
	require.NoError(t, err)
	second, err := f.svc.CreateCampaign(ctx, &transfer.CampaignCreation{Name: "Same"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.campaigns.count())
	assert.Equal(t, first.Campaign.ID, second.Campaign.ID)
	assert.True(t, second.Duplicate)
	assert.Equal(t, "r2", second.DuplicateRemoteID)
	assert.Equal(t, "r1", *second.Campaign.RemoteID)

	history, err := f.svc.History(ctx, first.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[1].Duplicate)
	f.tt.AssertNumberOfCalls(t, "Invoke", 2)
}

func TestCreateCampaignRetryReusesUnlinkedRecord(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: false, Code: 50000, RawError: "internal"}, nil).Once()
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "r9"}, nil).Once()
	ctx := context.Background()

	_, err := f.svc.CreateCampaign(ctx, &transfer.CampaignCreation{Name: "Retry"})
	require.Error(t, err)

	result, err := f.svc.CreateCampaign(ctx, &transfer.CampaignCreation{Name: "Retry"})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, 1, f.campaigns.count())
	assert.Equal(t, models.CampaignStatusActive, result.Campaign.Status)
}

func TestCreateCampaignTransportErrorPropagates(t *testing.T) {
	f := newServiceFixture(t, nil)
	transportErr := &TransportError{Operation: transfer.OpCreateCampaign, Err: errors.New("connection refused")}
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil, transportErr).Once()

	_, err := f.svc.CreateCampaign(context.Background(), &transfer.CampaignCreation{Name: "Offline"})

	var te *TransportError
	require.ErrorAs(t, err, &te)
	local, _ := f.campaigns.GetByName(context.Background(), "Offline")
	require.NotNil(t, local)
	assert.Nil(t, local.RemoteID)
	assert.Equal(t, models.CampaignStatusInactive, local.Status)
}

func TestLinkedOperationsRequireRemoteID(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "", models.CampaignStatusInactive)
	ctx := context.Background()

	err := f.svc.SetTargeting(ctx, &transfer.TargetingUpdate{CampaignID: campaign.ID, TargetingParams: map[string]any{"age": []int{18, 25}}})
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = f.svc.ChangeStatus(ctx, campaign.ID, transfer.ActionStart)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = f.svc.GetReport(ctx, campaign.ID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	assert.ErrorIs(t, f.svc.CheckStatusChange(ctx, campaign.ID, transfer.ActionStop), ErrPreconditionFailed)

	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestOperationsOnMissingCampaign(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()
	path := writeTempFile(t, "a.png", []byte("plain bytes"))

	_, err := f.svc.UploadCreative(ctx, &transfer.CreativeUpload{CampaignID: "missing", FilePath: path})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.SetTargeting(ctx, &transfer.TargetingUpdate{CampaignID: "missing"}), ErrNotFound)

	_, err = f.svc.ChangeStatus(ctx, "missing", transfer.ActionStart)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CampaignInfo(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadCreativeMissingCampaignWinsOverBadFile(t *testing.T) {
	f := newServiceFixture(t, nil)

	_, err := f.svc.UploadCreative(context.Background(), &transfer.CreativeUpload{
		CampaignID: "missing",
		FilePath:   filepath.Join(t.TempDir(), "not-here.png"),
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetTargetingSendsRemoteCampaignID(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	targeting := map[string]any{"gender": "male"}
	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.SetTargetingParams{RemoteCampaignID: "r1", Targeting: targeting}).
		Return(&transfer.NormalizedResult{OK: true, Payload: map[string]any{}}, nil).Once()

	err := f.svc.SetTargeting(context.Background(), &transfer.TargetingUpdate{CampaignID: campaign.ID, TargetingParams: targeting})
	require.NoError(t, err)

	stored, _ := f.campaigns.GetByID(context.Background(), campaign.ID)
	assert.Equal(t, campaign.UpdatedAt, stored.UpdatedAt, "targeting is not tracked locally")
	f.tt.AssertExpectations(t)
}

func TestChangeStatusUpdatesLocalStatusOnSuccess(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	ctx := context.Background()

	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.ChangeStatusParams{RemoteCampaignID: "r1", Enable: false}).
		Return(&transfer.NormalizedResult{OK: true}, nil).Once()
	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.ChangeStatusParams{RemoteCampaignID: "r1", Enable: true}).
		Return(&transfer.NormalizedResult{OK: true}, nil).Once()

	stopped, err := f.svc.ChangeStatus(ctx, campaign.ID, "stop")
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusInactive, stopped.Status)

	started, err := f.svc.ChangeStatus(ctx, campaign.ID, transfer.ActionStart)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, started.Status)
	f.tt.AssertExpectations(t)
}

func TestChangeStatusRemoteFailureKeepsStatus(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusInactive)
	envelope := map[string]any{"code": int64(40001), "message": "rate limited"}
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: false, Code: 40001, RawError: "rate limited", Payload: envelope}, nil).Once()

	_, err := f.svc.ChangeStatus(context.Background(), campaign.ID, transfer.ActionStart)

	var rbe *RemoteBusinessError
	require.ErrorAs(t, err, &rbe)
	assert.Equal(t, "rate limited", rbe.Message)
	assert.Equal(t, envelope, rbe.Payload)

	stored, _ := f.campaigns.GetByID(context.Background(), campaign.ID)
	assert.Equal(t, models.CampaignStatusInactive, stored.Status)

	history, _ := f.svc.History(context.Background(), campaign.ID)
	require.Len(t, history, 1)
	assert.False(t, history[0].OK)
	assert.Equal(t, int64(40001), history[0].RemoteCode)
}

func TestChangeStatusRejectsUnknownAction(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)

	_, err := f.svc.ChangeStatus(context.Background(), campaign.ID, "PAUSE")
	assert.ErrorIs(t, err, ErrValidation)
	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetReportReturnsPayloadVerbatim(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	payload := map[string]any{"list": []any{map[string]any{"metrics": map[string]any{"spend": "1.00"}}}}
	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.GetReportParams{RemoteCampaignID: "r1"}).
		Return(&transfer.NormalizedResult{OK: true, Payload: payload}, nil).Once()

	report, err := f.svc.GetReport(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, report)
}

func TestUploadCreativeStoresRemoteFields(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "", models.CampaignStatusInactive)
	path := writeTempFile(t, "a.png", pngHeader)
	f.tt.On("Invoke", mock.Anything, mock.Anything, transfer.UploadCreativeParams{Kind: models.CreativeKindImage, FilePath: path}).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "c1", Payload: map[string]any{"creative_id": "c1", "file_url": "https://cdn/a.png"}}, nil).Once()

	creative, err := f.svc.UploadCreative(context.Background(), &transfer.CreativeUpload{CampaignID: campaign.ID, FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, "c1", *creative.RemoteID)
	assert.Equal(t, "https://cdn/a.png", *creative.RemoteFileURL)
	assert.Equal(t, path, creative.LocalFilePath)
	assert.Equal(t, models.CreativeKindImage, creative.Kind)
	assert.Nil(t, creative.ArchiveKey)

	info, err := f.svc.CampaignInfo(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.Len(t, info.Creatives, 1)
}

func TestUploadCreativeRemoteFailureStoresNothing(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	path := writeTempFile(t, "clip.mp4", []byte("opaque"))
	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: false, Code: 40100, RawError: "file too large"}, nil).Once()

	_, err := f.svc.UploadCreative(context.Background(), &transfer.CreativeUpload{CampaignID: campaign.ID, CreativeType: "VIDEO", FilePath: path})
	var rbe *RemoteBusinessError
	require.ErrorAs(t, err, &rbe)

	creatives, _ := f.creatives.ListByCampaignID(context.Background(), campaign.ID)
	assert.Empty(t, creatives)
}

func TestUploadCreativeValidation(t *testing.T) {
	f := newServiceFixture(t, nil)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	png := writeTempFile(t, "a.png", pngHeader)

	cases := []struct {
		name string
		in   transfer.CreativeUpload
	}{
		{name: "missing campaign id", in: transfer.CreativeUpload{FilePath: png}},
		{name: "missing file path", in: transfer.CreativeUpload{CampaignID: campaign.ID}},
		{name: "unknown creative type", in: transfer.CreativeUpload{CampaignID: campaign.ID, CreativeType: "GIF", FilePath: png}},
		{name: "file does not exist", in: transfer.CreativeUpload{CampaignID: campaign.ID, FilePath: filepath.Join(t.TempDir(), "nope.png")}},
		{name: "directory", in: transfer.CreativeUpload{CampaignID: campaign.ID, FilePath: t.TempDir()}},
		{name: "image declared as video", in: transfer.CreativeUpload{CampaignID: campaign.ID, CreativeType: "VIDEO", FilePath: png}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			_, err := f.svc.UploadCreative(context.Background(), &in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	f.tt.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadCreativeArchivesSourceFile(t *testing.T) {
	archive := new(MockCreativeArchive)
	f := newServiceFixture(t, archive)
	campaign := f.seedCampaign(t, "r1", models.CampaignStatusActive)
	path := writeTempFile(t, "a.png", pngHeader)

	f.tt.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(&transfer.NormalizedResult{OK: true, RemoteID: "c1", Payload: map[string]any{"file_url": "https://cdn/a.png"}}, nil).Twice()
	archive.On("ArchiveCreative", mock.Anything, campaign.ID, path).Return("creatives/x/a.png", nil).Once()
	archive.On("ArchiveCreative", mock.Anything, campaign.ID, path).Return("", errors.New("bucket unavailable")).Once()

	archived, err := f.svc.UploadCreative(context.Background(), &transfer.CreativeUpload{CampaignID: campaign.ID, FilePath: path})
	require.NoError(t, err)
	require.NotNil(t, archived.ArchiveKey)
	assert.Equal(t, "creatives/x/a.png", *archived.ArchiveKey)

	unarchived, err := f.svc.UploadCreative(context.Background(), &transfer.CreativeUpload{CampaignID: campaign.ID, FilePath: path})
	require.NoError(t, err, "archive failure must not undo a confirmed upload")
	assert.Nil(t, unarchived.ArchiveKey)
	assert.Equal(t, "c1", *unarchived.RemoteID)
	archive.AssertExpectations(t)
}

func TestUploadCreativeRoundTripThroughGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/open_api/v1.3/file/upload/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":{"creative_id":"c1","file_url":"https://cdn/a.png"}}`))
	}))
	defer server.Close()

	var cfg config.Config
	cfg.Tiktok.BaseURL = server.URL + "/open_api/v1.3/"
	store := newMemoryStore()
	campaigns := fakeCampaignRepository{s: store}
	svc := NewCampaignService(testAccount(), NewTiktokService(cfg, server.Client()), campaigns,
		fakeCreativeRepository{s: store}, fakeSyncHistoryRepository{s: store}, nil)

	campaign, err := campaigns.Upsert(context.Background(), &models.Campaign{Name: "X", Objective: "REACH", Status: models.CampaignStatusInactive})
	require.NoError(t, err)
	path := writeTempFile(t, "a.png", pngHeader)

	creative, err := svc.UploadCreative(context.Background(), &transfer.CreativeUpload{CampaignID: campaign.ID, CreativeType: "IMAGE", FilePath: path})
	require.NoError(t, err)
	assert.Equal(t, "c1", *creative.RemoteID)
	assert.Equal(t, "https://cdn/a.png", *creative.RemoteFileURL)
}
