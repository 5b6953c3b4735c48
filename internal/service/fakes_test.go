package service

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/maheshrc27/adsync/internal/models"
	"github.com/maheshrc27/adsync/internal/transfer"
	"github.com/stretchr/testify/mock"
)

type MockTiktokService struct {
	mock.Mock
}

func (m *MockTiktokService) Invoke(ctx context.Context, acct transfer.AccountContext, params transfer.GatewayParams) (*transfer.NormalizedResult, error) {
	args := m.Called(ctx, acct, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.NormalizedResult), args.Error(1)
}

type MockCreativeArchive struct {
	mock.Mock
}

func (m *MockCreativeArchive) ArchiveCreative(ctx context.Context, campaignID, filePath string) (string, error) {
	args := m.Called(ctx, campaignID, filePath)
	return args.String(0), args.Error(1)
}

// memoryStore is an in-memory entity store shared by the fake repositories.
type memoryStore struct {
	mu        sync.Mutex
	seq       int
	campaigns map[string]models.Campaign
	creatives map[string]models.Creative
	history   []models.SyncHistory
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		campaigns: map[string]models.Campaign{},
		creatives: map[string]models.Creative{},
	}
}

func (s *memoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeCampaignRepository struct{ s *memoryStore }

func (r fakeCampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r fakeCampaignRepository) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *models.Campaign
	for _, c := range r.s.campaigns {
		if c.Name != name {
			continue
		}
		c := c
		if found == nil || (c.HasRemote() && !found.HasRemote()) {
			found = &c
		}
	}
	return found, nil
}

func (r fakeCampaignRepository) Upsert(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *campaign
	now := time.Now()
	if stored.ID == "" {
		stored.ID = r.s.nextID("cmp")
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.s.campaigns[stored.ID] = stored
	return &stored, nil
}

func (r fakeCampaignRepository) ListByStatus(ctx context.Context, status string) iter.Seq2[*models.Campaign, error] {
	return func(yield func(*models.Campaign, error) bool) {
		r.s.mu.Lock()
		var matched []models.Campaign
		for _, c := range r.s.campaigns {
			if c.Status == status {
				matched = append(matched, c)
			}
		}
		r.s.mu.Unlock()
		for i := range matched {
			if !yield(&matched[i], nil) {
				return
			}
		}
	}
}

func (r fakeCampaignRepository) count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.campaigns)
}

type fakeCreativeRepository struct{ s *memoryStore }

func (r fakeCreativeRepository) GetByID(ctx context.Context, id string) (*models.Creative, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.creatives[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r fakeCreativeRepository) Upsert(ctx context.Context, creative *models.Creative) (*models.Creative, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *creative
	if stored.ID == "" {
		stored.ID = r.s.nextID("crv")
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	r.s.creatives[stored.ID] = stored
	return &stored, nil
}

func (r fakeCreativeRepository) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.Creative, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Creative
	for _, c := range r.s.creatives {
		if c.CampaignID == campaignID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeSyncHistoryRepository struct{ s *memoryStore }

func (r fakeSyncHistoryRepository) Create(ctx context.Context, sh *models.SyncHistory) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry := *sh
	entry.ID = int64(len(r.s.history) + 1)
	r.s.history = append(r.s.history, entry)
	return entry.ID, nil
}

func (r fakeSyncHistoryRepository) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.SyncHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.SyncHistory
	for _, h := range r.s.history {
		if h.CampaignID == campaignID {
			h := h
			out = append(out, &h)
		}
	}
	return out, nil
}
