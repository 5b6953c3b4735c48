package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/maheshrc27/adsync/internal/models"
	"github.com/maheshrc27/adsync/internal/repository"
	"github.com/maheshrc27/adsync/internal/service"
	"github.com/maheshrc27/adsync/internal/transfer"
)

var ErrSweepInProgress = errors.New("campaign reconcile sweep already running")

type ReconcileSummary struct {
	Scanned int
	Enabled int
	Failed  int
	Skipped int
}

// CampaignReconcileJob re-enables campaigns that exist on the platform but
// are INACTIVE locally.
type CampaignReconcileJob struct {
	cr          repository.CampaignRepository
	cs          service.CampaignService
	concurrency int
	running     atomic.Bool
}

func NewCampaignReconcileJob(
	cr repository.CampaignRepository,
	cs service.CampaignService,
	concurrency int) *CampaignReconcileJob {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CampaignReconcileJob{
		cr:          cr,
		cs:          cs,
		concurrency: concurrency,
	}
}

// Run is the cron entry point.
func (j *CampaignReconcileJob) Run() {
	summary, err := j.Reconcile(context.Background())
	if err != nil {
		slog.Info(err.Error())
	}
	slog.Info("campaign reconcile sweep finished",
		"scanned", summary.Scanned,
		"enabled", summary.Enabled,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
}

// Reconcile starts every INACTIVE campaign that has a remote id. A failure on
// one campaign never stops the others.
func (j *CampaignReconcileJob) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	var summary ReconcileSummary
	if !j.running.CompareAndSwap(false, true) {
		return summary, ErrSweepInProgress
	}
	defer j.running.Store(false)

	// Drain the listing before fanning out so its rows cursor is released
	// before any ChangeStatus needs a connection.
	var pending []*models.Campaign
	var listErr error
	for campaign, err := range j.cr.ListByStatus(ctx, models.CampaignStatusInactive) {
		if err != nil {
			listErr = err
			break
		}

		summary.Scanned++
		if !campaign.HasRemote() {
			summary.Skipped++
			continue
		}
		pending = append(pending, campaign)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, j.concurrency)

	for _, campaign := range pending {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(campaign *models.Campaign) {
			defer wg.Done()
			defer func() { <-semaphore }()

			_, err := j.cs.ChangeStatus(ctx, campaign.ID, transfer.ActionStart)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				slog.Warn("unable to re-enable campaign", "campaign_id", campaign.ID, "error", err)
				return
			}
			summary.Enabled++
		}(campaign)
	}

	wg.Wait()
	return summary, listErr
}
