package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/adsync/internal/queue"
	"github.com/maheshrc27/adsync/internal/service"
	"github.com/maheshrc27/adsync/internal/transfer"
)

var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

type CampaignHandler struct {
	s   service.CampaignService
	enq queue.Enqueuer
	now func() time.Time
}

func NewCampaignHandler(s service.CampaignService, enq queue.Enqueuer) *CampaignHandler {
	return &CampaignHandler{s: s, enq: enq, now: time.Now}
}

// CreateCampaign answers with the local id as campaign_id, which is the id
// every other endpoint takes. The TikTok id is returned as remote_campaign_id.
func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	var input transfer.CampaignCreation
	if err := c.BodyParser(&input); err != nil {
		return badJSON(c, err)
	}

	result, err := h.s.CreateCampaign(c.Context(), &input)
	if err != nil {
		return respondError(c, err)
	}

	if result.Duplicate {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":                      "Campaign already exists",
			"campaign_id":                  result.Campaign.ID,
			"remote_campaign_id":           result.Campaign.RemoteID,
			"duplicate_remote_campaign_id": result.DuplicateRemoteID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":            "Campaign created",
		"campaign_id":        result.Campaign.ID,
		"remote_campaign_id": result.Campaign.RemoteID,
	})
}

func (h *CampaignHandler) UploadCreative(c *fiber.Ctx) error {
	var input transfer.CreativeUpload
	if err := c.BodyParser(&input); err != nil {
		return badJSON(c, err)
	}

	creative, err := h.s.UploadCreative(c.Context(), &input)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":     "Creative uploaded",
		"creative_id": creative.RemoteID,
	})
}

func (h *CampaignHandler) SetTargeting(c *fiber.Ctx) error {
	var input transfer.TargetingUpdate
	if err := c.BodyParser(&input); err != nil {
		return badJSON(c, err)
	}

	if err := h.s.SetTargeting(c.Context(), &input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Targeting updated successfully",
	})
}

// ScheduleCampaign starts or stops a campaign now, or defers the change to
// the task queue when scheduled_time lies in the future.
func (h *CampaignHandler) ScheduleCampaign(c *fiber.Ctx) error {
	var input transfer.CampaignSchedule
	if err := c.BodyParser(&input); err != nil {
		return badJSON(c, err)
	}
	action := strings.ToUpper(strings.TrimSpace(input.Action))

	if input.ScheduledTime != "" {
		at, err := parseScheduledTime(input.ScheduledTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid scheduled_time",
			})
		}

		if delay := at.Sub(h.now()); delay > 0 {
			if err := h.s.CheckStatusChange(c.Context(), input.CampaignID, action); err != nil {
				return respondError(c, err)
			}
			err := queue.EnqueueCampaignStatus(h.enq, queue.CampaignStatusPayload{
				CampaignID: input.CampaignID,
				Action:     action,
			}, delay)
			if err != nil {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"message": fmt.Sprintf("Campaign %s scheduled", action),
			})
		}
	}

	campaign, err := h.s.ChangeStatus(c.Context(), input.CampaignID, action)
	if err != nil {
		return respondError(c, err)
	}

	message := "Campaign stopped successfully"
	if action == transfer.ActionStart {
		message = "Campaign started successfully"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": message,
		"status":  campaign.Status,
	})
}

func (h *CampaignHandler) CampaignReport(c *fiber.Ctx) error {
	campaignID := c.Query("campaign_id")
	if campaignID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "campaign_id query param required",
		})
	}

	report, err := h.s.GetReport(c.Context(), campaignID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"report_data": report,
	})
}

func (h *CampaignHandler) CampaignInfo(c *fiber.Ctx) error {
	info, err := h.s.CampaignInfo(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(info)
}

func (h *CampaignHandler) CampaignHistory(c *fiber.Ctx) error {
	history, err := h.s.History(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"history": history,
	})
}

func parseScheduledTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range scheduleLayouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
