package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
	"github.com/vidyakosh/fee_ledger_app/internal/middleware"
	"github.com/vidyakosh/fee_ledger_app/internal/platform/config"
)

// defaulterHandler handles HTTP requests for the defaulters index
type defaulterHandler struct {
	defaulterService     portssvc.DefaulterSvcFacade
	gracePeriodDays      int
	reminderIntervalDays int
}

// newDefaulterHandler creates a new defaulterHandler
func newDefaulterHandler(ds portssvc.DefaulterSvcFacade, cfg *config.Config) *defaulterHandler {
	return &defaulterHandler{
		defaulterService:     ds,
		gracePeriodDays:      cfg.GracePeriodDays,
		reminderIntervalDays: cfg.ReminderIntervalDays,
	}
}

// registerDefaulterRoutes registers defaulter index routes under a school
func registerDefaulterRoutes(rg *gin.RouterGroup, cfg *config.Config, defaulterService portssvc.DefaulterSvcFacade) {
	h := newDefaulterHandler(defaulterService, cfg)

	defaulters := rg.Group("/defaulters")
	{
		defaulters.POST("/sync", h.syncDefaulters)
		defaulters.GET("/critical", h.getCriticalDefaulters)
		defaulters.GET("/by-grade", h.getDefaultersByGrade)
		defaulters.GET("/reminders-due", h.getDefaultersNeedingReminders)
		defaulters.POST("/:student_id/reminders", h.markReminderSent)
	}
}

func (h *defaulterHandler) syncDefaulters(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	var req dto.SyncDefaultersRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		logger.Warn("Invalid sync request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	gracePeriodDays := req.GracePeriodDays
	if gracePeriodDays == 0 {
		gracePeriodDays = h.gracePeriodDays
	}

	logger = logger.With(slog.String("school_id", schoolID), slog.Int("grace_period_days", gracePeriodDays))
	logger.Info("Received defaulter sync request")

	resp, err := h.defaulterService.SyncDefaulters(c.Request.Context(), schoolID, gracePeriodDays)
	if err != nil {
		respondError(c, logger, err, "Failed to sync defaulters")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *defaulterHandler) getCriticalDefaulters(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	var req dto.CriticalDefaultersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid critical defaulters query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	defaulters, err := h.defaulterService.GetCriticalDefaulters(c.Request.Context(), schoolID, req)
	if err != nil {
		respondError(c, logger.With(slog.String("school_id", schoolID)), err, "Failed to list critical defaulters")
		return
	}

	responses := make([]dto.DefaulterResponse, len(defaulters))
	for i, d := range defaulters {
		responses[i] = dto.ToDefaulterResponse(d)
	}
	c.JSON(http.StatusOK, gin.H{"defaulters": responses, "count": len(responses)})
}

func (h *defaulterHandler) getDefaultersByGrade(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	var grade *string
	if g := c.Query("grade"); g != "" {
		grade = &g
	}

	summaries, err := h.defaulterService.GetDefaultersByGrade(c.Request.Context(), schoolID, grade)
	if err != nil {
		respondError(c, logger.With(slog.String("school_id", schoolID)), err, "Failed to summarize defaulters by grade")
		return
	}
	c.JSON(http.StatusOK, gin.H{"grades": dto.ToGradeDefaulterSummaryResponse(summaries)})
}

func (h *defaulterHandler) getDefaultersNeedingReminders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	defaulters, err := h.defaulterService.GetDefaultersNeedingReminders(c.Request.Context(), schoolID, h.reminderIntervalDays)
	if err != nil {
		respondError(c, logger.With(slog.String("school_id", schoolID)), err, "Failed to list defaulters needing reminders")
		return
	}

	responses := make([]dto.DefaulterResponse, len(defaulters))
	for i, d := range defaulters {
		responses[i] = dto.ToDefaulterResponse(d)
	}
	c.JSON(http.StatusOK, gin.H{"defaulters": responses, "count": len(responses)})
}

func (h *defaulterHandler) markReminderSent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	studentID := c.Param("student_id")

	logger = logger.With(slog.String("school_id", schoolID), slog.String("student_id", studentID))

	defaulter, err := h.defaulterService.MarkReminderSent(c.Request.Context(), schoolID, studentID)
	if err != nil {
		respondError(c, logger, err, "Failed to record reminder")
		return
	}
	c.JSON(http.StatusOK, dto.ToDefaulterResponse(*defaulter))
}
