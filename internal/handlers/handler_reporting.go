package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
	"github.com/vidyakosh/fee_ledger_app/internal/middleware"
)

// reportingHandler handles HTTP requests for financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// newReportingHandler creates a new reportingHandler
func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers report routes under a school
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/financial", h.getFinancialReport)
	}
}

func (h *reportingHandler) getFinancialReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	var req dto.FinancialReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid financial report query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("school_id", schoolID), slog.String("report_type", req.ReportType))
	logger.Info("Received request to generate financial report")

	report, err := h.reportingService.GetFinancialReport(c.Request.Context(), schoolID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to generate financial report")
		return
	}

	logger.Info("Financial report generated",
		slog.Int("transaction_count", report.Summary.TransactionCount))
	c.JSON(http.StatusOK, report)
}
