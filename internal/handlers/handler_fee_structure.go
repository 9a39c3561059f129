package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
	"github.com/vidyakosh/fee_ledger_app/internal/middleware"
)

// feeStructureHandler handles HTTP requests for the fee structure catalog
type feeStructureHandler struct {
	feeStructureService portssvc.FeeStructureSvcFacade
}

// newFeeStructureHandler creates a new feeStructureHandler
func newFeeStructureHandler(fs portssvc.FeeStructureSvcFacade) *feeStructureHandler {
	return &feeStructureHandler{
		feeStructureService: fs,
	}
}

// registerFeeStructureRoutes registers catalog routes under a school
func registerFeeStructureRoutes(rg *gin.RouterGroup, feeStructureService portssvc.FeeStructureSvcFacade) {
	h := newFeeStructureHandler(feeStructureService)

	structures := rg.Group("/fee-structures")
	{
		structures.POST("", h.createFeeStructure)
		structures.GET("/active", h.getActiveFeeStructure)
	}
}

func (h *feeStructureHandler) createFeeStructure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")

	var req dto.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid fee structure body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	logger = logger.With(
		slog.String("school_id", schoolID),
		slog.String("grade", req.Grade),
		slog.String("academic_year", req.AcademicYear),
	)
	logger.Info("Received request to create fee structure")

	structure, err := h.feeStructureService.CreateFeeStructure(c.Request.Context(), schoolID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create fee structure")
		return
	}
	c.JSON(http.StatusCreated, dto.ToFeeStructureResponse(structure))
}

func (h *feeStructureHandler) getActiveFeeStructure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	grade := c.Query("grade")
	academicYear := c.Query("academicYear")
	if grade == "" || academicYear == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade and academicYear query parameters required"})
		return
	}

	structure, err := h.feeStructureService.GetLatestActiveStructure(c.Request.Context(), schoolID, grade, academicYear)
	if err != nil {
		respondError(c, logger.With(slog.String("school_id", schoolID), slog.String("grade", grade)), err, "Failed to fetch fee structure")
		return
	}
	c.JSON(http.StatusOK, dto.ToFeeStructureResponse(structure))
}
