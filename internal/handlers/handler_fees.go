package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
	"github.com/vidyakosh/fee_ledger_app/internal/middleware"
)

// feeHandler handles HTTP requests for fee status and collections
type feeHandler struct {
	ledgerService  portssvc.LedgerSvcFacade
	paymentService portssvc.PaymentSvcFacade
}

// newFeeHandler creates a new feeHandler
func newFeeHandler(ls portssvc.LedgerSvcFacade, ps portssvc.PaymentSvcFacade) *feeHandler {
	return &feeHandler{
		ledgerService:  ls,
		paymentService: ps,
	}
}

// registerFeeRoutes registers fee status and payment routes under a school
func registerFeeRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, paymentService portssvc.PaymentSvcFacade) {
	h := newFeeHandler(ledgerService, paymentService)

	students := rg.Group("/students/:student_id")
	{
		students.GET("/fee-status", h.getFeeStatus)
		students.POST("/payments", h.collectFee)
		students.POST("/payments/validate", h.validatePayment)
		students.POST("/payments/one-time", h.collectOneTimeFee)
	}
}

func (h *feeHandler) getFeeStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	studentID := c.Param("student_id")

	var req dto.FeeStatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid fee status query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	req.SchoolID = schoolID
	req.StudentID = studentID

	logger = logger.With(slog.String("school_id", schoolID), slog.String("student_id", studentID))

	status, err := h.ledgerService.GetFeeStatus(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to fetch fee status")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *feeHandler) validatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	studentID := c.Param("student_id")

	var req dto.ValidatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid validate payment body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	req.SchoolID = schoolID
	req.StudentID = studentID

	logger = logger.With(
		slog.String("school_id", schoolID),
		slog.String("student_id", studentID),
		slog.Int("month", req.Month),
	)

	result, err := h.paymentService.ValidatePayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to validate payment")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *feeHandler) collectFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	studentID := c.Param("student_id")

	collectorID, ok := middleware.GetCollectorIDFromContext(c)
	if !ok {
		logger.Warn("Collector ID missing from request")
		c.JSON(http.StatusBadRequest, gin.H{"error": middleware.CollectorIDHeader + " header required"})
		return
	}

	var req dto.CollectFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid collect fee body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	req.SchoolID = schoolID
	req.StudentID = studentID
	req.CollectedBy = collectorID
	req.Audit = dto.AuditInfo{
		IPAddress:  c.ClientIP(),
		DeviceInfo: c.Request.UserAgent(),
	}

	logger = logger.With(
		slog.String("school_id", schoolID),
		slog.String("student_id", studentID),
		slog.String("collected_by", collectorID),
		slog.Int("month", req.Month),
	)
	logger.Info("Received fee collection request")

	resp, err := h.paymentService.CollectFee(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to collect fee")
		return
	}

	logger.Info("Fee collection applied", slog.String("transaction_id", resp.Transaction.TransactionID))
	c.JSON(http.StatusCreated, resp)
}

func (h *feeHandler) collectOneTimeFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	schoolID := c.Param("school_id")
	studentID := c.Param("student_id")

	collectorID, ok := middleware.GetCollectorIDFromContext(c)
	if !ok {
		logger.Warn("Collector ID missing from request")
		c.JSON(http.StatusBadRequest, gin.H{"error": middleware.CollectorIDHeader + " header required"})
		return
	}

	var req dto.CollectOneTimeFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid one-time collection body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	req.SchoolID = schoolID
	req.StudentID = studentID
	req.CollectedBy = collectorID
	req.Audit = dto.AuditInfo{
		IPAddress:  c.ClientIP(),
		DeviceInfo: c.Request.UserAgent(),
	}

	logger = logger.With(
		slog.String("school_id", schoolID),
		slog.String("student_id", studentID),
		slog.String("fee_type", req.FeeType),
	)
	logger.Info("Received one-time fee collection request")

	resp, err := h.paymentService.CollectOneTimeFee(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to collect one-time fee")
		return
	}

	logger.Info("One-time fee collection applied", slog.String("transaction_id", resp.Transaction.TransactionID))
	c.JSON(http.StatusCreated, resp)
}
