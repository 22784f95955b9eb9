package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/dto"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
)

// voucherHandler handles HTTP requests related to vouchers.
type voucherHandler struct {
	postingService portssvc.PostingSvcFacade
}

// newVoucherHandler creates a new voucherHandler.
func newVoucherHandler(ps portssvc.PostingSvcFacade) *voucherHandler {
	return &voucherHandler{postingService: ps}
}

// RegisterVoucherRoutes registers voucher routes on an organization-scoped group.
func RegisterVoucherRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade) {
	h := newVoucherHandler(postingService)

	vouchers := rg.Group("/vouchers", middleware.IdempotencyKey())
	{
		vouchers.POST("", h.createVoucher)
		vouchers.GET("", h.listVouchers)
		vouchers.POST("/post", h.postVoucherPayload)
		vouchers.GET("/:id", h.getVoucher)
		vouchers.PUT("/:id", h.updateVoucher)
		vouchers.POST("/:id/submit", h.submitVoucher)
		vouchers.POST("/:id/post", h.postVoucher)
		vouchers.POST("/:id/approve", h.approveVoucher)
		vouchers.POST("/:id/reject", h.rejectVoucher)
		vouchers.POST("/:id/cancel", h.cancelVoucher)
		vouchers.POST("/:id/reverse", h.reverseVoucher)
		vouchers.GET("/:id/approval", h.getApprovalTask)
	}
}

// resultStatus maps a posting result to its HTTP status.
func resultStatus(result *dto.PostingResult, created bool) int {
	switch {
	case result.Deferred:
		return http.StatusAccepted
	case created && !result.Replayed:
		return http.StatusCreated
	}
	return http.StatusOK
}

// createVoucher godoc
// @Summary Create a voucher draft
// @Description Validates the payload against the voucher type's schema and stores a DRAFT. Unbalanced drafts are allowed.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   voucher body dto.VoucherPayload true "Voucher payload"
// @Success 201 {object} dto.PostingResult
// @Failure 400 {object} ErrorResponse "Invalid input or field errors"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Voucher type not found"
// @Failure 500 {object} ErrorResponse "Failed to create voucher"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers [post]
func (h *voucherHandler) createVoucher(c *gin.Context) {
	orgID := c.Param("organization_id")
	var payload dto.VoucherPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	payload.IdempotencyKey = middleware.GetIdempotencyKey(c.Request.Context(), payload.IdempotencyKey)

	result, err := h.postingService.CreateDraft(c.Request.Context(), orgID, payload, userID)
	if err != nil {
		respondError(c, err, "Failed to create voucher")
		return
	}
	c.JSON(resultStatus(result, true), result)
}

// postVoucherPayload godoc
// @Summary Create and post a voucher
// @Description Validates and posts a payload in one step. Returns 202 when posting waits for approval.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   voucher body dto.VoucherPayload true "Voucher payload"
// @Success 201 {object} dto.PostingResult
// @Success 202 {object} dto.PostingResult "Deferred to approval"
// @Failure 400 {object} ErrorResponse "Invalid input or field errors"
// @Failure 409 {object} ErrorResponse "Duplicate in-flight request"
// @Failure 422 {object} ErrorResponse "Imbalanced entry or closed period"
// @Failure 503 {object} ErrorResponse "Retryable infrastructure failure"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/post [post]
func (h *voucherHandler) postVoucherPayload(c *gin.Context) {
	orgID := c.Param("organization_id")
	var payload dto.VoucherPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	idemKey := middleware.GetIdempotencyKey(c.Request.Context(), payload.IdempotencyKey)

	result, err := h.postingService.PostPayload(c.Request.Context(), orgID, payload, idemKey, userID)
	if err != nil {
		respondError(c, err, "Failed to post voucher")
		return
	}
	c.JSON(resultStatus(result, true), result)
}

// listVouchers godoc
// @Summary List vouchers
// @Description Lists vouchers of an organization, newest journal date first
// @Tags vouchers
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   status query string false "Status filter"
// @Param   voucherType query string false "Voucher type filter"
// @Param   limit query int false "Page size (max 100)"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListVouchersResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers [get]
func (h *voucherHandler) listVouchers(c *gin.Context) {
	orgID := c.Param("organization_id")
	var params dto.ListVouchersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	if _, ok := requireUserID(c); !ok {
		return
	}

	resp, err := h.postingService.ListJournals(c.Request.Context(), orgID, params)
	if err != nil {
		respondError(c, err, "Failed to list vouchers")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getVoucher godoc
// @Summary Get a voucher
// @Tags vouchers
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.Journal
// @Failure 404 {object} ErrorResponse "Voucher not found"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id} [get]
func (h *voucherHandler) getVoucher(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	journal, err := h.postingService.GetJournal(c.Request.Context(), c.Param("organization_id"), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve voucher")
		return
	}
	c.JSON(http.StatusOK, journal)
}

// updateVoucher godoc
// @Summary Update a voucher
// @Description Replaces header and lines of a DRAFT or SUBMITTED voucher. lastUpdatedAt must match the stored value.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   voucher body dto.UpdateVoucherRequest true "Voucher contents"
// @Success 200 {object} dto.PostingResult
// @Failure 400 {object} ErrorResponse "Invalid input or field errors"
// @Failure 409 {object} ErrorResponse "Voucher was modified by another request"
// @Failure 422 {object} ErrorResponse "Voucher can no longer be edited"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id} [put]
func (h *voucherHandler) updateVoucher(c *gin.Context) {
	var req dto.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.postingService.UpdateDraft(c.Request.Context(), c.Param("organization_id"), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to update voucher")
		return
	}
	c.JSON(http.StatusOK, result)
}

// transition binds a TransitionRequest and runs op with it.
func (h *voucherHandler) transition(c *gin.Context, msg string, op func(orgID, journalID string, req dto.TransitionRequest, idemKey, userID string) (*dto.PostingResult, error)) {
	var req dto.TransitionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	idemKey := middleware.GetIdempotencyKey(c.Request.Context(), req.IdempotencyKey)

	result, err := op(c.Param("organization_id"), c.Param("id"), req, idemKey, userID)
	if err != nil {
		respondError(c, err, msg)
		return
	}
	c.JSON(resultStatus(result, false), result)
}

// submitVoucher godoc
// @Summary Submit a voucher
// @Description Moves a balanced DRAFT to SUBMITTED and opens an approval task when the voucher type requires one.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   request body dto.TransitionRequest false "Concurrency token"
// @Success 200 {object} dto.PostingResult
// @Failure 409 {object} ErrorResponse "Stale voucher"
// @Failure 422 {object} ErrorResponse "Imbalanced entry or invalid state"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/submit [post]
func (h *voucherHandler) submitVoucher(c *gin.Context) {
	h.transition(c, "Failed to submit voucher", func(orgID, journalID string, req dto.TransitionRequest, idemKey, userID string) (*dto.PostingResult, error) {
		return h.postingService.Submit(c.Request.Context(), orgID, journalID, req.LastUpdatedAt, idemKey, userID)
	})
}

// postVoucher godoc
// @Summary Post a voucher
// @Description Posts a stored voucher. Returns 202 when posting waits for approval.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   Idempotency-Key header string false "Idempotency key"
// @Param   request body dto.TransitionRequest false "Concurrency token"
// @Success 200 {object} dto.PostingResult
// @Success 202 {object} dto.PostingResult "Deferred to approval"
// @Failure 409 {object} ErrorResponse "Stale voucher, pending approval or duplicate in-flight request"
// @Failure 422 {object} ErrorResponse "Imbalanced entry, closed period or invalid state"
// @Failure 503 {object} ErrorResponse "Retryable infrastructure failure"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/post [post]
func (h *voucherHandler) postVoucher(c *gin.Context) {
	h.transition(c, "Failed to post voucher", func(orgID, journalID string, req dto.TransitionRequest, idemKey, userID string) (*dto.PostingResult, error) {
		return h.postingService.Post(c.Request.Context(), orgID, journalID, req.LastUpdatedAt, idemKey, userID)
	})
}

// cancelVoucher godoc
// @Summary Cancel a voucher draft
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   request body dto.TransitionRequest false "Concurrency token"
// @Success 200 {object} dto.PostingResult
// @Failure 422 {object} ErrorResponse "Only drafts can be cancelled"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/cancel [post]
func (h *voucherHandler) cancelVoucher(c *gin.Context) {
	h.transition(c, "Failed to cancel voucher", func(orgID, journalID string, req dto.TransitionRequest, _, userID string) (*dto.PostingResult, error) {
		return h.postingService.Cancel(c.Request.Context(), orgID, journalID, req.LastUpdatedAt, userID)
	})
}

// decide binds an ApprovalDecisionRequest and runs op with it.
func (h *voucherHandler) decide(c *gin.Context, msg string, op func(orgID, journalID, notes, userID string) (*dto.PostingResult, error)) {
	var req dto.ApprovalDecisionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := op(c.Param("organization_id"), c.Param("id"), req.Notes, userID)
	if err != nil {
		respondError(c, err, msg)
		return
	}
	c.JSON(resultStatus(result, false), result)
}

// approveVoucher godoc
// @Summary Approve the current approval step
// @Description Approving the final step posts the voucher. Returns 202 while further steps remain.
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   decision body dto.ApprovalDecisionRequest false "Approver notes"
// @Success 200 {object} dto.PostingResult
// @Success 202 {object} dto.PostingResult "More approval steps remain"
// @Failure 422 {object} ErrorResponse "No pending task or closed period"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/approve [post]
func (h *voucherHandler) approveVoucher(c *gin.Context) {
	h.decide(c, "Failed to approve voucher", func(orgID, journalID, notes, userID string) (*dto.PostingResult, error) {
		return h.postingService.Approve(c.Request.Context(), orgID, journalID, notes, userID)
	})
}

// rejectVoucher godoc
// @Summary Reject a voucher
// @Description Terminates the approval task and returns the voucher to DRAFT.
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   decision body dto.ApprovalDecisionRequest false "Rejection notes"
// @Success 200 {object} dto.PostingResult
// @Failure 422 {object} ErrorResponse "No pending task"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/reject [post]
func (h *voucherHandler) rejectVoucher(c *gin.Context) {
	h.decide(c, "Failed to reject voucher", func(orgID, journalID, notes, userID string) (*dto.PostingResult, error) {
		return h.postingService.Reject(c.Request.Context(), orgID, journalID, notes, userID)
	})
}

// getApprovalTask godoc
// @Summary Get the approval task of a voucher
// @Tags approvals
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Success 200 {object} domain.ApprovalTask
// @Failure 404 {object} ErrorResponse "No approval task"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/approval [get]
func (h *voucherHandler) getApprovalTask(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	task, err := h.postingService.GetTask(c.Request.Context(), c.Param("organization_id"), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve approval task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// reverseVoucher godoc
// @Summary Reverse a posted voucher
// @Description Posts a counter-voucher with debits and credits swapped and marks the original REVERSED.
// @Tags vouchers
// @Accept  json
// @Produce  json
// @Param   organization_id path string true "Organization ID"
// @Param   id path string true "Journal ID"
// @Param   request body dto.ReverseVoucherRequest false "Reversal date"
// @Success 201 {object} dto.PostingResult
// @Failure 422 {object} ErrorResponse "Voucher is not posted or period closed"
// @Security BearerAuth
// @Router /organizations/{organization_id}/vouchers/{id}/reverse [post]
func (h *voucherHandler) reverseVoucher(c *gin.Context) {
	var req dto.ReverseVoucherRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var reversalDate *time.Time
	if req.ReversalDate != "" {
		d, err := time.Parse(domain.DateLayout, req.ReversalDate)
		if err != nil {
			respondBindError(c, err)
			return
		}
		reversalDate = &d
	}

	journalID := c.Param("id")
	result, err := h.postingService.Reverse(c.Request.Context(), c.Param("organization_id"), journalID, reversalDate, userID)
	if err != nil {
		respondError(c, err, "Failed to reverse voucher")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Voucher reversed",
		slog.String("journal_id", journalID), slog.String("reversing_journal_id", result.Journal.JournalID))
	c.JSON(http.StatusCreated, result)
}
