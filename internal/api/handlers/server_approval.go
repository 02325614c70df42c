package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"approvalhub.io/approvalhub/internal/api/middleware"
	"approvalhub.io/approvalhub/internal/domain"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/repository"
	"approvalhub.io/approvalhub/internal/service"
)

// Pages are zero-based: page 0 is the first page, matching the repository's
// OFFSET arithmetic and the client's default key.
const (
	defaultPage = 0
	defaultSize = 20
	maxPageSize = 100
)

// submitRequest binds POST /approvals.
type submitRequest struct {
	EntityType        string         `json:"entityType" binding:"required"`
	EntityID          int64          `json:"entityId" binding:"required"`
	EntityDescription *string        `json:"entityDescription"`
	Levels            []levelRequest `json:"levels" binding:"required"`
}

type levelRequest struct {
	LevelName              string `json:"levelName" binding:"required"`
	ExpectedApproverUserID int64  `json:"expectedApproverUserId" binding:"required"`
	ExpectedApproverName   string `json:"expectedApproverName" binding:"required"`
}

type approveRequest struct {
	Comments *string `json:"comments"`
}

type rejectRequest struct {
	Reason   string  `json:"reason"`
	Comments *string `json:"comments"`
}

// commandAck acknowledges a decision command. Commands never return the
// updated aggregate; clients refetch through their cached reads.
type commandAck struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ListApprovals handles GET /approvals.
func (s *Server) ListApprovals(c *gin.Context) {
	filter, err := s.bindListFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := s.approvals.List(c.Request.Context(), *filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": page.Items,
		"total": page.Total,
		"page":  page.Page,
		"size":  page.Size,
	})
}

// SubmitApproval handles POST /approvals.
func (s *Server) SubmitApproval(c *gin.Context) {
	actor, err := s.actor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
		return
	}

	levels := make([]domain.LevelTemplate, 0, len(req.Levels))
	for _, lv := range req.Levels {
		levels = append(levels, domain.LevelTemplate{
			LevelName:              lv.LevelName,
			ExpectedApproverUserID: lv.ExpectedApproverUserID,
			ExpectedApproverName:   lv.ExpectedApproverName,
		})
	}

	approval, err := s.approvals.Submit(c.Request.Context(), actor, service.SubmitRequest{
		EntityType:        domain.EntityType(req.EntityType),
		EntityID:          req.EntityID,
		EntityDescription: req.EntityDescription,
		Levels:            levels,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, approval)
}

// GetApproval handles GET /approvals/:id.
func (s *Server) GetApproval(c *gin.Context) {
	id, err := approvalIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	approval, err := s.approvals.Detail(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, approval)
}

// GetApprovalHistory handles GET /approvals/:id/history.
func (s *Server) GetApprovalHistory(c *gin.Context) {
	id, err := approvalIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entries, err := s.approvals.History(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if entries == nil {
		entries = []*domain.ApprovalHistory{}
	}
	c.JSON(http.StatusOK, entries)
}

// ApproveApproval handles POST /approvals/:id/approve.
func (s *Server) ApproveApproval(c *gin.Context) {
	id, err := approvalIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	actor, err := s.actor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// The body is optional; approve without comments sends none at all.
	var req approveRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "invalid request body"))
			return
		}
	}

	approval, err := s.approvals.Approve(c.Request.Context(), actor, id, req.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, commandAck{ID: approval.ID, Message: "approved"})
}

// RejectApproval handles POST /approvals/:id/reject.
func (s *Server) RejectApproval(c *gin.Context) {
	id, err := approvalIDParam(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	actor, err := s.actor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ErrRejectReasonRequired())
		return
	}

	approval, err := s.approvals.Reject(c.Request.Context(), actor, id, req.Reason, req.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, commandAck{ID: approval.ID, Message: "rejected"})
}

// GetPendingCount handles GET /approvals/pending-count.
func (s *Server) GetPendingCount(c *gin.Context) {
	userID := middleware.GetUserID(c.Request.Context())
	if userID <= 0 {
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required"))
		return
	}

	count, err := s.approvals.PendingCount(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	// The count is a bare integer, not an envelope.
	c.JSON(http.StatusOK, count)
}

func (s *Server) bindListFilter(c *gin.Context) (*repository.ListFilter, error) {
	filter := repository.ListFilter{Page: defaultPage, Size: defaultSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "page must be a non-negative integer")
		}
		filter.Page = page
	}
	if raw := c.Query("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "size must be between 1 and 100")
		}
		filter.Size = size
	}
	if raw := c.Query("entityType"); raw != "" {
		et, err := domain.ParseEntityType(raw)
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidEnumValue, err.Error())
		}
		filter.EntityType = &et
	}
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseApprovalStatus(raw)
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidEnumValue, err.Error())
		}
		filter.Status = &st
	}
	if raw := c.Query("myPending"); raw == "true" {
		userID := middleware.GetUserID(c.Request.Context())
		if userID <= 0 {
			return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required")
		}
		filter.PendingApproverID = &userID
	}

	return &filter, nil
}

func approvalIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest(apperrors.CodeValidationFailed, "approval id must be a positive integer")
	}
	return id, nil
}
