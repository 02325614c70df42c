package errors

import (
	"fmt"
	"net/http"
)

// Error code constants. Errors carry code + message; the frontend owns
// translation, backend logs stay in English.

// Approval error codes.
const (
	CodeApprovalNotFound  = "APPROVAL_NOT_FOUND"
	CodeApprovalCompleted = "APPROVAL_ALREADY_COMPLETED"
	CodeDuplicatePending  = "DUPLICATE_PENDING_APPROVAL"
	CodeLevelDecided      = "LEVEL_ALREADY_DECIDED"
	CodeNotCurrentLevel   = "NOT_CURRENT_LEVEL_APPROVER"
	CodeRejectReason      = "REJECT_REASON_REQUIRED"
	CodeInvalidChain      = "INVALID_APPROVAL_CHAIN"
)

// Auth error codes.
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidEnumValue = "INVALID_ENUM_VALUE"
)

// RejectReasonMessage is the fixed user-facing message returned when a
// rejection is attempted without a reason. Korean first, English fallback,
// matching the web client copy.
const RejectReasonMessage = "반려 사유를 입력해주세요 (Please provide a rejection reason)"

// ErrRejectReasonRequired creates the fixed reject-reason validation error.
func ErrRejectReasonRequired() *AppError {
	return &AppError{
		Code:       CodeRejectReason,
		Message:    RejectReasonMessage,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrApprovalNotFoundf creates an approval not found error for the given id.
func ErrApprovalNotFoundf(id int64) *AppError {
	return &AppError{
		Code:       CodeApprovalNotFound,
		Message:    fmt.Sprintf("approval request %d not found", id),
		HTTPStatus: http.StatusNotFound,
		Params:     map[string]interface{}{"id": id},
	}
}

// ErrNotCurrentApprover creates a 403 for actors outside the current level.
func ErrNotCurrentApprover() *AppError {
	return &AppError{
		Code:       CodeNotCurrentLevel,
		Message:    "only the designated approver of the current level may decide it",
		HTTPStatus: http.StatusForbidden,
	}
}

// ErrApprovalCompleted creates a 409 for decisions on terminal approvals.
func ErrApprovalCompleted(status string) *AppError {
	return &AppError{
		Code:       CodeApprovalCompleted,
		Message:    "approval is already " + status,
		HTTPStatus: http.StatusConflict,
	}
}
