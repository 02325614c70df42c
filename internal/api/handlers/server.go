// Package handlers implements the HTTP handlers behind the REST API.
//
// Handlers bind and convert; business rules live in the service layer.
// Error responses flow through the ErrorHandler middleware via c.Error().
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"approvalhub.io/approvalhub/internal/api/middleware"
	"approvalhub.io/approvalhub/internal/domain"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/repository"
	"approvalhub.io/approvalhub/internal/service"
)

// ApprovalGateway is the service surface the approval handlers need.
type ApprovalGateway interface {
	Submit(ctx context.Context, actor *domain.User, req service.SubmitRequest) (*domain.Approval, error)
	Approve(ctx context.Context, actor *domain.User, approvalID int64, comments *string) (*domain.Approval, error)
	Reject(ctx context.Context, actor *domain.User, approvalID int64, reason string, comments *string) (*domain.Approval, error)
	List(ctx context.Context, f repository.ListFilter) (*service.ListPage, error)
	Detail(ctx context.Context, id int64) (*domain.Approval, error)
	History(ctx context.Context, id int64) ([]*domain.ApprovalHistory, error)
	PendingCount(ctx context.Context, userID int64) (int, error)
}

// UserGateway resolves authenticated actors and login credentials.
type UserGateway interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Server holds all handler dependencies.
type Server struct {
	approvals ApprovalGateway
	users     UserGateway
	pool      *pgxpool.Pool
	jwtCfg    middleware.JWTConfig
}

// ServerDeps holds all dependencies for creating a Server. Manual DI.
type ServerDeps struct {
	Approvals ApprovalGateway
	Users     UserGateway
	Pool      *pgxpool.Pool
	JWTCfg    middleware.JWTConfig
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		approvals: deps.Approvals,
		users:     deps.Users,
		pool:      deps.Pool,
		jwtCfg:    deps.JWTCfg,
	}
}

// actor resolves the authenticated user behind the request. The lookup also
// rejects tokens whose user has been disabled since issuance.
func (s *Server) actor(c *gin.Context) (*domain.User, error) {
	userID := middleware.GetUserID(c.Request.Context())
	if userID <= 0 {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authentication required")
	}
	user, err := s.users.GetByID(c.Request.Context(), userID)
	if err != nil || !user.Enabled {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "authenticated user no longer available")
	}
	return user, nil
}
