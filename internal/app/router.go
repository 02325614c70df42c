package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"approvalhub.io/approvalhub/internal/api/handlers"
	"approvalhub.io/approvalhub/internal/api/middleware"
	"approvalhub.io/approvalhub/internal/config"
)

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/health/",
}

func newRouter(cfg *config.Config, server *handlers.Server, signingKey []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(corsMiddleware(cfg.Server.CORSOrigins))
	router.Use(jwtSkipPublic(signingKey))
	router.Use(middleware.MustOpenAPIValidator("/api/v1"))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", server.Login)
		v1.GET("/auth/me", server.GetCurrentUser)

		v1.GET("/health/live", server.GetLiveness)
		v1.GET("/health/ready", server.GetReadiness)

		v1.GET("/approvals", server.ListApprovals)
		v1.POST("/approvals", server.SubmitApproval)
		v1.GET("/approvals/pending-count", server.GetPendingCount)
		v1.GET("/approvals/:id", server.GetApproval)
		v1.GET("/approvals/:id/history", server.GetApprovalHistory)
		v1.POST("/approvals/:id/approve", server.ApproveApproval)
		v1.POST("/approvals/:id/reject", server.RejectApproval)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// jwtSkipPublic applies JWT auth only on non-public routes.
func jwtSkipPublic(signingKey []byte) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(signingKey)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}
