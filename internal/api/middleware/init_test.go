package middleware

import (
	"approvalhub.io/approvalhub/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}
