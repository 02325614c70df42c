package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"

	"approvalhub.io/approvalhub/api"
)

// MustOpenAPIValidator creates the request validator and panics on setup
// failure. The embedded contract not loading is a programming error.
func MustOpenAPIValidator(basePath string) gin.HandlerFunc {
	mw, err := NewOpenAPIValidator(basePath)
	if err != nil {
		panic(fmt.Sprintf("init openapi validator: %v", err))
	}
	return mw
}

// NewOpenAPIValidator validates incoming requests against the embedded
// OpenAPI contract. Paths outside the contract pass through untouched;
// authentication is enforced by the JWT middleware, not here.
func NewOpenAPIValidator(basePath string) (gin.HandlerFunc, error) {
	doc, err := api.LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create openapi router: %w", err)
	}

	basePath = normalizeBasePath(basePath)

	return func(c *gin.Context) {
		origPath := c.Request.URL.Path

		route, pathParams, routeErr := findRoute(router, c.Request, basePath)
		c.Request.URL.Path = origPath
		if routeErr != nil {
			if isPathNotFoundError(routeErr) {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "OPENAPI_ROUTE_INVALID",
				"message": routeErr.Error(),
			})
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: func(context.Context, *openapi3filter.AuthenticationInput) error {
					return nil
				},
			},
		}
		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.Request.URL.Path = origPath
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "OPENAPI_REQUEST_INVALID",
				"message": err.Error(),
			})
			return
		}

		c.Request.URL.Path = origPath
		c.Next()
	}, nil
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return ""
	}
	return "/" + strings.Trim(basePath, "/")
}

// findRoute tries the request path as-is, then with the base path stripped,
// so the contract's server URL and the mounted prefix both resolve.
func findRoute(router routers.Router, req *http.Request, basePath string) (*routers.Route, map[string]string, error) {
	origPath := req.URL.Path

	route, pathParams, err := router.FindRoute(req)
	if err == nil {
		return route, pathParams, nil
	}
	if !isPathNotFoundError(err) {
		return nil, nil, err
	}

	if basePath != "" && strings.HasPrefix(origPath, basePath+"/") {
		req.URL.Path = "/" + strings.TrimPrefix(origPath, basePath+"/")
		route, pathParams, retryErr := router.FindRoute(req)
		req.URL.Path = origPath
		if retryErr == nil {
			return route, pathParams, nil
		}
		return nil, nil, retryErr
	}

	return nil, nil, err
}

func isPathNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if err == routers.ErrPathNotFound {
		return true
	}
	if strings.Contains(err.Error(), routers.ErrPathNotFound.Error()) {
		return true
	}
	if routeErr, ok := err.(*routers.RouteError); ok && strings.Contains(routeErr.Reason, routers.ErrPathNotFound.Error()) {
		return true
	}
	return false
}
