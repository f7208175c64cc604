package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ZhiruiFeng/zflow-gateway/internal/service/serviceutils"
)

// TokenCache is the cache-reset slice of the auth manager.
type TokenCache interface {
	ClearCache()
}

type AuthHandler struct {
	cache TokenCache
}

func NewAuthHandler(cache TokenCache) *AuthHandler {
	return &AuthHandler{cache: cache}
}

// ClearHandler handles POST /api/auth/clear. Called on sign-out so the next
// request starts from a fresh token.
func (h *AuthHandler) ClearHandler(c echo.Context) error {
	h.cache.ClearCache()
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Token cache cleared", nil)
}

// HealthHandler handles GET /healthz.
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
