package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/auth"
	"shopledger/internal/infrastructure/http/v1/dto"
	"shopledger/internal/infrastructure/http/v1/middleware"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service      *auth.Service
	secureCookie bool
}

func NewAuthHandler(base *BaseHandler, service *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  base,
		service:      service,
		secureCookie: secureCookie,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setCookie(c, session.AccessToken, int(h.service.TokenTTL().Seconds()))
	h.OK(c, dto.FromSession(session))
}

// Logout handles POST /auth/logout. Tokens are stateless; only the cookie is cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	h.OK(c, dto.SuccessResponse{Success: true, Message: "logged out"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, value, maxAge, "/", "", h.secureCookie, true)
}
