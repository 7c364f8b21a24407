package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/stackfinder/stackfinder/internal/admin"
	"github.com/stackfinder/stackfinder/internal/authgw"
	"github.com/stackfinder/stackfinder/internal/callback"
	"github.com/stackfinder/stackfinder/internal/i18n"
)

// serviceAuthorizer adapts the admin service to the callback flow: a denial
// becomes a failed AuthzResult, any other error stays a transport failure.
type serviceAuthorizer struct {
	svc *admin.Service
}

func (a *serviceAuthorizer) Authorize(ctx context.Context, token string) (callback.AuthzResult, error) {
	identity, err := a.svc.WhoAmI(ctx, token)
	if err != nil {
		var denied *admin.DeniedError
		if errors.As(err, &denied) {
			return callback.AuthzResult{Success: false, Message: denied.Message}, nil
		}
		return callback.AuthzResult{}, err
	}
	return callback.AuthzResult{Success: true, Email: identity.Email}, nil
}

// providerChecker adapts the auth provider client to the public flow's
// session check.
type providerChecker struct {
	provider *authgw.Client
}

func (p *providerChecker) Check(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := p.provider.GetUser(ctx, token)
	return err
}

// LoginIntentRequest starts an admin login attempt and records where to land
// afterwards.
type LoginIntentRequest struct {
	RedirectTo string `json:"redirect_to"`
}

// LoginIntentResponse returns the login attempt id the callback will present.
type LoginIntentResponse struct {
	LoginID string `json:"login_id"`
}

// CallbackResponse is returned for terminal callback failures.
type CallbackResponse struct {
	Success bool   `json:"success"`
	State   string `json:"state"`
	Message string `json:"message"`
}

// MeData is the identity payload of a successful who-am-I response.
type MeData struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// MeResponse is the wire shape of /api/admin/me.
type MeResponse struct {
	Success bool    `json:"success"`
	Data    *MeData `json:"data,omitempty"`
	Message string  `json:"message,omitempty"`
}

// @Summary Record a pending admin login
// @Description Stores the post-login redirect target for one login attempt
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginIntentRequest true "Login intent"
// @Success 200 {object} LoginIntentResponse
// @Router /api/admin/login-intent [post]
func (s *Server) createLoginIntent(c *gin.Context) {
	var req LoginIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loginID := ulid.Make().String()

	if req.RedirectTo != "" {
		if err := s.redirects.Put(c.Request.Context(), loginID, req.RedirectTo); err != nil {
			s.logger.Error().Err(err).Msg("Failed to store redirect target")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record login attempt"})
			return
		}
	}

	c.JSON(http.StatusOK, LoginIntentResponse{LoginID: loginID})
}

// @Summary Admin auth callback
// @Description Finalizes an admin login: authorizes the session token and
// resolves the pending redirect target
// @Tags auth
// @Produce json
// @Param access_token query string false "Session access token"
// @Param login_id query string false "Login attempt id"
// @Success 302
// @Failure 401 {object} CallbackResponse
// @Failure 403 {object} CallbackResponse
// @Failure 503 {object} CallbackResponse
// @Router /api/admin/callback [get]
func (s *Server) adminCallback(c *gin.Context) {
	token := c.Query("access_token")
	loginID := c.Query("login_id")

	outcome, err := s.adminFlow.Run(c.Request.Context(), token, loginID)
	if err != nil {
		// Request canceled mid-flow; nothing left to respond to
		s.logger.Debug().Err(err).Msg("Admin callback canceled")
		c.Abort()
		return
	}

	switch outcome.State {
	case callback.StateRedirecting:
		c.Redirect(http.StatusFound, s.config.Site.AdminURL+outcome.RedirectTo)
	case callback.StateNoSession:
		c.JSON(http.StatusUnauthorized, CallbackResponse{State: string(outcome.State), Message: outcome.Message})
	case callback.StateDenied:
		c.JSON(http.StatusForbidden, CallbackResponse{State: string(outcome.State), Message: outcome.Message})
	default: // network error
		c.JSON(http.StatusServiceUnavailable, CallbackResponse{State: string(outcome.State), Message: outcome.Message})
	}
}

// @Summary Public-site auth callback
// @Description Finalizes the session and redirects to the locale root
// regardless of outcome
// @Tags auth
// @Param access_token query string false "Session access token"
// @Param locale query string false "Locale code"
// @Success 302
// @Router /auth/callback [get]
func (s *Server) publicCallback(c *gin.Context) {
	token := c.Query("access_token")

	locale, matched := i18n.Parse(c.Query("locale"))
	if !matched {
		locale = i18n.Match(c.GetHeader("Accept-Language"))
	}

	outcome, err := s.publicFlow.Run(c.Request.Context(), token, locale.String())
	if err != nil {
		c.Abort()
		return
	}

	c.Redirect(http.StatusFound, s.config.Site.BaseURL+outcome.RedirectTo)
}

// @Summary Who am I
// @Description Maps a session token to an administrative identity
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} MeResponse
// @Failure 503 {object} MeResponse
// @Router /api/admin/me [get]
func (s *Server) adminMe(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, MeResponse{Success: false, Message: "Missing or malformed bearer token"})
		return
	}

	identity, err := s.adminService.WhoAmI(c.Request.Context(), token)
	if err != nil {
		var denied *admin.DeniedError
		if errors.As(err, &denied) {
			c.JSON(http.StatusUnauthorized, MeResponse{Success: false, Message: denied.Message})
			return
		}
		s.logger.Error().Err(err).Msg("Who-am-I check failed")
		c.JSON(http.StatusServiceUnavailable, MeResponse{Success: false, Message: "Authorization check unavailable"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		Success: true,
		Data:    &MeData{Email: identity.Email, DisplayName: identity.DisplayName},
	})
}
