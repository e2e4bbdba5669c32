package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
)

type LoginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type RegisterRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type sessionView struct {
	Role        string          `json:"role"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	OrgID       string          `json:"org_id"`
	Permissions map[string]bool `json:"permissions"`
	Org         *orgView        `json:"organization,omitempty"`
}

type orgView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	OwnerName       string     `json:"owner_name"`
	Tier            string     `json:"subscription_tier"`
	StartAt         time.Time  `json:"subscription_start_at"`
	ExpiresAt       *time.Time `json:"subscription_expires_at,omitempty"`
	DefaultTemplate string     `json:"default_template"`
}

type loginResponse struct {
	Session           sessionView `json:"session"`
	SubscriptionAlert *alertView  `json:"subscription_alert,omitempty"`
}

type alertView struct {
	ExpiredAt string `json:"expired_at"`
}

func viewOfSession(sess authdomain.Session) sessionView {
	perms := make(map[string]bool)
	// Areas is the canonical list shared with the sub-user directory.
	for _, area := range areaNames() {
		perms[area] = sess.Allows(area)
	}

	view := sessionView{
		Role:        string(sess.Role()),
		Email:       sess.Email(),
		DisplayName: sess.DisplayName(),
		OrgID:       sess.OrgID().String(),
		Permissions: perms,
	}
	if org := sess.Organization(); org != nil {
		view.Org = &orgView{
			ID:              org.ID.String(),
			Name:            org.Name,
			OwnerName:       org.OwnerName,
			Tier:            string(org.Tier),
			StartAt:         org.SubscriptionStartAt,
			ExpiresAt:       org.SubscriptionExpiresAt,
			DefaultTemplate: org.DefaultTemplate,
		}
	}
	return view
}

func (s *Server) Login(c *gin.Context) {
	if !s.loginLimiter.Allow(c.Request.Context(), c.ClientIP()) {
		AbortWithError(c, ErrTooManyLogins)
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, ok := s.establisher.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Secret)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, expiresAt, err := s.registry.Issue(sess)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	s.sessions.Set(c, token, expiresAt)

	resp := loginResponse{Session: viewOfSession(sess)}
	if sess.IsAdmin() {
		if alert, ok := s.subscriptionSvc.ConsumeExpiryAlert(sess.OrgID()); ok {
			resp.SubscriptionAlert = &alertView{ExpiredAt: alert.Date()}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, err := s.establisher.Register(c.Request.Context(), authdomain.RegisterRequest{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Secret,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	token, expiresAt, err := s.registry.Issue(sess)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	s.sessions.Set(c, token, expiresAt)

	c.JSON(http.StatusCreated, loginResponse{Session: viewOfSession(sess)})
}

func (s *Server) Logout(c *gin.Context) {
	sess, _ := s.sessionFromContext(c)
	if token, ok := s.sessions.ReadToken(c); ok {
		s.registry.Revoke(token)
	}
	s.sessions.Clear(c)

	if err := s.establisher.Logout(c.Request.Context(), sess); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (s *Server) CurrentSession(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, viewOfSession(sess))
}

func areaNames() []string {
	return subuserdomain.Areas()
}
