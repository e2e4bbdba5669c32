package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
)

func (s *Server) UpgradeSubscription(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	org, err := s.subscriptionSvc.Upgrade(c.Request.Context(), sess.OrgID())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Mirror the new subscription into the stored session so the next
	// session read reflects it.
	if token, ok := s.tokenFromContext(c); ok {
		s.registry.Replace(token, authdomain.NewAdminSession(sess.AccountID(), sess.Email(), org))
	}
	c.JSON(http.StatusOK, org)
}

// SubscriptionAlert hands out the pending downgrade notice, at most once.
func (s *Server) SubscriptionAlert(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	alert, ok := s.subscriptionSvc.ConsumeExpiryAlert(sess.OrgID())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"alert": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alertView{ExpiredAt: alert.Date()}})
}
