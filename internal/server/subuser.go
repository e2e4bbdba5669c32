package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
)

type CreateSubUserRequest struct {
	Name        string                      `json:"name"`
	Email       string                      `json:"email"`
	Secret      string                      `json:"secret"`
	Permissions subuserdomain.PermissionSet `json:"permissions"`
}

type SetStatusRequest struct {
	Status subuserdomain.Status `json:"status"`
}

func (s *Server) ListSubUsers(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	users, err := s.subUserSvc.List(c.Request.Context(), sess.OrgID())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_users": users})
}

func (s *Server) CreateSubUser(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateSubUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.subUserSvc.Create(c.Request.Context(), subuserdomain.CreateRequest{
		OrgID:       sess.OrgID(),
		Name:        req.Name,
		Email:       req.Email,
		Secret:      req.Secret,
		Permissions: req.Permissions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) GetSubUser(c *gin.Context) {
	user, ok := s.subUserForRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) UpdateSubUser(c *gin.Context) {
	user, ok := s.subUserForRequest(c)
	if !ok {
		return
	}

	var req subuserdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.subUserSvc.Update(c.Request.Context(), user.ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) SetSubUserStatus(c *gin.Context) {
	user, ok := s.subUserForRequest(c)
	if !ok {
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.subUserSvc.SetStatus(c.Request.Context(), user.ID, req.Status); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (s *Server) SelectAllSubUserPermissions(c *gin.Context) {
	user, ok := s.subUserForRequest(c)
	if !ok {
		return
	}

	updated, err := s.subUserSvc.SelectAllPermissions(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) ResetSubUserPermissions(c *gin.Context) {
	user, ok := s.subUserForRequest(c)
	if !ok {
		return
	}

	updated, err := s.subUserSvc.ResetPermissions(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// subUserForRequest parses the :id param and checks the record belongs to
// the caller's organization.
func (s *Server) subUserForRequest(c *gin.Context) (*subuserdomain.SubUser, bool) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return nil, false
	}

	raw, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}

	user, err := s.subUserSvc.GetByID(c.Request.Context(), snowflake.ParseInt64(raw))
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if user.OrgID != sess.OrgID() {
		AbortWithError(c, subuserdomain.ErrSubUserNotFound)
		return nil, false
	}
	return user, true
}
