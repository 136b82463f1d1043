package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
)

func (s *Server) ListUsers(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	users, err := s.authSvc.ListUsers(c.Request.Context(), authdomain.ListUsersRequest{
		OrgID: orgID,
		Role:  strings.ToUpper(strings.TrimSpace(c.Query("role"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser onboards a resident or admin account. Admins can only create
// accounts inside their own society; role escalation to OWNER is rejected.
func (s *Server) CreateUser(c *gin.Context) {
	actor := currentUser(c)
	if actor == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req authdomain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if actor.Role != authdomain.RoleOwner {
		if role == authdomain.RoleOwner {
			AbortWithError(c, ErrForbidden)
			return
		}
		req.OrgID = actor.OrgID
	}
	if req.OrgID != nil && !s.canAccessOrg(c, req.OrgID.String()) {
		return
	}

	user, err := s.authSvc.CreateUser(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
