package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
)

func (s *Server) ListOrganizations(c *gin.Context) {
	user := currentUser(c)

	// Admins only ever see their own society.
	if user != nil && user.Role != authdomain.RoleOwner {
		if user.OrgID == nil {
			c.JSON(http.StatusOK, []orgdomain.Organization{})
			return
		}
		org, err := s.orgSvc.GetByID(c.Request.Context(), user.OrgID.String())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, []orgdomain.Organization{*org})
		return
	}

	orgs, err := s.orgSvc.List(c.Request.Context(), parseQueryParams(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orgs)
}

func (s *Server) CreateOrganization(c *gin.Context) {
	var req orgdomain.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.orgSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) GetOrganization(c *gin.Context) {
	if !s.canAccessOrg(c, c.Param("id")) {
		return
	}

	org, err := s.orgSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	if !s.canAccessOrg(c, c.Param("id")) {
		return
	}

	var req orgdomain.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.orgSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) DeleteOrganization(c *gin.Context) {
	if err := s.orgSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) UpdateBillingSettings(c *gin.Context) {
	if !s.canAccessOrg(c, c.Param("id")) {
		return
	}

	var req orgdomain.BillingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.orgSvc.UpdateBillingSettings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) AddExtra(c *gin.Context) {
	if !s.canAccessOrg(c, c.Param("id")) {
		return
	}

	var extra orgdomain.ExtraItem
	if err := c.ShouldBindJSON(&extra); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.orgSvc.AddExtra(c.Request.Context(), c.Param("id"), extra)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (s *Server) RemoveExtra(c *gin.Context) {
	if !s.canAccessOrg(c, c.Param("id")) {
		return
	}

	org, err := s.orgSvc.RemoveExtra(c.Request.Context(), c.Param("id"), c.Param("extraId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// canAccessOrg rejects admins reaching outside their own society. The
// owner passes unconditionally.
func (s *Server) canAccessOrg(c *gin.Context, orgID string) bool {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return false
	}
	if user.Role == authdomain.RoleOwner {
		return true
	}
	if user.OrgID == nil || user.OrgID.String() != strings.TrimSpace(orgID) {
		AbortWithError(c, ErrForbidden)
		return false
	}
	return true
}
