package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
)

// requestOrgID resolves the society the request operates on. Admins are
// pinned to their own society; the owner selects one via the
// organization_id query parameter.
func (s *Server) requestOrgID(c *gin.Context) (snowflake.ID, bool) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}
	if user.Role != authdomain.RoleOwner {
		if user.OrgID == nil {
			AbortWithError(c, ErrForbidden)
			return 0, false
		}
		return *user.OrgID, true
	}

	orgID, err := parseSnowflakeID(c.Query("organization_id"))
	if err != nil {
		AbortWithError(c, newValidationError("organization_id", "invalid_organization", "organization_id is required"))
		return 0, false
	}
	return orgID, true
}

func (s *Server) ListUnits(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	isTenant, err := parseOptionalBool(c.Query("is_tenant"))
	if err != nil {
		AbortWithError(c, newValidationError("is_tenant", "invalid_bool", "is_tenant must be a boolean"))
		return
	}

	units, err := s.unitSvc.List(c.Request.Context(), unitdomain.ListUnitsRequest{
		OrgID:    orgID,
		IsTenant: isTenant,
		Params:   parseQueryParams(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func (s *Server) CreateUnit(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	var req unitdomain.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID

	unit, err := s.unitSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (s *Server) GetUnit(c *gin.Context) {
	unit, err := s.unitSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, unit.OrgID.String()) {
		return
	}
	c.JSON(http.StatusOK, unit)
}

func (s *Server) UpdateUnit(c *gin.Context) {
	unit, err := s.unitSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, unit.OrgID.String()) {
		return
	}

	var req unitdomain.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.unitSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteUnit(c *gin.Context) {
	unit, err := s.unitSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, unit.OrgID.String()) {
		return
	}

	if err := s.unitSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type AssignResidentRequest struct {
	ResidentID snowflake.ID `json:"resident_id"`
}

func (s *Server) AssignResident(c *gin.Context) {
	unit, err := s.unitSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, unit.OrgID.String()) {
		return
	}

	var req AssignResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.unitSvc.AssignResident(c.Request.Context(), c.Param("id"), req.ResidentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
