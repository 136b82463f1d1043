package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
)

// Profile returns the signed-in resident's account plus the unit they are
// assigned to, when any.
func (s *Server) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	payload := gin.H{"user": user}
	if user.UnitID != nil {
		if unit, err := s.unitSvc.GetByID(c.Request.Context(), user.UnitID.String()); err == nil {
			payload["unit"] = unit
		}
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) ListOwnBills(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req := billingdomain.ListBillsRequest{Params: parseQueryParams(c)}
	if user.OrgID != nil {
		req.OrgID = *user.OrgID
	}
	if user.UnitID != nil {
		req.UnitID = *user.UnitID
	} else {
		req.ResidentID = user.ID
	}

	if raw := c.Query("status"); raw != "" {
		status, err := billingdomain.ParseStatus(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Status = &status
	}

	bills, err := s.billingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (s *Server) OwnBillReceipt(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bill, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// A bill outside the resident's unit reads as absent, not forbidden.
	if !s.ownsBill(user.ID, user.UnitID, bill) {
		AbortWithError(c, billingdomain.ErrBillNotFound)
		return
	}
	s.renderReceipt(c, bill)
}

func (s *Server) OwnDues(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if user.UnitID == nil {
		AbortWithError(c, newValidationError("unit_id", "no_unit_assigned", "no unit is assigned to this account"))
		return
	}

	asOf, ok := s.requestPeriod(c)
	if !ok {
		return
	}
	breakdown, err := s.billingSvc.Dues(c.Request.Context(), *user.UnitID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func (s *Server) ownsBill(userID snowflake.ID, unitID *snowflake.ID, bill billingdomain.MaintenanceBill) bool {
	if bill.ResidentID == userID {
		return true
	}
	return unitID != nil && bill.UnitID == *unitID
}
