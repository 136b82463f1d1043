package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	incomedomain "github.com/societyos/upkeep/internal/income/domain"
)

func (s *Server) ListIncomes(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	month, err := parseOptionalInt(c.Query("month"))
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month must be a number"))
		return
	}
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "year must be a number"))
		return
	}

	incomes, err := s.incomeSvc.List(c.Request.Context(), incomedomain.ListIncomesRequest{
		OrgID:  orgID,
		Month:  month,
		Year:   year,
		Params: parseQueryParams(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, incomes)
}

func (s *Server) CreateIncome(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req incomedomain.CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.CreatedBy = user.ID

	income, err := s.incomeSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, income)
}

func (s *Server) GetIncome(c *gin.Context) {
	income, err := s.incomeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, income.OrgID.String()) {
		return
	}
	c.JSON(http.StatusOK, income)
}

func (s *Server) UpdateIncome(c *gin.Context) {
	income, err := s.incomeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, income.OrgID.String()) {
		return
	}

	var req incomedomain.UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.incomeSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteIncome(c *gin.Context) {
	income, err := s.incomeSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, income.OrgID.String()) {
		return
	}

	if err := s.incomeSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
