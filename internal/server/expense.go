package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	expensedomain "github.com/societyos/upkeep/internal/expense/domain"
)

func (s *Server) ListExpenses(c *gin.Context) {
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

	expenses, err := s.expenseSvc.List(c.Request.Context(), expensedomain.ListExpensesRequest{
		OrgID:  orgID,
		Month:  month,
		Year:   year,
		Params: parseQueryParams(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) CreateExpense(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req expensedomain.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrgID = orgID
	req.CreatedBy = user.ID

	expense, err := s.expenseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (s *Server) GetExpense(c *gin.Context) {
	expense, err := s.expenseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, expense.OrgID.String()) {
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (s *Server) UpdateExpense(c *gin.Context) {
	expense, err := s.expenseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, expense.OrgID.String()) {
		return
	}

	var req expensedomain.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.expenseSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteExpense(c *gin.Context) {
	expense, err := s.expenseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, expense.OrgID.String()) {
		return
	}

	if err := s.expenseSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
