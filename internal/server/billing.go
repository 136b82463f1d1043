package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/societyos/upkeep/internal/billing/charge"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/internal/providers/pdf"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
)

func (s *Server) ListBills(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	req := billingdomain.ListBillsRequest{
		OrgID:  orgID,
		Params: parseQueryParams(c),
	}

	if raw := c.Query("unit_id"); raw != "" {
		unitID, err := parseSnowflakeID(raw)
		if err != nil {
			AbortWithError(c, newValidationError("unit_id", "invalid_unit", "unit_id must be an id"))
			return
		}
		req.UnitID = unitID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := billingdomain.ParseStatus(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Status = &status
	}

	month, err := parseOptionalInt(c.Query("bill_month"))
	if err != nil {
		AbortWithError(c, newValidationError("bill_month", "invalid_month", "bill_month must be a number"))
		return
	}
	year, err := parseOptionalInt(c.Query("bill_year"))
	if err != nil {
		AbortWithError(c, newValidationError("bill_year", "invalid_year", "bill_year must be a number"))
		return
	}
	req.BillMonth = month
	req.BillYear = year

	bills, err := s.billingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (s *Server) GenerateBills(c *gin.Context) {
	var req billingdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if req.OrgID == 0 {
		orgID, ok := s.requestOrgID(c)
		if !ok {
			return
		}
		req.OrgID = orgID
	}
	if !s.canAccessOrg(c, req.OrgID.String()) {
		return
	}
	if req.Period == (billingdomain.Period{}) {
		req.Period = billingdomain.PeriodOf(s.clock.Now())
	}

	report, err := s.billingSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) GetBill(c *gin.Context) {
	bill, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, bill.OrgID.String()) {
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (s *Server) UpdateBillStatus(c *gin.Context) {
	var body struct {
		Status     string `json:"status"`
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	to, err := billingdomain.ParseStatus(body.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bill, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, bill.OrgID.String()) {
		return
	}

	updated, err := s.billingSvc.UpdateStatus(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) BillReceipt(c *gin.Context) {
	bill, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, bill.OrgID.String()) {
		return
	}
	s.renderReceipt(c, bill)
}

func (s *Server) UnitDues(c *gin.Context) {
	unitID, err := parseSnowflakeID(c.Query("unit_id"))
	if err != nil {
		AbortWithError(c, newValidationError("unit_id", "invalid_unit", "unit_id is required"))
		return
	}
	unit, err := s.unitSvc.GetByID(c.Request.Context(), unitID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canAccessOrg(c, unit.OrgID.String()) {
		return
	}

	asOf, ok := s.requestPeriod(c)
	if !ok {
		return
	}
	breakdown, err := s.billingSvc.Dues(c.Request.Context(), unitID, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// requestPeriod reads the optional month and year query parameters, falling
// back to the current period.
func (s *Server) requestPeriod(c *gin.Context) (billingdomain.Period, bool) {
	period := billingdomain.PeriodOf(s.clock.Now())

	month, err := parseOptionalInt(c.Query("month"))
	if err != nil {
		AbortWithError(c, newValidationError("month", "invalid_month", "month must be a number"))
		return billingdomain.Period{}, false
	}
	year, err := parseOptionalInt(c.Query("year"))
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "year must be a number"))
		return billingdomain.Period{}, false
	}
	if month != nil {
		period.Month = *month
	}
	if year != nil {
		period.Year = *year
	}
	if !period.Valid() {
		AbortWithError(c, billingdomain.ErrInvalidPeriod)
		return billingdomain.Period{}, false
	}
	return period, true
}

func (s *Server) renderReceipt(c *gin.Context, bill billingdomain.MaintenanceBill) {
	ctx := c.Request.Context()

	org, err := s.orgSvc.GetByID(ctx, bill.OrgID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	unit, err := s.unitSvc.GetByID(ctx, bill.UnitID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	residentName := ""
	if bill.ResidentID != 0 {
		if resident, err := s.authSvc.GetUser(ctx, bill.ResidentID); err == nil {
			residentName = resident.DisplayName
		}
	}

	reader, err := s.pdfSvc.GenerateReceipt(ctx, receiptData(org, unit, bill, residentName))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}

	filename := fmt.Sprintf("receipt-%s-%s.pdf", bill.Period(), unit.UnitNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}

func receiptData(org *orgdomain.Organization, unit *unitdomain.Unit, bill billingdomain.MaintenanceBill, residentName string) pdf.ReceiptData {
	lines := []pdf.ReceiptLine{{
		Description: fmt.Sprintf("Maintenance %s", bill.Period()),
		Amount:      bill.Amount.StringFixed(2),
	}}
	for _, extra := range bill.Extras {
		lines = append(lines, pdf.ReceiptLine{
			Description: extra.Name,
			Amount:      extra.Amount.StringFixed(2),
		})
	}
	penalty := bill.Penalty.Add(bill.LateFee)
	if penalty.IsPositive() {
		lines = append(lines, pdf.ReceiptLine{
			Description: "Late payment penalty",
			Amount:      penalty.StringFixed(2),
		})
	}

	extrasTotal := charge.SumExtras(bill.Extras)
	total := bill.Amount.Add(extrasTotal).Add(penalty)

	return pdf.ReceiptData{
		OrgName:       org.Name,
		OrgAddress:    orgAddress(org),
		ReceiptNumber: fmt.Sprintf("RCP-%s-%s", bill.Period(), bill.ID),
		IssueDate:     bill.CreatedAt.Format("02 Jan 2006"),
		Period:        bill.Period().String(),
		DueDate:       bill.DueDate.Format("02 Jan 2006"),
		Status:        string(bill.Status),
		ResidentName:  residentName,
		UnitNumber:    unit.UnitNumber,
		Lines:         lines,
		BaseAmount:    bill.Amount.StringFixed(2),
		ExtrasTotal:   extrasTotal.StringFixed(2),
		Penalty:       penalty.StringFixed(2),
		Total:         total.StringFixed(2),
	}
}

func orgAddress(org *orgdomain.Organization) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{org.Address, org.City, org.State, org.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
