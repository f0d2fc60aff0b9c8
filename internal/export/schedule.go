package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/Dan9191/construction-accounting/internal/models"
)

// ScheduleXML renders a plan, its installments and its summary as an XML
// document. Late flags are evaluated against asOf.
func ScheduleXML(plan *models.PaymentPlan, summary *models.PlanSummary, asOf time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("PaymentPlan")
	root.CreateAttr("id", strconv.FormatInt(plan.ID, 10))
	root.CreateAttr("planNo", plan.PlanNo)
	root.CreateAttr("generatedAt", asOf.UTC().Format(time.RFC3339))

	terms := root.CreateElement("Terms")
	terms.CreateElement("CustomerID").SetText(strconv.FormatInt(plan.CustomerID, 10))
	terms.CreateElement("Title").SetText(plan.Title)
	terms.CreateElement("TotalAmount").SetText(plan.TotalAmount.StringFixed(2))
	terms.CreateElement("DownPayment").SetText(plan.DownPayment.StringFixed(2))
	terms.CreateElement("InterestRate").SetText(plan.InterestRate.String())
	terms.CreateElement("NumberOfInstallments").SetText(strconv.Itoa(plan.NumberOfInstallments))
	terms.CreateElement("StartDate").SetText(plan.StartDate.Format(time.DateOnly))
	terms.CreateElement("PaymentDay").SetText(strconv.Itoa(plan.PaymentDay))

	list := root.CreateElement("Installments")
	for _, inst := range plan.Installments {
		el := list.CreateElement("Installment")
		el.CreateAttr("no", strconv.Itoa(inst.InstallmentNo))
		el.CreateAttr("status", string(inst.Status))
		el.CreateAttr("late", strconv.FormatBool(inst.IsLate(asOf)))
		el.CreateElement("DueDate").SetText(inst.DueDate.Format(time.DateOnly))
		el.CreateElement("Amount").SetText(inst.Amount.StringFixed(2))
		if inst.PaymentDate != nil {
			el.CreateElement("PaymentDate").SetText(inst.PaymentDate.Format(time.DateOnly))
			el.CreateElement("PaymentType").SetText(string(inst.PaymentType))
		}
	}

	if summary != nil {
		s := root.CreateElement("Summary")
		s.CreateElement("TotalPaid").SetText(summary.TotalPaid.StringFixed(2))
		s.CreateElement("TotalPending").SetText(summary.TotalPending.StringFixed(2))
		s.CreateElement("CompletedInstallments").SetText(strconv.Itoa(summary.CompletedInstallments))
		s.CreateElement("PendingInstallments").SetText(strconv.Itoa(summary.PendingInstallments))
		s.CreateElement("LateInstallments").SetText(strconv.Itoa(summary.LateInstallments))
		s.CreateElement("TotalLateAmount").SetText(summary.TotalLateAmount.StringFixed(2))
		s.CreateElement("RemainingBalance").SetText(summary.RemainingBalance.StringFixed(2))
		s.CreateElement("IsCompleted").SetText(strconv.FormatBool(summary.IsCompleted))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write schedule xml: %w", err)
	}
	return out, nil
}
