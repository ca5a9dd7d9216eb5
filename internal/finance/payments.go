package finance

import (
	"fmt"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/shopspring/decimal"
)

// paymentTolerance is the rounding slack allowed between itemized
// payments and gross revenue.
var paymentTolerance = decimal.NewFromFloat(0.01)

// CheckPayments reconciles the itemized payments of rec against its gross
// revenue. A mismatch only produces an advisory: it may be a tip.
func CheckPayments(rec *domain.DailyRecord, costs domain.CostBreakdown) domain.PaymentSummary {
	s := domain.PaymentSummary{Kind: rec.Payments.Kind(), Consistent: true}

	total, itemized := rec.Payments.Total()
	if !itemized {
		return s
	}
	if !finite(total) || !finite(rec.GrossRevenue) {
		s.Consistent = false
		s.Advisory = "Os valores recebidos não puderam ser conferidos com o faturamento bruto."
		return s
	}
	s.TotalReceived = total

	switch p := rec.Payments; s.Kind {
	case domain.PaymentKindMethod:
		s.DebitFee = costs.DebitFee
		s.CreditFee = costs.CreditFee
		s.NetDebit = p.ByMethod.Debit - costs.DebitFee
		s.NetCredit = p.ByMethod.Credit - costs.CreditFee
		s.CashPix = p.ByMethod.CashPix
		s.TotalNet = s.NetDebit + s.NetCredit + s.CashPix
	case domain.PaymentKindChannel:
		s.TotalNet = total
	}

	diff := decimal.NewFromFloat(total).Sub(decimal.NewFromFloat(rec.GrossRevenue))
	s.Difference = diff.InexactFloat64()
	if diff.Abs().LessThanOrEqual(paymentTolerance) {
		return s
	}

	s.Consistent = false
	hint := "Verifique os valores."
	if diff.IsPositive() {
		hint = "Pode indicar gorjeta recebida!"
	}
	s.Advisory = fmt.Sprintf("A soma dos valores recebidos (R$ %s) difere do faturamento bruto (R$ %s). Diferença de R$ %s. %s",
		money(total), money(rec.GrossRevenue), diff.Abs().StringFixed(2), hint)
	if s.Kind == domain.PaymentKindMethod {
		s.Advisory += fmt.Sprintf("\n\nTaxas: Débito R$ %s | Crédito R$ %s | Líquido Real: R$ %s",
			money(s.DebitFee), money(s.CreditFee), money(s.TotalNet))
	}
	return s
}
