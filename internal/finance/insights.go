package finance

import (
	"fmt"

	"github.com/boddenberg/driver-finance-go/internal/domain"
)

// MonthInsightMinRecords is how many days a month needs before its
// average profit is commented on.
const MonthInsightMinRecords = 5

// Insight codes.
const (
	InsightNoRecord        = "no_record"
	InsightPerKmHigh       = "profit_per_km_high"
	InsightPerKmLow        = "profit_per_km_low"
	InsightPerHourHigh     = "profit_per_hour_high"
	InsightPerHourLow      = "profit_per_hour_low"
	InsightMarginHigh      = "margin_high"
	InsightMarginLow       = "margin_low"
	InsightRidesLowValue   = "rides_low_value"
	InsightRidesProfitable = "rides_profitable"
	InsightFuelHigh        = "fuel_cost_high"
	InsightFuelLow         = "fuel_cost_low"
	InsightMonthProfitLow  = "month_profit_low"
	InsightMonthProfitHigh = "month_profit_high"
	InsightWithinExpected  = "within_expected"
)

// GenerateInsights evaluates the insight rules in order for today's
// record. baseline may be nil. month holds the records of the current
// period, today included.
func GenerateInsights(today *domain.DailyRecord, baseline *domain.Baseline, month []domain.DailyRecord) []domain.Insight {
	if today == nil {
		return []domain.Insight{newInsight(InsightNoRecord, domain.SeverityInfo,
			"Nenhum Registro Hoje",
			"Você ainda não registrou o dia de hoje. Registre seus ganhos para receber a análise.")}
	}

	m := MetricsOf(today)
	var out []domain.Insight

	if baseline != nil && baseline.AvgProfitPerKm > 0 {
		switch {
		case m.ProfitPerKm > baseline.AvgProfitPerKm*1.15:
			out = append(out, newInsight(InsightPerKmHigh, domain.SeveritySuccess,
				"Lucro por Km Acima da Média",
				fmt.Sprintf("Hoje você lucrou R$ %s/km, acima da sua média de R$ %s/km.",
					money(m.ProfitPerKm), money(baseline.AvgProfitPerKm))))
		case m.ProfitPerKm < baseline.AvgProfitPerKm*0.85:
			out = append(out, newInsight(InsightPerKmLow, domain.SeverityWarning,
				"Lucro por Km Abaixo da Média",
				fmt.Sprintf("Hoje você lucrou R$ %s/km, abaixo da sua média de R$ %s/km. Avalie as corridas aceitas.",
					money(m.ProfitPerKm), money(baseline.AvgProfitPerKm))))
		}
	}

	if m.ProfitPerHour != nil && baseline != nil && baseline.AvgProfitPerHour > 0 {
		perHour := *m.ProfitPerHour
		switch {
		case perHour > baseline.AvgProfitPerHour*1.15:
			out = append(out, newInsight(InsightPerHourHigh, domain.SeveritySuccess,
				"Lucro por Hora Acima da Média",
				fmt.Sprintf("Você lucrou R$ %s por hora trabalhada, acima da sua média de R$ %s/h.",
					money(perHour), money(baseline.AvgProfitPerHour))))
		case perHour < baseline.AvgProfitPerHour*0.85:
			out = append(out, newInsight(InsightPerHourLow, domain.SeverityError,
				"Lucro por Hora Abaixo da Média",
				fmt.Sprintf("Você lucrou R$ %s por hora trabalhada, abaixo da sua média de R$ %s/h. Revise seus horários de trabalho.",
					money(perHour), money(baseline.AvgProfitPerHour))))
		}
	}

	// An undefined margin says nothing about the day.
	if today.GrossRevenue > 0 {
		relative := baseline != nil && baseline.AvgProfitMargin > 0
		switch {
		case (relative && m.ProfitMargin > baseline.AvgProfitMargin*1.10) || m.ProfitMargin >= 40:
			out = append(out, newInsight(InsightMarginHigh, domain.SeveritySuccess,
				"Excelente Margem",
				fmt.Sprintf("Parabéns! Sua margem de lucro de %s%% está excelente hoje.", pct(m.ProfitMargin))))
		case (relative && m.ProfitMargin < baseline.AvgProfitMargin*0.90) || m.ProfitMargin < 30:
			out = append(out, newInsight(InsightMarginLow, domain.SeverityError,
				"Margem de Lucro Baixa",
				fmt.Sprintf("Sua margem de lucro hoje está em %s%%. Considere trabalhar mais horas ou reduzir custos.", pct(m.ProfitMargin))))
		}
	}

	if m.RevenuePerRide != nil {
		perRide := *m.RevenuePerRide
		switch {
		case perRide < 15:
			out = append(out, newInsight(InsightRidesLowValue, domain.SeverityWarning,
				"Corridas de Baixo Valor",
				fmt.Sprintf("Média de R$ %s por corrida. Evite corridas muito curtas para aumentar o lucro.", money(perRide))))
		case perRide >= 25:
			out = append(out, newInsight(InsightRidesProfitable, domain.SeveritySuccess,
				"Corridas Rentáveis",
				fmt.Sprintf("Média excelente de R$ %s por corrida. Continue focando nesse padrão!", money(perRide))))
		}
	}

	if today.GrossRevenue > 0 {
		switch {
		case m.FuelCostPercent > 25:
			out = append(out, newInsight(InsightFuelHigh, domain.SeverityError,
				"Alto Custo de Combustível",
				fmt.Sprintf("Combustível representa %s%% do faturamento. Considere ajustar sua estratégia de corridas.", pct(m.FuelCostPercent))))
		case m.FuelCostPercent < 15:
			out = append(out, newInsight(InsightFuelLow, domain.SeveritySuccess,
				"Combustível Sob Controle",
				fmt.Sprintf("Combustível representa apenas %s%% do faturamento. Ótima eficiência!", pct(m.FuelCostPercent))))
		}
	}

	if len(month) >= MonthInsightMinRecords {
		var sum float64
		for _, r := range month {
			sum += r.OperationalProfit
		}
		avg := sum / float64(len(month))
		switch {
		case avg < 100:
			out = append(out, newInsight(InsightMonthProfitLow, domain.SeverityError,
				"Lucro Médio Baixo",
				fmt.Sprintf("Lucro médio mensal de R$ %s/dia está abaixo do ideal. Revise sua estratégia de trabalho.", money(avg))))
		case avg >= 150:
			out = append(out, newInsight(InsightMonthProfitHigh, domain.SeveritySuccess,
				"Ótimo Lucro Médio",
				fmt.Sprintf("Lucro médio mensal de R$ %s/dia. Continue assim!", money(avg))))
		}
	}

	if len(out) == 0 {
		out = append(out, newInsight(InsightWithinExpected, domain.SeverityInfo,
			"Tudo Certo!",
			"Continue trabalhando bem. Seus números estão dentro do esperado."))
	}
	return out
}

func newInsight(code string, sev domain.InsightSeverity, title, msg string) domain.Insight {
	return domain.Insight{
		Code:     code,
		Severity: sev,
		Style:    sev.Style(),
		Title:    title,
		Message:  msg,
	}
}
