package finance

import (
	"fmt"

	"github.com/boddenberg/driver-finance-go/internal/domain"
)

// Thresholds for rating a day against history.
const (
	relativeGoodFactor = 1.15
	relativePoorFactor = 0.85
)

// Thresholds for rating a day when there is no history.
const (
	absoluteGoodMargin = 40.0
	absoluteGoodPerKm  = 3.0
	absolutePoorMargin = 30.0
	absolutePoorPerKm  = 2.0
)

// Classify rates a day. With a baseline the day must beat history on both
// margin and per-km profit to be Bom, and falling short on either makes
// it Ruim. Without one, fixed thresholds apply the same way. A day that is
// good on one measure and poor on the other is Médio.
func Classify(m domain.ProfitMetrics, b *domain.Baseline) domain.Classification {
	if b == nil {
		return classifyAbsolute(m)
	}
	return classifyRelative(m, b)
}

func rate(marginGood, perKmGood, marginPoor, perKmPoor bool) domain.PerformanceLabel {
	switch {
	case marginGood && perKmGood:
		return domain.LabelGood
	case (marginPoor && !perKmGood) || (perKmPoor && !marginGood):
		return domain.LabelPoor
	default:
		return domain.LabelAverage
	}
}

func classifyRelative(m domain.ProfitMetrics, b *domain.Baseline) domain.Classification {
	c := domain.Classification{Policy: domain.PolicyRelative}
	history := fmt.Sprintf(" Sua média histórica: margem de %s%% e R$ %s/km.",
		pct(b.AvgProfitMargin), money(b.AvgProfitPerKm))

	c.Label = rate(
		m.ProfitMargin >= b.AvgProfitMargin*relativeGoodFactor,
		m.ProfitPerKm >= b.AvgProfitPerKm*relativeGoodFactor,
		m.ProfitMargin < b.AvgProfitMargin*relativePoorFactor,
		m.ProfitPerKm < b.AvgProfitPerKm*relativePoorFactor,
	)

	switch c.Label {
	case domain.LabelGood:
		c.Explanation = fmt.Sprintf("Excelente margem de lucro (%s%%) e rentabilidade por km (R$ %s/km), bem acima da sua média histórica.",
			pct(m.ProfitMargin), money(m.ProfitPerKm)) + history
	case domain.LabelPoor:
		c.Explanation = fmt.Sprintf("Margem de lucro (%s%%) ou lucro por km (R$ %s/km) abaixo da média histórica. Considere revisar estratégia ou custos.",
			pct(m.ProfitMargin), money(m.ProfitPerKm)) + history
	default:
		c.Explanation = fmt.Sprintf("Desempenho dentro da média. Margem de %s%% e R$ %s/km.",
			pct(m.ProfitMargin), money(m.ProfitPerKm)) + history
	}
	return c
}

func classifyAbsolute(m domain.ProfitMetrics) domain.Classification {
	c := domain.Classification{Policy: domain.PolicyAbsolute}

	c.Label = rate(
		m.ProfitMargin >= absoluteGoodMargin,
		m.ProfitPerKm >= absoluteGoodPerKm,
		m.ProfitMargin < absolutePoorMargin,
		m.ProfitPerKm < absolutePoorPerKm,
	)

	switch c.Label {
	case domain.LabelGood:
		c.Explanation = fmt.Sprintf("Excelente margem de lucro (%s%%) e rentabilidade por km (R$ %s/km).",
			pct(m.ProfitMargin), money(m.ProfitPerKm))
	case domain.LabelPoor:
		c.Explanation = fmt.Sprintf("Margem de lucro baixa (%s%%) ou lucro por km insuficiente (R$ %s/km). Considere revisar estratégia.",
			pct(m.ProfitMargin), money(m.ProfitPerKm))
	default:
		c.Explanation = fmt.Sprintf("Desempenho dentro da média. Margem de %s%% e R$ %s/km.",
			pct(m.ProfitMargin), money(m.ProfitPerKm))
	}
	return c
}
