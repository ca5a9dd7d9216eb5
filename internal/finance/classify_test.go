package finance_test

import (
	"math"
	"testing"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/finance"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Relative(t *testing.T) {
	base := &domain.Baseline{AvgProfitMargin: 50, AvgProfitPerKm: 2.0, SampleSize: 10}

	tests := []struct {
		name   string
		margin float64
		perKm  float64
		want   domain.PerformanceLabel
	}{
		{"both well above", 60, 2.4, domain.LabelGood},
		{"margin above, per km flat", 60, 2.0, domain.LabelAverage},
		{"margin below", 40, 2.0, domain.LabelPoor},
		{"per km below", 50, 1.6, domain.LabelPoor},
		{"within range", 50, 2.0, domain.LabelAverage},
		{"good margin, poor per km", 60, 1.5, domain.LabelAverage},
		{"poor margin, good per km", 40, 2.5, domain.LabelAverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finance.Classify(domain.ProfitMetrics{ProfitMargin: tt.margin, ProfitPerKm: tt.perKm}, base)
			assert.Equal(t, tt.want, got.Label)
			assert.Equal(t, domain.PolicyRelative, got.Policy)
			assert.Contains(t, got.Explanation, "média histórica")
		})
	}
}

func TestClassify_Absolute(t *testing.T) {
	tests := []struct {
		name   string
		margin float64
		perKm  float64
		want   domain.PerformanceLabel
	}{
		{"good", 45, 3.2, domain.LabelGood},
		{"thresholds are inclusive", 40, 3.0, domain.LabelGood},
		{"low margin", 25, 2.5, domain.LabelPoor},
		{"low per km", 35, 1.5, domain.LabelPoor},
		{"middle", 35, 2.5, domain.LabelAverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := finance.Classify(domain.ProfitMetrics{ProfitMargin: tt.margin, ProfitPerKm: tt.perKm}, nil)
			assert.Equal(t, tt.want, got.Label)
			assert.Equal(t, domain.PolicyAbsolute, got.Policy)
		})
	}
}

func TestClassify_ExplanationCitesFigures(t *testing.T) {
	got := finance.Classify(domain.ProfitMetrics{ProfitMargin: 64.5, ProfitPerKm: 2.58}, nil)

	assert.Equal(t, domain.LabelAverage, got.Label)
	assert.Equal(t, "Desempenho dentro da média. Margem de 64.5% e R$ 2.58/km.", got.Explanation)
}

func TestClassify_NonFiniteFigures(t *testing.T) {
	inf := math.Inf(1)
	base := &domain.Baseline{AvgProfitMargin: 50, AvgProfitPerKm: inf, SampleSize: 3}

	var got domain.Classification
	assert.NotPanics(t, func() {
		got = finance.Classify(domain.ProfitMetrics{ProfitMargin: 60, ProfitPerKm: inf}, base)
	})
	assert.Contains(t, got.Explanation, "n/d")

	assert.NotPanics(t, func() {
		finance.Classify(domain.ProfitMetrics{ProfitMargin: math.NaN(), ProfitPerKm: inf}, nil)
	})
}
