package service_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/infra/cache"
	"github.com/boddenberg/driver-finance-go/internal/infra/memory"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"go.uber.org/zap"
)

// 2024-03-06 is a Wednesday.
var fixedNow = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	metrics  *observability.Metrics
	configs  *service.ConfigService
	records  *service.RecordService
	analysis *service.AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	clock := service.NewClock(time.UTC, func() time.Time { return fixedNow })

	c := cache.New[*domain.ConfigVersion](time.Minute)
	t.Cleanup(c.Close)

	configs := service.NewConfigService(store, c, clock, metrics, logger)
	return &fixture{
		store:    store,
		metrics:  metrics,
		configs:  configs,
		records:  service.NewRecordService(store, configs, metrics, logger),
		analysis: service.NewAnalysisService(store, configs, clock, 90, metrics, logger),
	}
}

func scenarioConfig(effective string) *domain.ConfigVersionInput {
	return &domain.ConfigVersionInput{
		EffectiveDate:        effective,
		CarModel:             "Onix",
		GasPrice:             6.0,
		FuelEfficiency:       10,
		MaintenanceCostPerKm: 0.2,
		AppFeePerRide:        1.5,
		MonthlyCarWash:       25,
		AvgWorkDaysPerMonth:  25,
		WorkDaysPerYear:      260,
	}
}

func hours(v float64) *float64 { return &v }

func scenarioRecord(date string) *domain.RecordInput {
	return &domain.RecordInput{
		RecordDate:   date,
		GrossRevenue: 200,
		KmDriven:     50,
		TotalRides:   20,
		HoursWorking: hours(8),
	}
}

func near(a, b float64) bool { return math.Abs(a-b) <= 1e-6 }

func TestRecordService_SaveComputesAndStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01")); err != nil {
		t.Fatalf("create config: %v", err)
	}

	res, err := f.records.Save(ctx, "u1", scenarioRecord("2024-03-04"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.Created {
		t.Error("expected a new record")
	}
	if !near(res.Record.Costs.TotalOperationalCosts, 71) || !near(res.Record.OperationalProfit, 129) {
		t.Errorf("unexpected figures: costs=%v profit=%v", res.Record.Costs.TotalOperationalCosts, res.Record.OperationalProfit)
	}
	if !near(res.Metrics.ProfitMargin, 64.5) || !near(res.Metrics.ProfitPerKm, 2.58) {
		t.Errorf("unexpected metrics: %+v", res.Metrics)
	}
	if res.Metrics.ProfitPerHour == nil || !near(*res.Metrics.ProfitPerHour, 16.125) {
		t.Errorf("unexpected per-hour: %v", res.Metrics.ProfitPerHour)
	}
	if res.Record.ConfigVersionID == "" {
		t.Error("expected config version id to be recorded")
	}
	// IPVA and insurance are zero in this config
	if len(res.Advisories) == 0 {
		t.Error("expected the missing IPVA/insurance advisory")
	}

	stored, err := f.records.Get(ctx, "u1", "2024-03-04")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ID != res.Record.ID || !near(stored.NetProfit, 129) {
		t.Errorf("unexpected stored record: %+v", stored)
	}
}

func TestRecordService_SaveSameDateUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	first, err := f.records.Save(ctx, "u1", scenarioRecord("2024-03-04"))
	if err != nil {
		t.Fatal(err)
	}

	in := scenarioRecord("2024-03-04")
	in.GrossRevenue = 300
	second, err := f.records.Save(ctx, "u1", in)
	if err != nil {
		t.Fatal(err)
	}

	if second.Created {
		t.Error("expected an update")
	}
	if second.Record.ID != first.Record.ID {
		t.Errorf("expected same id, got %s and %s", first.Record.ID, second.Record.ID)
	}
	if !near(second.Record.OperationalProfit, 229) {
		t.Errorf("expected recomputed profit 229, got %v", second.Record.OperationalProfit)
	}

	all, _ := f.records.List(ctx, "u1", "", "", false)
	if len(all) != 1 {
		t.Errorf("expected one record, got %d", len(all))
	}
}

func TestRecordService_MissingConfiguration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-03-01"))

	_, err := f.records.Save(ctx, "u1", scenarioRecord("2024-02-28"))
	var missing *domain.ErrMissingConfiguration
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
	if missing.Date != "2024-02-28" {
		t.Errorf("unexpected date %q", missing.Date)
	}
}

func TestRecordService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	tests := []struct {
		name  string
		in    *domain.RecordInput
		field string
	}{
		{"negative revenue", &domain.RecordInput{RecordDate: "2024-03-04", GrossRevenue: -1}, "gross_revenue"},
		{"bad date", &domain.RecordInput{RecordDate: "04/03/2024"}, "record_date"},
		{"too many hours", &domain.RecordInput{RecordDate: "2024-03-04", HoursOnline: hours(25)}, "hours_online"},
		{"both payment shapes", &domain.RecordInput{RecordDate: "2024-03-04", Payments: domain.Payments{
			ByMethod:  &domain.MethodPayments{Debit: 1},
			ByChannel: &domain.ChannelPayments{InApp: 1},
		}}, "payments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.records.Save(ctx, "u1", tt.in)
			var v *domain.ErrValidation
			if !errors.As(err, &v) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if v.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, v.Field)
			}
		})
	}
}

func TestRecordService_RejectsNonFiniteFigures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	in := &domain.RecordInput{RecordDate: "2024-03-05", GrossRevenue: 1e300, KmDriven: 1e-300, TotalRides: 1}
	_, err := f.records.Save(ctx, "u1", in)
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v.Field != "profit_per_km" {
		t.Errorf("expected profit_per_km, got %q", v.Field)
	}
	if _, err := f.records.Get(ctx, "u1", "2024-03-05"); err == nil {
		t.Error("record must not be stored")
	}

	// Later analysis keeps working
	f.records.Save(ctx, "u1", scenarioRecord("2024-03-06"))
	if _, err := f.analysis.Dashboard(ctx, "u1", "2024-03-06"); err != nil {
		t.Errorf("dashboard: %v", err)
	}
}

func TestAnalysisService_StoredNonFiniteRecordDoesNotBreakAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	// A row written before figures were checked
	f.store.CreateRecord(ctx, &domain.DailyRecord{
		UserID: "u1", RecordDate: "2024-03-05",
		GrossRevenue: 1e300, KmDriven: 1e-300, TotalRides: 1,
		OperationalProfit: 1e300, NetProfit: 1e300,
	})
	if _, err := f.records.Save(ctx, "u1", scenarioRecord("2024-03-06")); err != nil {
		t.Fatal(err)
	}

	dash, err := f.analysis.Dashboard(ctx, "u1", "2024-03-06")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Baseline != nil {
		t.Errorf("expected the broken row to be left out of the baseline, got %+v", dash.Baseline)
	}
	if _, err := f.analysis.MonthlyReport(ctx, "u1", "2024-03"); err != nil {
		t.Errorf("monthly: %v", err)
	}
}

func TestRecordService_PreviewDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	in := scenarioRecord("2024-03-04")
	in.Payments = domain.Payments{ByChannel: &domain.ChannelPayments{InApp: 180, OutsideApp: 30}}

	res, err := f.records.Preview(ctx, "u1", in)
	if err != nil {
		t.Fatal(err)
	}
	if res.Payments.Advisory == "" || res.Payments.Consistent {
		t.Errorf("expected a payment advisory, got %+v", res.Payments)
	}

	_, err = f.records.Get(ctx, "u1", "2024-03-04")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("preview must not persist, got %v", err)
	}
}

func TestRecordService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		if _, err := f.records.Save(ctx, "u1", scenarioRecord(d)); err != nil {
			t.Fatal(err)
		}
	}

	asc, err := f.records.List(ctx, "u1", "2024-03-02", "2024-03-03", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(asc) != 2 || asc[0].RecordDate != "2024-03-02" {
		t.Errorf("unexpected listing: %+v", asc)
	}

	if _, err := f.records.List(ctx, "u1", "2024-03-03", "2024-03-01", true); err == nil {
		t.Error("expected inverted range to fail")
	}

	if err := f.records.Delete(ctx, "u1", asc[0].ID); err != nil {
		t.Fatal(err)
	}
	var nf *domain.ErrNotFound
	if err := f.records.Delete(ctx, "u1", asc[0].ID); !errors.As(err, &nf) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestConfigService_EffectiveVersionAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v1, err := f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.configs.ActiveConfigFor(ctx, "u1", "2024-03-04")
	if err != nil || got.ID != v1.ID {
		t.Fatalf("expected v1, got %+v, %v", got, err)
	}

	// Cached lookup
	if _, err := f.configs.ActiveConfigFor(ctx, "u1", "2024-03-04"); err != nil {
		t.Fatal(err)
	}
	if rate := f.metrics.GetSnapshot().ConfigCacheHitRate; rate <= 0 {
		t.Errorf("expected a cache hit, rate=%v", rate)
	}

	// A newer version must be visible immediately
	in := scenarioConfig("2024-03-01")
	in.GasPrice = 6.5
	v2, err := f.configs.Create(ctx, "u1", in)
	if err != nil {
		t.Fatal(err)
	}
	got, _ = f.configs.ActiveConfigFor(ctx, "u1", "2024-03-04")
	if got.ID != v2.ID {
		t.Errorf("expected v2 after invalidation, got %s", got.ID)
	}
	got, _ = f.configs.ActiveConfigFor(ctx, "u1", "2024-02-29")
	if got.ID != v1.ID {
		t.Errorf("expected v1 before v2's date, got %s", got.ID)
	}
}

func TestConfigService_DuplicateEffectiveDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))
	_, err := f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestConfigService_UpdateKeepsStoredRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, _ := f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))
	saved, err := f.records.Save(ctx, "u1", scenarioRecord("2024-03-04"))
	if err != nil {
		t.Fatal(err)
	}

	in := scenarioConfig("2024-01-01")
	in.GasPrice = 9.0
	updated, err := f.configs.Update(ctx, "u1", v.ID, in)
	if err != nil {
		t.Fatal(err)
	}
	if updated.GasPrice != 9.0 {
		t.Errorf("expected updated gas price, got %v", updated.GasPrice)
	}

	stored, _ := f.records.Get(ctx, "u1", "2024-03-04")
	if !near(stored.Costs.Fuel, saved.Record.Costs.Fuel) {
		t.Errorf("stored record changed: %v -> %v", saved.Record.Costs.Fuel, stored.Costs.Fuel)
	}

	// New saves use the new figures
	resaved, _ := f.records.Save(ctx, "u1", scenarioRecord("2024-03-04"))
	if !near(resaved.Record.Costs.Fuel, 45) {
		t.Errorf("expected fuel 45 with the new price, got %v", resaved.Record.Costs.Fuel)
	}
}

func TestConfigService_ListFlagsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))
	f.configs.Create(ctx, "u1", scenarioConfig("2024-03-01"))
	f.configs.Create(ctx, "u1", scenarioConfig("2024-04-01")) // future

	views, err := f.configs.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(views))
	}
	want := map[string]bool{"2024-04-01": false, "2024-03-01": true, "2024-01-01": false}
	for _, v := range views {
		if v.Active != want[v.EffectiveDate] {
			t.Errorf("%s: active=%v", v.EffectiveDate, v.Active)
		}
	}
	if views[0].EffectiveDate != "2024-04-01" {
		t.Errorf("expected newest first, got %s", views[0].EffectiveDate)
	}
}

func TestConfigService_DefaultsAndLegacyImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.configs.Defaults()
	if d.CarModel != domain.DefaultCarModel || d.EffectiveDate != "2024-03-06" || len(d.Warnings) == 0 {
		t.Errorf("unexpected defaults: %+v", d)
	}

	var nf *domain.ErrNotFound
	if _, err := f.configs.ImportLegacy(ctx, "u1", ""); !errors.As(err, &nf) {
		t.Errorf("expected not found without legacy settings, got %v", err)
	}

	f.store.PutLegacySettings(domain.LegacySettings{
		UserID: "u1", CarModel: "HB20", GasPrice: 5.79, FuelEfficiency: 12,
		MaintenanceCostPerKm: 0.15, AppFeePerRide: 1.0, MonthlyCarWash: 30, AvgWorkDaysPerMonth: 22,
	})
	v, err := f.configs.ImportLegacy(ctx, "u1", "2024-01-15")
	if err != nil {
		t.Fatal(err)
	}
	if v.CarModel != "HB20" || v.EffectiveDate != "2024-01-15" || v.DebitFeePercent != domain.DefaultDebitFeePercent {
		t.Errorf("unexpected imported version: %+v", v)
	}
	if !v.Active {
		t.Error("imported version should be active today")
	}
}

func TestAnalysisService_DashboardWithoutRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	dash, err := f.analysis.Dashboard(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if dash.Date != "2024-03-06" {
		t.Errorf("expected today, got %s", dash.Date)
	}
	if dash.Record != nil || dash.Classification != nil {
		t.Error("expected no record and no classification")
	}
	if len(dash.Insights) != 1 || dash.Insights[0].Code != "no_record" {
		t.Errorf("unexpected insights: %+v", dash.Insights)
	}
	if dash.Config == nil {
		t.Error("expected the effective config")
	}
}

func TestAnalysisService_DashboardSetupRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.analysis.Dashboard(context.Background(), "u1", "2024-03-06")
	var missing *domain.ErrMissingConfiguration
	if !errors.As(err, &missing) {
		t.Errorf("expected missing configuration, got %v", err)
	}
}

func TestAnalysisService_DashboardAgainstHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"} {
		f.records.Save(ctx, "u1", scenarioRecord(d))
	}
	good := scenarioRecord("2024-03-06")
	good.GrossRevenue = 300
	f.records.Save(ctx, "u1", good)

	dash, err := f.analysis.Dashboard(ctx, "u1", "2024-03-06")
	if err != nil {
		t.Fatal(err)
	}
	if dash.Baseline == nil || dash.Baseline.SampleSize != 5 {
		t.Fatalf("expected a 5-day baseline excluding today, got %+v", dash.Baseline)
	}
	if dash.Classification.Policy != domain.PolicyRelative || dash.Classification.Label != domain.LabelGood {
		t.Errorf("unexpected classification: %+v", dash.Classification)
	}
	if dash.Month.RecordCount != 6 || dash.Month.TotalRides != 120 {
		t.Errorf("unexpected month totals: %+v", dash.Month)
	}
}

func TestAnalysisService_DayAnalysisNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.analysis.DayAnalysis(context.Background(), "u1", "2024-03-04")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestAnalysisService_WeeklyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	// Sunday before the week, then Monday and Wednesday inside it
	for _, d := range []string{"2024-03-03", "2024-03-04", "2024-03-06"} {
		f.records.Save(ctx, "u1", scenarioRecord(d))
	}

	report, err := f.analysis.WeeklyReport(ctx, "u1", "2024-03-08")
	if err != nil {
		t.Fatal(err)
	}
	if report.WeekStart != "2024-03-04" || report.WeekEnd != "2024-03-10" {
		t.Errorf("unexpected week bounds %s..%s", report.WeekStart, report.WeekEnd)
	}
	if report.Totals.RecordCount != 2 {
		t.Errorf("expected 2 records in week, got %d", report.Totals.RecordCount)
	}
	if report.AverageDay == nil || !near(report.AverageDay.OperationalProfit, 129) {
		t.Errorf("unexpected average day: %+v", report.AverageDay)
	}
	if report.Classification == nil || report.Classification.Policy != domain.PolicyRelative {
		t.Errorf("expected relative classification from the prior Sunday, got %+v", report.Classification)
	}
}

func TestAnalysisService_MonthlyReportAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.configs.Create(ctx, "u1", scenarioConfig("2024-01-01"))

	for _, d := range []string{"2024-02-28", "2024-03-01", "2024-03-02"} {
		f.records.Save(ctx, "u1", scenarioRecord(d))
	}

	report, err := f.analysis.MonthlyReport(ctx, "u1", "2024-03")
	if err != nil {
		t.Fatal(err)
	}
	if report.Totals.RecordCount != 2 || len(report.Days) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Days[0].Date != "2024-03-01" || report.Days[0].Label == "" {
		t.Errorf("unexpected first day: %+v", report.Days[0])
	}

	var buf bytes.Buffer
	month, err := f.analysis.ExportMonthlyReport(ctx, "u1", "", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if month != "2024-03" {
		t.Errorf("expected the current month, got %s", month)
	}
	if buf.Len() == 0 {
		t.Error("expected a workbook")
	}

	var v *domain.ErrValidation
	if _, err := f.analysis.MonthlyReport(ctx, "u1", "março"); !errors.As(err, &v) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestWeekStart(t *testing.T) {
	tests := map[string]string{
		"2024-03-04": "2024-03-04", // Monday
		"2024-03-06": "2024-03-04",
		"2024-03-10": "2024-03-04", // Sunday
		"2024-03-11": "2024-03-11",
	}
	for in, want := range tests {
		d, _ := time.Parse("2006-01-02", in)
		if got := service.WeekStart(d).Format("2006-01-02"); got != want {
			t.Errorf("WeekStart(%s) = %s, want %s", in, got, want)
		}
	}
}
