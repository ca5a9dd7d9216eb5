package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/finance"
	"github.com/boddenberg/driver-finance-go/internal/infra/export"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analysisTracer = otel.Tracer("service/analysis")

const monthLayout = "2006-01"

// AnalysisService evaluates stored days against the driver's history.
type AnalysisService struct {
	records      port.RecordStore
	configs      *ConfigService
	clock        Clock
	baselineDays int
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewAnalysisService creates an analysis service. baselineDays is how far
// back the comparison history reaches.
func NewAnalysisService(records port.RecordStore, configs *ConfigService, clock Clock, baselineDays int, metrics *observability.Metrics, logger *zap.Logger) *AnalysisService {
	if baselineDays < 1 {
		baselineDays = 90
	}
	return &AnalysisService{
		records:      records,
		configs:      configs,
		clock:        clock,
		baselineDays: baselineDays,
		metrics:      metrics,
		logger:       logger,
	}
}

// Dashboard loads the effective config, the day's record, the month so
// far and the baseline history concurrently, then evaluates the day.
func (s *AnalysisService) Dashboard(ctx context.Context, userID, date string) (*domain.Dashboard, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.Dashboard")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard", time.Since(start)) }()

	day, err := s.clock.resolveDate(date)
	if err != nil {
		return nil, err
	}
	dayStr := formatDate(day)
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("date", dayStr))

	var (
		cfg     *domain.ConfigVersion
		today   *domain.DailyRecord
		month   []domain.DailyRecord
		history []domain.DailyRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.configs.ActiveConfigFor(gctx, userID, dayStr)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = s.records.GetRecordByDate(gctx, userID, dayStr)
		return s.wrap("today", err)
	})
	g.Go(func() error {
		var err error
		month, err = s.records.ListRecords(gctx, userID, monthToDate(day))
		return s.wrap("month", err)
	})
	g.Go(func() error {
		var err error
		history, err = s.records.ListRecords(gctx, userID, s.historyBefore(day))
		return s.wrap("history", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	analysis := s.evaluate(dayStr, today, history, month)
	s.logger.Debug("dashboard built",
		zap.String("user_id", userID),
		zap.String("date", dayStr),
		zap.Bool("has_record", today != nil),
		zap.Int("month_records", len(month)),
		zap.Int("history_records", len(history)),
	)

	return &domain.Dashboard{
		DayAnalysis: analysis,
		Config:      cfg,
		Month:       finance.Rollup(month),
	}, nil
}

// DayAnalysis evaluates a stored day.
func (s *AnalysisService) DayAnalysis(ctx context.Context, userID, date string) (*domain.DayAnalysis, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.DayAnalysis")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("date", date))

	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}

	var (
		rec     *domain.DailyRecord
		month   []domain.DailyRecord
		history []domain.DailyRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = s.records.GetRecordByDate(gctx, userID, date)
		return s.wrap("day", err)
	})
	g.Go(func() error {
		var err error
		month, err = s.records.ListRecords(gctx, userID, monthToDate(day))
		return s.wrap("month", err)
	})
	g.Go(func() error {
		var err error
		history, err = s.records.ListRecords(gctx, userID, s.historyBefore(day))
		return s.wrap("history", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: date}
	}

	analysis := s.evaluate(date, rec, history, month)
	return &analysis, nil
}

// WeeklyReport rolls up the Monday to Sunday week containing date and
// rates its average day against the history before the week.
func (s *AnalysisService) WeeklyReport(ctx context.Context, userID, date string) (*domain.WeeklyReport, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.WeeklyReport")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("weekly_report", time.Since(start)) }()

	day, err := s.clock.resolveDate(date)
	if err != nil {
		return nil, err
	}
	weekStart := WeekStart(day)
	weekEnd := weekStart.AddDate(0, 0, 6)
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("week.start", formatDate(weekStart)))

	var week, history []domain.DailyRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		week, err = s.records.ListRecords(gctx, userID, domain.RecordQuery{
			From: formatDate(weekStart), To: formatDate(weekEnd), Ascending: true,
		})
		return s.wrap("week", err)
	})
	g.Go(func() error {
		var err error
		history, err = s.records.ListRecords(gctx, userID, s.historyBefore(weekStart))
		return s.wrap("history", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := finance.Rollup(week)
	report := &domain.WeeklyReport{
		WeekStart:  formatDate(weekStart),
		WeekEnd:    formatDate(weekEnd),
		Totals:     totals,
		AverageDay: finance.AverageDay(totals),
		Records:    week,
	}
	if report.AverageDay != nil {
		c := finance.Classify(*report.AverageDay, finance.ComputeBaseline(history, nil))
		report.Classification = &c
	}
	return report, nil
}

// MonthlyReport rolls up a "YYYY-MM" month and labels each recorded day
// against the history window preceding it.
func (s *AnalysisService) MonthlyReport(ctx context.Context, userID, month string) (*domain.MonthlyReport, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.MonthlyReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("month", month))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("monthly_report", time.Since(start)) }()

	first, err := s.resolveMonth(month)
	if err != nil {
		return nil, err
	}
	last := first.AddDate(0, 1, -1)

	// One read covers the month and the window before its first day.
	all, err := s.records.ListRecords(ctx, userID, domain.RecordQuery{
		From:      formatDate(first.AddDate(0, 0, -s.baselineDays)),
		To:        formatDate(last),
		Ascending: true,
	})
	if err != nil {
		return nil, s.wrap("month", err)
	}

	firstStr := formatDate(first)
	days := make([]domain.DaySummary, 0)
	inMonth := make([]domain.DailyRecord, 0)
	for i := range all {
		rec := &all[i]
		if rec.RecordDate < firstStr {
			continue
		}
		inMonth = append(inMonth, *rec)

		d, err := rec.Date()
		if err != nil {
			return nil, fmt.Errorf("stored record %s has a bad date: %w", rec.ID, err)
		}
		from := formatDate(d.AddDate(0, 0, -s.baselineDays))
		window := make([]domain.DailyRecord, 0)
		for j := range all {
			if all[j].RecordDate >= from && all[j].RecordDate < rec.RecordDate {
				window = append(window, all[j])
			}
		}
		c := finance.Classify(finance.MetricsOf(rec), finance.ComputeBaseline(window, rec))

		days = append(days, domain.DaySummary{
			Date:              rec.RecordDate,
			GrossRevenue:      rec.GrossRevenue,
			OperationalProfit: rec.OperationalProfit,
			NetProfit:         rec.NetProfit,
			KmDriven:          rec.KmDriven,
			TotalRides:        rec.TotalRides,
			Label:             c.Label,
		})
	}

	return &domain.MonthlyReport{
		Month:  first.Format(monthLayout),
		Totals: finance.Rollup(inMonth),
		Days:   days,
	}, nil
}

// ExportMonthlyReport writes the monthly report as an XLSX workbook and
// returns the resolved "YYYY-MM" month.
func (s *AnalysisService) ExportMonthlyReport(ctx context.Context, userID, month string, w io.Writer) (string, error) {
	ctx, span := analysisTracer.Start(ctx, "AnalysisService.ExportMonthlyReport")
	defer span.End()

	report, err := s.MonthlyReport(ctx, userID, month)
	if err != nil {
		return "", err
	}
	if err := export.MonthlyXLSX(w, report); err != nil {
		s.logger.Error("failed to render monthly workbook",
			zap.String("user_id", userID),
			zap.String("month", report.Month),
			zap.Error(err),
		)
		return "", fmt.Errorf("export monthly report: %w", err)
	}
	return report.Month, nil
}

// evaluate rates a day. A missing record yields only the no-record insight.
func (s *AnalysisService) evaluate(date string, rec *domain.DailyRecord, history, month []domain.DailyRecord) domain.DayAnalysis {
	analysis := domain.DayAnalysis{Date: date, Record: rec}
	if rec == nil {
		analysis.Insights = finance.GenerateInsights(nil, nil, month)
		return analysis
	}

	m := finance.MetricsOf(rec)
	baseline := finance.ComputeBaseline(history, rec)
	c := finance.Classify(m, baseline)
	insights := finance.GenerateInsights(rec, baseline, month)

	s.metrics.IncrClassification(c.Label)
	s.metrics.ObserveInsights(insights)

	analysis.Metrics = &m
	analysis.Baseline = baseline
	analysis.Classification = &c
	analysis.Insights = insights
	return analysis
}

func (s *AnalysisService) resolveMonth(month string) (time.Time, error) {
	if month == "" {
		t := s.clock.Today()
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: "month", Message: fmt.Sprintf("mês inválido %q, use AAAA-MM", month)}
	}
	return t, nil
}

// historyBefore is the baseline window ending the day before day.
func (s *AnalysisService) historyBefore(day time.Time) domain.RecordQuery {
	return domain.RecordQuery{
		From: formatDate(day.AddDate(0, 0, -s.baselineDays)),
		To:   formatDate(day.AddDate(0, 0, -1)),
	}
}

func (s *AnalysisService) wrap(what string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	s.metrics.IncrStoreError("records")
	return fmt.Errorf("load %s records: %w", what, err)
}

// monthToDate spans the first of day's month through day.
func monthToDate(day time.Time) domain.RecordQuery {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	return domain.RecordQuery{From: formatDate(first), To: formatDate(day), Ascending: true}
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
