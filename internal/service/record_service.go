package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/finance"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var recordTracer = otel.Tracer("service/records")

// RecordService computes and stores daily records.
type RecordService struct {
	store   port.RecordStore
	configs *ConfigService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewRecordService creates a record service.
func NewRecordService(store port.RecordStore, configs *ConfigService, metrics *observability.Metrics, logger *zap.Logger) *RecordService {
	return &RecordService{
		store:   store,
		configs: configs,
		metrics: metrics,
		logger:  logger,
	}
}

// Save validates the input, applies the config effective on its date and
// persists the record with every derived figure. A date that already has a
// record is updated in place.
func (s *RecordService) Save(ctx context.Context, userID string, in *domain.RecordInput) (*domain.SaveRecordResult, error) {
	ctx, span := recordTracer.Start(ctx, "RecordService.Save")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", in.RecordDate))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("record_save", time.Since(start)) }()

	rec, result, err := s.compute(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	stored, created, err := s.upsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	result.Record = stored
	result.Created = created

	s.metrics.IncrRecordSaved(created)
	if result.Payments.Advisory != "" {
		s.metrics.IncrPaymentAdvisory()
		s.logger.Warn("payment breakdown differs from gross revenue",
			zap.String("user_id", userID),
			zap.String("record_date", stored.RecordDate),
			zap.Float64("difference", result.Payments.Difference),
		)
	}

	s.logger.Info("daily record saved",
		zap.String("user_id", userID),
		zap.String("record_id", stored.ID),
		zap.String("record_date", stored.RecordDate),
		zap.String("config_version_id", stored.ConfigVersionID),
		zap.Bool("created", created),
	)
	return result, nil
}

// Preview runs the same computation as Save without persisting.
func (s *RecordService) Preview(ctx context.Context, userID string, in *domain.RecordInput) (*domain.SaveRecordResult, error) {
	ctx, span := recordTracer.Start(ctx, "RecordService.Preview")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", in.RecordDate))

	rec, result, err := s.compute(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	result.Record = rec
	return result, nil
}

func (s *RecordService) compute(ctx context.Context, userID string, in *domain.RecordInput) (*domain.DailyRecord, *domain.SaveRecordResult, error) {
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	cfg, err := s.configs.ActiveConfigFor(ctx, userID, in.RecordDate)
	if err != nil {
		return nil, nil, err
	}

	rec := in.ToRecord(userID)
	metrics := finance.Apply(rec, cfg)
	if field := finance.NonFiniteField(rec.Costs, metrics); field != "" {
		return nil, nil, &domain.ErrValidation{
			Field:   field,
			Message: "os valores informados geram um resultado fora do intervalo numérico",
		}
	}
	payments := finance.CheckPayments(rec, rec.Costs)

	advisories := make([]string, 0)
	if payments.Advisory != "" {
		advisories = append(advisories, payments.Advisory)
	}
	advisories = append(advisories, finance.ConfigWarnings(cfg)...)

	return rec, &domain.SaveRecordResult{
		Metrics:    metrics,
		Payments:   payments,
		Advisories: advisories,
	}, nil
}

// upsert writes rec, keeping the id of an existing record for the same
// date. A concurrent insert for the date is retried once as an update.
func (s *RecordService) upsert(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.store.GetRecordByDate(ctx, rec.UserID, rec.RecordDate)
		if err != nil {
			return nil, false, s.storeError("lookup", rec, err)
		}

		if existing != nil {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			updated, err := s.store.UpdateRecord(ctx, rec)
			if err != nil {
				return nil, false, s.storeError("update", rec, err)
			}
			return updated, false, nil
		}

		created, err := s.store.CreateRecord(ctx, rec)
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			s.logger.Debug("record inserted concurrently, retrying as update",
				zap.String("user_id", rec.UserID),
				zap.String("record_date", rec.RecordDate),
			)
			continue
		}
		if err != nil {
			return nil, false, s.storeError("create", rec, err)
		}
		return created, true, nil
	}
	return nil, false, &domain.ErrConflict{Message: fmt.Sprintf("registro de %s alterado simultaneamente, tente novamente", rec.RecordDate)}
}

func (s *RecordService) storeError(op string, rec *domain.DailyRecord, err error) error {
	if isDomainError(err) {
		return err
	}
	s.metrics.IncrStoreError("records")
	s.logger.Error("record store failed",
		zap.String("op", op),
		zap.String("user_id", rec.UserID),
		zap.String("record_date", rec.RecordDate),
		zap.Error(err),
	)
	return fmt.Errorf("%s record: %w", op, err)
}

// Get returns the record stored for date.
func (s *RecordService) Get(ctx context.Context, userID, date string) (*domain.DailyRecord, error) {
	ctx, span := recordTracer.Start(ctx, "RecordService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", date))

	if _, err := parseDate("date", date); err != nil {
		return nil, err
	}
	rec, err := s.store.GetRecordByDate(ctx, userID, date)
	if err != nil {
		s.metrics.IncrStoreError("records")
		return nil, fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: date}
	}
	return rec, nil
}

// List returns records between from and to (inclusive, either may be empty).
func (s *RecordService) List(ctx context.Context, userID, from, to string, ascending bool) ([]domain.DailyRecord, error) {
	ctx, span := recordTracer.Start(ctx, "RecordService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("range.from", from), attribute.String("range.to", to))

	if from != "" {
		if _, err := parseDate("from", from); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if _, err := parseDate("to", to); err != nil {
			return nil, err
		}
	}
	if from != "" && to != "" && from > to {
		return nil, &domain.ErrValidation{Field: "from", Message: "deve ser anterior ou igual a 'to'"}
	}

	records, err := s.store.ListRecords(ctx, userID, domain.RecordQuery{From: from, To: to, Ascending: ascending})
	if err != nil {
		s.metrics.IncrStoreError("records")
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Delete removes a record.
func (s *RecordService) Delete(ctx context.Context, userID, recordID string) error {
	ctx, span := recordTracer.Start(ctx, "RecordService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.id", recordID))

	if err := s.store.DeleteRecord(ctx, userID, recordID); err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return err
		}
		s.metrics.IncrStoreError("records")
		return fmt.Errorf("delete record: %w", err)
	}

	s.logger.Info("daily record deleted",
		zap.String("user_id", userID),
		zap.String("record_id", recordID),
	)
	return nil
}
