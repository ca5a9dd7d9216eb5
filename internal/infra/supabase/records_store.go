package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// daily_records (implements port.RecordStore)
// ============================================================

// recordRow maps daily_records columns. Payment and cost columns are flat.
type recordRow struct {
	ID           string   `json:"id,omitempty"`
	UserID       string   `json:"user_id"`
	RecordDate   string   `json:"record_date"`
	GrossRevenue float64  `json:"gross_revenue"`
	KmDriven     float64  `json:"km_driven"`
	TotalRides   int      `json:"total_rides"`
	HoursOnline  *float64 `json:"hours_online"`
	HoursWorking *float64 `json:"hours_working"`

	domain.PaymentColumns
	domain.CostBreakdown

	PersonalExpenses            float64 `json:"personal_expenses"`
	PersonalExpensesDescription *string `json:"personal_expenses_description"`
	OperationalProfit           float64 `json:"operational_profit"`
	NetProfit                   float64 `json:"net_profit"`
	ConfigVersionID             *string `json:"config_version_id"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toRecordRow(r *domain.DailyRecord) recordRow {
	row := recordRow{
		ID:                r.ID,
		UserID:            r.UserID,
		RecordDate:        r.RecordDate,
		GrossRevenue:      r.GrossRevenue,
		KmDriven:          r.KmDriven,
		TotalRides:        r.TotalRides,
		HoursOnline:       r.HoursOnline,
		HoursWorking:      r.HoursWorking,
		PaymentColumns:    r.Payments.Columns(),
		CostBreakdown:     r.Costs,
		PersonalExpenses:  r.PersonalExpenses,
		OperationalProfit: r.OperationalProfit,
		NetProfit:         r.NetProfit,
	}
	if r.PersonalExpensesDescription != "" {
		row.PersonalExpensesDescription = &r.PersonalExpensesDescription
	}
	if r.ConfigVersionID != "" {
		row.ConfigVersionID = &r.ConfigVersionID
	}
	return row
}

func (row recordRow) toDomain() domain.DailyRecord {
	r := domain.DailyRecord{
		ID:                row.ID,
		UserID:            row.UserID,
		RecordDate:        normalizeDate(row.RecordDate),
		GrossRevenue:      row.GrossRevenue,
		KmDriven:          row.KmDriven,
		TotalRides:        row.TotalRides,
		HoursOnline:       row.HoursOnline,
		HoursWorking:      row.HoursWorking,
		Payments:          row.PaymentColumns.Payments(),
		PersonalExpenses:  row.PersonalExpenses,
		Costs:             row.CostBreakdown,
		OperationalProfit: row.OperationalProfit,
		NetProfit:         row.NetProfit,
	}
	if row.PersonalExpensesDescription != nil {
		r.PersonalExpensesDescription = *row.PersonalExpensesDescription
	}
	if row.ConfigVersionID != nil {
		r.ConfigVersionID = *row.ConfigVersionID
	}
	if row.CreatedAt != nil {
		r.CreatedAt = *row.CreatedAt
	}
	if row.UpdatedAt != nil {
		r.UpdatedAt = *row.UpdatedAt
	}
	return r
}

// normalizeDate trims a timestamp rendering of a date column.
func normalizeDate(s string) string {
	if len(s) > len(domain.DateLayout) {
		return s[:len(domain.DateLayout)]
	}
	return s
}

// GetRecordByDate fetches the user's record for a date, nil when absent.
func (c *Client) GetRecordByDate(ctx context.Context, userID, date string) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRecordByDate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", date))

	var record *domain.DailyRecord
	err := c.execute(ctx, "supabase/records", func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&record_date=eq.%s&limit=1",
			tableRecords, url.QueryEscape(userID), url.QueryEscape(date))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			r := rows[0].toDomain()
			record = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord fetches a record by id.
func (c *Client) GetRecord(ctx context.Context, userID, recordID string) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.id", recordID))

	var record *domain.DailyRecord
	err := c.execute(ctx, "supabase/records", func() error {
		path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s&limit=1",
			tableRecords, url.QueryEscape(recordID), url.QueryEscape(userID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "daily_record", ID: recordID})
		}
		r := rows[0].toDomain()
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords lists the user's records in a date range.
func (c *Client) ListRecords(ctx context.Context, userID string, q domain.RecordQuery) ([]domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecords")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("range.from", q.From),
		attribute.String("range.to", q.To),
	)

	var records []domain.DailyRecord
	err := c.execute(ctx, "supabase/records", func() error {
		body, err := c.doGet(ctx, recordsQueryPath(userID, q))
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		records = make([]domain.DailyRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, row.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func recordsQueryPath(userID string, q domain.RecordQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s?user_id=eq.%s", tableRecords, url.QueryEscape(userID))
	if q.From != "" {
		fmt.Fprintf(&b, "&record_date=gte.%s", url.QueryEscape(q.From))
	}
	if q.To != "" {
		fmt.Fprintf(&b, "&record_date=lte.%s", url.QueryEscape(q.To))
	}
	if q.Ascending {
		b.WriteString("&order=record_date.asc")
	} else {
		b.WriteString("&order=record_date.desc")
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, "&limit=%d", q.Limit)
	}
	return b.String()
}

// CreateRecord inserts a record. The (user_id, record_date) unique index
// surfaces as *domain.ErrConflict.
func (c *Client) CreateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", rec.UserID), attribute.String("record.date", rec.RecordDate))

	row := toRecordRow(rec)
	row.ID = ""

	var created *domain.DailyRecord
	err := c.execute(ctx, "supabase/records", func() error {
		body, err := c.doPost(ctx, tableRecords, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(fmt.Errorf("insert into %s returned no rows", tableRecords))
		}
		r := rows[0].toDomain()
		created = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateRecord overwrites a record in place.
func (c *Client) UpdateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", rec.UserID), attribute.String("record.id", rec.ID))

	row := toRecordRow(rec)
	row.ID = ""
	now := time.Now().UTC()
	row.UpdatedAt = &now

	var updated *domain.DailyRecord
	err := c.execute(ctx, "supabase/records", func() error {
		path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
			tableRecords, url.QueryEscape(rec.ID), url.QueryEscape(rec.UserID))
		body, err := c.doPatch(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "daily_record", ID: rec.ID})
		}
		r := rows[0].toDomain()
		updated = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRecord removes a record owned by the user.
func (c *Client) DeleteRecord(ctx context.Context, userID, recordID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.id", recordID))

	return c.execute(ctx, "supabase/records", func() error {
		path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
			tableRecords, url.QueryEscape(recordID), url.QueryEscape(userID))
		body, err := c.doDelete(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[recordRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "daily_record", ID: recordID})
		}
		return nil
	})
}
