package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/port"
)

var _ port.Store = (*Store)(nil)

func hours(v float64) *float64 { return &v }

func TestStore_CreateAndGetRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateRecord(ctx, &domain.DailyRecord{
		UserID:       "u1",
		RecordDate:   "2024-03-04",
		GrossRevenue: 300,
		HoursWorking: hours(8),
	})
	if err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.GetRecordByDate(ctx, "u1", "2024-03-04")
	if err != nil {
		t.Fatalf("GetRecordByDate failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("expected record %s, got %+v", created.ID, got)
	}

	// Mutating the returned copy must not leak into the store
	*got.HoursWorking = 1
	again, _ := store.GetRecord(ctx, "u1", created.ID)
	if *again.HoursWorking != 8 {
		t.Errorf("store was mutated through a returned pointer: %v", *again.HoursWorking)
	}
}

func TestStore_RecordByDate_Absent(t *testing.T) {
	got, err := New().GetRecordByDate(context.Background(), "u1", "2024-03-04")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil; got %+v, %v", got, err)
	}
}

func TestStore_DuplicateRecordDate(t *testing.T) {
	store := New()
	ctx := context.Background()

	rec := &domain.DailyRecord{UserID: "u1", RecordDate: "2024-03-04"}
	if _, err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	_, err := store.CreateRecord(ctx, rec)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// A different user may record the same date
	if _, err := store.CreateRecord(ctx, &domain.DailyRecord{UserID: "u2", RecordDate: "2024-03-04"}); err != nil {
		t.Errorf("unexpected error for other user: %v", err)
	}
}

func TestStore_GetRecord_OtherUser(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, _ := store.CreateRecord(ctx, &domain.DailyRecord{UserID: "u1", RecordDate: "2024-03-04"})

	_, err := store.GetRecord(ctx, "u2", created.ID)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteRecord(ctx, "u2", created.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestStore_ListRecords(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, d := range []string{"2024-03-02", "2024-03-05", "2024-03-01", "2024-03-04"} {
		if _, err := store.CreateRecord(ctx, &domain.DailyRecord{UserID: "u1", RecordDate: d}); err != nil {
			t.Fatal(err)
		}
	}

	desc, _ := store.ListRecords(ctx, "u1", domain.RecordQuery{From: "2024-03-02", To: "2024-03-04"})
	if len(desc) != 2 || desc[0].RecordDate != "2024-03-04" || desc[1].RecordDate != "2024-03-02" {
		t.Errorf("unexpected descending range: %+v", desc)
	}

	asc, _ := store.ListRecords(ctx, "u1", domain.RecordQuery{Ascending: true, Limit: 3})
	if len(asc) != 3 || asc[0].RecordDate != "2024-03-01" || asc[2].RecordDate != "2024-03-04" {
		t.Errorf("unexpected ascending listing: %+v", asc)
	}

	none, _ := store.ListRecords(ctx, "nobody", domain.RecordQuery{})
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestStore_UpdateAndDeleteRecord(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, _ := store.CreateRecord(ctx, &domain.DailyRecord{UserID: "u1", RecordDate: "2024-03-04", GrossRevenue: 100})
	created.GrossRevenue = 250

	updated, err := store.UpdateRecord(ctx, created)
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if updated.GrossRevenue != 250 || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if err := store.DeleteRecord(ctx, "u1", created.ID); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if got, _ := store.GetRecordByDate(ctx, "u1", "2024-03-04"); got != nil {
		t.Error("expected record to be gone")
	}
}

func TestStore_ConfigAtOrBefore(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		if _, err := store.CreateConfigVersion(ctx, &domain.ConfigVersion{UserID: "u1", EffectiveDate: d, CarModel: d}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		date string
		want string
	}{
		{"2023-12-31", ""},
		{"2024-01-01", "2024-01-01"},
		{"2024-02-15", "2024-02-01"},
		{"2024-03-01", "2024-03-01"},
		{"2025-01-01", "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := store.GetConfigAtOrBefore(ctx, "u1", tt.date)
			if err != nil {
				t.Fatal(err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no version, got %s", got.EffectiveDate)
				}
				return
			}
			if got == nil || got.EffectiveDate != tt.want {
				t.Errorf("expected %s, got %+v", tt.want, got)
			}
		})
	}

	list, _ := store.ListConfigVersions(ctx, "u1")
	if len(list) != 3 || list[0].EffectiveDate != "2024-03-01" || list[2].EffectiveDate != "2024-01-01" {
		t.Errorf("expected newest first, got %+v", list)
	}
}

func TestStore_ConfigDuplicateEffectiveDate(t *testing.T) {
	store := New()
	ctx := context.Background()

	first, _ := store.CreateConfigVersion(ctx, &domain.ConfigVersion{UserID: "u1", EffectiveDate: "2024-01-01"})
	second, _ := store.CreateConfigVersion(ctx, &domain.ConfigVersion{UserID: "u1", EffectiveDate: "2024-02-01"})

	var conflict *domain.ErrConflict
	if _, err := store.CreateConfigVersion(ctx, &domain.ConfigVersion{UserID: "u1", EffectiveDate: "2024-01-01"}); !errors.As(err, &conflict) {
		t.Errorf("expected conflict on create, got %v", err)
	}

	second.EffectiveDate = first.EffectiveDate
	if _, err := store.UpdateConfigVersion(ctx, second); !errors.As(err, &conflict) {
		t.Errorf("expected conflict on update, got %v", err)
	}

	// Updating a version onto its own date is fine
	first.GasPrice = 6.5
	if _, err := store.UpdateConfigVersion(ctx, first); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStore_LegacySettings(t *testing.T) {
	store := New()
	ctx := context.Background()

	if got, err := store.GetLegacySettings(ctx, "u1"); got != nil || err != nil {
		t.Errorf("expected nil, nil; got %+v, %v", got, err)
	}

	store.PutLegacySettings(domain.LegacySettings{UserID: "u1", GasPrice: 5.89})
	got, err := store.GetLegacySettings(ctx, "u1")
	if err != nil || got == nil || got.GasPrice != 5.89 {
		t.Errorf("unexpected legacy settings: %+v, %v", got, err)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			date := "2024-03-" + []string{"01", "02", "03", "04", "05"}[i%5]
			_, _ = store.CreateRecord(ctx, &domain.DailyRecord{UserID: "u1", RecordDate: date})
			_, _ = store.ListRecords(ctx, "u1", domain.RecordQuery{})
		}(i)
	}
	wg.Wait()

	all, _ := store.ListRecords(ctx, "u1", domain.RecordQuery{})
	if len(all) != 5 {
		t.Errorf("expected one record per date, got %d", len(all))
	}
}
