package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linnemanlabs/acuity/internal/postgres"
	"github.com/linnemanlabs/acuity/internal/triage"
	"github.com/linnemanlabs/acuity/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("ACUITY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ACUITY_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	d := &triage.Decision{
		ID:           "test-put-get-001",
		PatientID:    "PX1234",
		Name:         "Doe",
		Age:          62,
		Risk:         triage.RiskImmediate,
		Intervention: triage.InterventionICU,
		Severity:     0.9,
		Source:       triage.SourceRules,
		Location:     "North",
		CreatedAt:    now,
	}

	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "ID", d.ID, got.ID)
	assertEqual(t, "PatientID", d.PatientID, got.PatientID)
	assertEqual(t, "Name", d.Name, got.Name)
	assertEqual(t, "Age", d.Age, got.Age)
	assertEqual(t, "Risk", string(d.Risk), string(got.Risk))
	assertEqual(t, "Intervention", string(d.Intervention), string(got.Intervention))
	assertEqual(t, "Severity", d.Severity, got.Severity)
	assertEqual(t, "Source", string(d.Source), string(got.Source))
	assertEqual(t, "Location", d.Location, got.Location)

	if !got.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, d.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "nonexistent-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get returned ok=true for nonexistent ID")
	}
}

func TestUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	d := &triage.Decision{
		ID:           "test-upsert-001",
		Age:          45,
		Risk:         triage.RiskDelayed,
		Intervention: triage.InterventionNil,
		Severity:     0.6,
		Source:       triage.SourceModel,
		CreatedAt:    now,
	}
	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put initial: %v", err)
	}

	d.Risk = triage.RiskImmediate
	d.Intervention = triage.InterventionICU
	d.Severity = 0.9
	d.Source = triage.SourceRules
	d.Location = "West"

	if err := s.Put(ctx, d); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, ok, err := s.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false after upsert")
	}

	assertEqual(t, "Risk", string(triage.RiskImmediate), string(got.Risk))
	assertEqual(t, "Intervention", string(triage.InterventionICU), string(got.Intervention))
	assertEqual(t, "Severity", 0.9, got.Severity)
	assertEqual(t, "Source", string(triage.SourceRules), string(got.Source))
	assertEqual(t, "Location", "West", got.Location)
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// Future timestamps with fixed spacing so ordering assertions hold
	// regardless of rows left behind by other tests.
	base := time.Now().Truncate(time.Microsecond).UTC().Add(time.Hour)
	ids := []string{"test-list-old", "test-list-mid", "test-list-new"}
	for i, id := range ids {
		d := &triage.Decision{
			ID:        id,
			Age:       30 + i,
			Risk:      triage.RiskMinimal,
			Severity:  0.2,
			Source:    triage.SourceRules,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Put(ctx, d); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	got, err := s.List(ctx, 500)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	pos := map[string]int{}
	for i, d := range got {
		pos[d.ID] = i
	}
	for _, id := range ids {
		if _, ok := pos[id]; !ok {
			t.Fatalf("List did not return %s", id)
		}
	}
	// Most recent first.
	if !(pos["test-list-new"] < pos["test-list-mid"] && pos["test-list-mid"] < pos["test-list-old"]) {
		t.Errorf("List order wrong: new=%d mid=%d old=%d",
			pos["test-list-new"], pos["test-list-mid"], pos["test-list-old"])
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("List(2) returned %d decisions, want 2", len(limited))
	}
	assertEqual(t, "newest first", "test-list-new", limited[0].ID)
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}
