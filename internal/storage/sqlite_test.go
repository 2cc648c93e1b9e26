package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveAnalysis(AnalysisRecord{
		Brand:         "Acme",
		Model:         "X200",
		SerialNumber:  "SN-001",
		Confidence:    "high",
		UploadedSlots: "serial-number,receipt",
	})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if id == "" {
		t.Fatal("SaveAnalysis returned empty id")
	}

	rec, err := s.GetAnalysis(id)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if rec.Brand != "Acme" || rec.Model != "X200" || rec.SerialNumber != "SN-001" {
		t.Errorf("record = %+v, want saved fields", rec)
	}
	if rec.UploadedSlots != "serial-number,receipt" {
		t.Errorf("UploadedSlots = %q", rec.UploadedSlots)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetAnalysis("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListAnalyses_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, brand := range []string{"Oldest", "Middle", "Newest"} {
		_, err := s.SaveAnalysis(AnalysisRecord{
			Brand:     brand,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("SaveAnalysis: %v", err)
		}
	}

	recs, err := s.ListAnalyses(0)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Brand != "Newest" || recs[2].Brand != "Oldest" {
		t.Errorf("order = %s, %s, %s; want newest first", recs[0].Brand, recs[1].Brand, recs[2].Brand)
	}

	limited, err := s.ListAnalyses(2)
	if err != nil {
		t.Fatalf("ListAnalyses(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d records with limit 2", len(limited))
	}
}

func TestDeleteAnalysis(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveAnalysis(AnalysisRecord{Brand: "Acme"})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	if err := s.DeleteAnalysis(id); err != nil {
		t.Fatalf("DeleteAnalysis: %v", err)
	}
	if _, err := s.GetAnalysis(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAnalysis after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteAnalysis(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestGetAnalysis_CorruptTimestamp(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveAnalysis(AnalysisRecord{Brand: "Acme"})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE analyses SET created_at = 'garbage' WHERE id = ?`, id); err != nil {
		t.Fatalf("corrupting row: %v", err)
	}

	if _, err := s.GetAnalysis(id); err == nil {
		t.Fatal("expected error for corrupt created_at")
	}
}

func TestMigrationsApplyOnce(t *testing.T) {
	s := openTestStore(t)

	// Re-running migrate against an already-migrated database is a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
