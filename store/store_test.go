package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sartorproj/co2trend/timeseries"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "co2.db")

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	// Inserted out of order; Latest must return ascending time.
	readings := []timeseries.Reading{
		{Time: base.Add(2 * time.Minute), CO2: 820},
		{Time: base, CO2: 800},
		{Time: base.Add(3 * time.Minute), CO2: 830},
		{Time: base.Add(1 * time.Minute), CO2: 810},
	}
	if err := s.InsertBatch(ctx, readings); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if err := s.Insert(ctx, timeseries.Reading{Time: base.Add(4 * time.Minute), CO2: 840}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 5 {
		t.Fatalf("Expected 5 readings, got %d (%v)", n, err)
	}

	latest, err := s.Latest(ctx, 3)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(latest))
	}
	expected := []float64{820, 830, 840}
	for i, r := range latest {
		if r.CO2 != expected[i] {
			t.Errorf("Reading %d: expected %f, got %f", i, expected[i], r.CO2)
		}
		if !r.Time.Equal(base.Add(time.Duration(i+2) * time.Minute)) {
			t.Errorf("Reading %d: unexpected time %v", i, r.Time)
		}
	}

	all, err := s.Latest(ctx, 100)
	if err != nil || len(all) != 5 {
		t.Errorf("Expected all 5 readings, got %d (%v)", len(all), err)
	}
}

func TestStoreEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	latest, err := s.Latest(ctx, 10)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 0 {
		t.Errorf("Expected no readings, got %d", len(latest))
	}

	if latest, _ := s.Latest(ctx, 0); latest != nil {
		t.Error("Expected nil for non-positive limit")
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestStoreRejectsUntimedReading(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []timeseries.Reading{
		{Time: time.Now(), CO2: 900},
		{CO2: 950},
	}
	if err := s.InsertBatch(ctx, batch); !errors.Is(err, ErrNoTimestamp) {
		t.Errorf("Expected ErrNoTimestamp, got %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("Expected nothing written, got %d rows", n)
	}
}

func TestStoreClosed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	if _, err := s.Latest(ctx, 10); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Latest, got %v", err)
	}
	if err := s.Insert(ctx, timeseries.Reading{Time: time.Now(), CO2: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Insert, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Ping, got %v", err)
	}
}

func TestStoreReopen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "co2.db")
	ctx := context.Background()

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Insert(ctx, timeseries.Reading{Time: time.Now(), CO2: 1111}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	s.Close()

	s, err = Open(cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Expected 1 persisted reading, got %d", n)
	}
}
