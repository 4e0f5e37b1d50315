package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/vinlookup/internal/domain/model"
)

func sampleRecord(vin, mk string) model.Record {
	return model.Record{
		VIN:          vin,
		Manufacturer: mk,
		ModelYear:    "2003",
		Region:       "North America",
		Country:      "United States",
		PlantCode:    vin[10:11],
		Serial:       vin[11:],
		WMI:          vin[:3],
		Source:       model.SourceStatic,
		DecodedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// runStoreContract exercises the behaviour every backend shares. newStore
// must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("InsertThenList", func(t *testing.T) {
		s := newStore(t)
		rec := sampleRecord("1HGCM82633A004352", "Honda")
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 record, got %d", len(got))
		}
		if got[0].VIN != rec.VIN || got[0].Manufacturer != rec.Manufacturer ||
			got[0].Serial != rec.Serial || !got[0].DecodedAt.Equal(rec.DecodedAt) {
			t.Errorf("expected %+v, got %+v", rec, got[0])
		}
	})

	t.Run("InsertOverwrites", func(t *testing.T) {
		s := newStore(t)
		vin := "1HGCM82633A004352"
		if err := s.Insert(ctx, sampleRecord(vin, "Honda")); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.Insert(ctx, sampleRecord(vin, "HONDA")); err != nil {
			t.Fatalf("insert: %v", err)
		}
		rec, err := s.Get(ctx, vin)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if rec.Manufacturer != "HONDA" {
			t.Errorf("expected replaced record, got %q", rec.Manufacturer)
		}
		if n, _ := s.Count(ctx); n != 1 {
			t.Errorf("expected count 1, got %d", n)
		}
	})

	t.Run("RemoveAbsent", func(t *testing.T) {
		s := newStore(t)
		if err := s.Remove(ctx, "1HGCM82633A004352"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.Get(ctx, "1HGCM82633A004352"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RemoveThenList", func(t *testing.T) {
		s := newStore(t)
		vin := "1HGCM82633A004352"
		if err := s.Insert(ctx, sampleRecord(vin, "Honda")); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.Remove(ctx, vin); err != nil {
			t.Fatalf("remove: %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty list, got %d records", len(got))
		}
		if err := s.Remove(ctx, vin); !errors.Is(err, ErrNotFound) {
			t.Errorf("second remove: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListOrderedByVIN", func(t *testing.T) {
		s := newStore(t)
		vins := []string{"WVWZZZ1JZXW000001", "1M8GDM9AXKP042788", "5YJ3E1EA7KF317000", "1HGCM82633A004352"}
		for _, v := range vins {
			if err := s.Insert(ctx, sampleRecord(v, "x")); err != nil {
				t.Fatalf("insert %s: %v", v, err)
			}
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := []string{"1HGCM82633A004352", "1M8GDM9AXKP042788", "5YJ3E1EA7KF317000", "WVWZZZ1JZXW000001"}
		if len(got) != len(want) {
			t.Fatalf("expected %d records, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i].VIN != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], got[i].VIN)
			}
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		s := newStore(t)
		const writers = 8
		const perWriter = 25
		var wg sync.WaitGroup
		for w := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perWriter {
					vin := fmt.Sprintf("1HGCM8263%dA%06d", w, i)
					if err := s.Insert(ctx, sampleRecord(vin, "Honda")); err != nil {
						t.Errorf("insert: %v", err)
						return
					}
					if _, err := s.List(ctx); err != nil {
						t.Errorf("list: %v", err)
						return
					}
				}
			}()
		}
		wg.Wait()
		if n, err := s.Count(ctx); err != nil || n != writers*perWriter {
			t.Errorf("expected %d records, got %d (%v)", writers*perWriter, n, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(ctx); err != nil {
			t.Errorf("ping: %v", err)
		}
	})
}
