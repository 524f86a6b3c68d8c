package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), sampleRun("r1", "2026-01-01T00:00:00Z")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, _, err := store.GetSpikes(context.Background(), "r1"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := sampleRun("r1", "2026-01-01T00:00:00Z")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	run.Params["min_rate"] = 99
	run.Recordables[0] = "mutated"

	loaded, ok, err := store.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if loaded.Params["min_rate"] != 1 || loaded.Recordables[0] != "rate" {
		t.Fatalf("store aliased caller data: %+v", loaded)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got ok=%t err=%v", ok, err)
	}
}

func TestMemoryStoreRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	run := sampleRun("r1", "2026-01-01T00:00:00Z")
	run.SchemaVersion = 0
	if err := store.SaveRun(ctx, run); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, run := range []struct{ id, created string }{
		{id: "b", created: "2026-01-02T00:00:00Z"},
		{id: "a", created: "2026-01-03T00:00:00Z"},
		{id: "c", created: "2026-01-01T00:00:00Z"},
	} {
		if err := store.SaveRun(ctx, sampleRun(run.id, run.created)); err != nil {
			t.Fatalf("save run %s: %v", run.id, err)
		}
	}
	if err := store.SaveSpikes(ctx, "a", sampleSpikes()); err != nil {
		t.Fatalf("save spikes: %v", err)
	}
	if err := store.SaveSamples(ctx, "a", sampleSamples()); err != nil {
		t.Fatalf("save samples: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[1].ID != "b" || runs[2].ID != "a" {
		t.Fatalf("unexpected run order: %+v", runs)
	}

	if err := store.DeleteRun(ctx, "a"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, "a"); ok {
		t.Fatal("expected run a deleted")
	}
	if _, ok, _ := store.GetSpikes(ctx, "a"); ok {
		t.Fatal("expected spikes of run a deleted")
	}
	if _, ok, _ := store.GetSamples(ctx, "a"); ok {
		t.Fatal("expected samples of run a deleted")
	}
}

func TestMemoryStoreStreamsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	samples := sampleSamples()
	if err := store.SaveSamples(ctx, "r1", samples); err != nil {
		t.Fatalf("save samples: %v", err)
	}
	samples[1].Values[0] = -1

	loaded, ok, err := store.GetSamples(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get samples: ok=%t err=%v", ok, err)
	}
	if loaded[1].Values[0] != 5.5 {
		t.Fatalf("store aliased sample values: %+v", loaded)
	}

	if err := store.SaveSpikes(ctx, "r1", sampleSpikes()); err != nil {
		t.Fatalf("save spikes: %v", err)
	}
	spikes, ok, err := store.GetSpikes(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("get spikes: ok=%t err=%v", ok, err)
	}
	if len(spikes) != 2 || spikes[1].Multiplicity != 2 {
		t.Fatalf("unexpected spikes: %+v", spikes)
	}
}
