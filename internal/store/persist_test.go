package store

import (
	"encoding/json"
	"testing"
)

type sessionState struct {
	City      string
	Transient bool
}

type durableCity struct {
	City string `json:"city"`
}

func persistedCityStore(t *testing.T, storage Storage) *Store[sessionState] {
	t.Helper()

	st, err := NewPersisted(sessionState{}, PersistOptions[sessionState, durableCity]{
		Name:    "location",
		Storage: storage,
		Project: func(s sessionState) durableCity { return durableCity{City: s.City} },
		Restore: func(s sessionState, d durableCity) sessionState {
			s.City = d.City
			return s
		},
	})
	if err != nil {
		t.Fatalf("NewPersisted failed: %v", err)
	}
	return st
}

func TestPersistedWritesProjectionOnSet(t *testing.T) {
	t.Parallel()

	storage := NewMemStorage()
	st := persistedCityStore(t, storage)

	st.Set(func(s sessionState) sessionState {
		s.City = "Bengaluru"
		s.Transient = true
		return s
	})

	raw, found, err := storage.Read("location")
	if err != nil || !found {
		t.Fatalf("expected persisted document, found=%v err=%v", found, err)
	}

	var saved map[string]any
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("unmarshal persisted doc: %v", err)
	}
	if saved["city"] != "Bengaluru" {
		t.Fatalf("unexpected persisted city %v", saved["city"])
	}
	if _, ok := saved["Transient"]; ok {
		t.Fatal("transient field leaked into durable projection")
	}
}

func TestPersistedRehydratesBeforeSubscribers(t *testing.T) {
	t.Parallel()

	storage := NewMemStorage()
	first := persistedCityStore(t, storage)
	first.Set(func(s sessionState) sessionState {
		s.City = "Bengaluru"
		return s
	})

	// Simulates a restart against the same storage.
	second := persistedCityStore(t, storage)
	if got := second.Get().City; got != "Bengaluru" {
		t.Fatalf("expected rehydrated city, got %q", got)
	}
}

func TestPersistedToleratesCorruptDocument(t *testing.T) {
	t.Parallel()

	storage := NewMemStorage()
	if err := storage.Write("location", []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt doc: %v", err)
	}

	st := persistedCityStore(t, storage)
	if got := st.Get().City; got != "" {
		t.Fatalf("expected fallback to initial state, got %q", got)
	}
}

func TestPersistedRequiresProjection(t *testing.T) {
	t.Parallel()

	_, err := NewPersisted(sessionState{}, PersistOptions[sessionState, durableCity]{
		Name:    "location",
		Storage: NewMemStorage(),
	})
	if err == nil {
		t.Fatal("expected error without projection functions")
	}
}

func TestFileStorageRoundTrip(t *testing.T) {
	t.Parallel()

	storage, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if _, found, err := storage.Read("cart"); err != nil || found {
		t.Fatalf("expected empty storage, found=%v err=%v", found, err)
	}

	if err := storage.Write("cart", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	raw, found, err := storage.Read("cart")
	if err != nil || !found {
		t.Fatalf("expected document, found=%v err=%v", found, err)
	}
	if string(raw) != `{"items":[]}` {
		t.Fatalf("unexpected contents %q", raw)
	}
}
