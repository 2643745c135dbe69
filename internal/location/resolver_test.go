package location

import (
	"context"
	"testing"

	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/citymeds/citymeds-go/pkg/errors"
	"github.com/citymeds/citymeds-go/pkg/geocode"
)

type stubGeolocator struct {
	lat, lng float64
	err      error
}

func (s stubGeolocator) Current(context.Context) (float64, float64, error) {
	return s.lat, s.lng, s.err
}

type stubGeocoder struct {
	place *geocode.Place
	err   error
}

func (s stubGeocoder) ReverseGeocode(context.Context, float64, float64) (*geocode.Place, error) {
	return s.place, s.err
}

func newTestResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()

	if opts.Geolocator == nil {
		opts.Geolocator = stubGeolocator{lat: 12.97, lng: 77.59}
	}
	if opts.Geocoder == nil {
		opts.Geocoder = stubGeocoder{place: &geocode.Place{
			Address: "12 MG Road, Bengaluru",
			City:    "Bengaluru",
			Pincode: "560001",
		}}
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestDetectResolvesPlace(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, Options{})
	var statuses []enums.LocationStatus
	r.Subscribe(func(s State) { statuses = append(statuses, s.Status) })

	r.Detect(context.Background())

	state := r.Snapshot()
	if state.Status != enums.LocationStatusResolved {
		t.Fatalf("expected resolved, got %s", state.Status)
	}
	if state.City != "Bengaluru" || state.Pincode != "560001" {
		t.Fatalf("unexpected place %+v", state)
	}
	if state.Latitude == nil || *state.Latitude != 12.97 {
		t.Fatalf("expected coordinates, got %+v", state.Latitude)
	}
	if len(statuses) < 2 || statuses[0] != enums.LocationStatusDetecting {
		t.Fatalf("expected detecting transition first, got %v", statuses)
	}
}

func TestDetectPermissionDenied(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, Options{
		Geolocator: stubGeolocator{err: errors.New(errors.CodePermission, "denied by user")},
	})

	r.Detect(context.Background())

	state := r.Snapshot()
	if state.Status != enums.LocationStatusFailed {
		t.Fatalf("expected failed, got %s", state.Status)
	}
	if state.Err != "location permission denied" {
		t.Fatalf("unexpected reason %q", state.Err)
	}
}

func TestDetectFailureKeepsPreviousPlace(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, Options{
		Geocoder: stubGeocoder{err: errors.New(errors.CodeNetwork, "timeout")},
	})
	r.SetManual("Bengaluru", "12 MG Road")

	r.Detect(context.Background())

	state := r.Snapshot()
	if state.Status != enums.LocationStatusFailed {
		t.Fatalf("expected failed, got %s", state.Status)
	}
	if state.City != "Bengaluru" || state.Address != "12 MG Road" {
		t.Fatalf("failure must not clobber previous place, got %+v", state)
	}
	if state.Err == "" {
		t.Fatal("expected user-facing reason")
	}
}

func TestSetManualAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, Options{})
	r.SetManual("Bengaluru", "Indiranagar")

	state := r.Snapshot()
	if state.Status != enums.LocationStatusResolved {
		t.Fatalf("expected resolved, got %s", state.Status)
	}
	if state.City != "Bengaluru" || state.Address != "Indiranagar" {
		t.Fatalf("unexpected place %+v", state)
	}
	if state.Latitude != nil || state.Longitude != nil {
		t.Fatal("manual selection must not carry coordinates")
	}
}

func TestOnlyPlaceFieldsPersist(t *testing.T) {
	t.Parallel()

	storage := store.NewMemStorage()
	first := newTestResolver(t, Options{Storage: storage})
	first.Detect(context.Background())

	second := newTestResolver(t, Options{Storage: storage})
	state := second.Snapshot()
	if state.City != "Bengaluru" || state.Address == "" || state.Pincode != "560001" {
		t.Fatalf("expected rehydrated place, got %+v", state)
	}
	if state.Latitude != nil || state.Longitude != nil {
		t.Fatal("coordinates must be session-only")
	}
	if state.Status != enums.LocationStatusResolved {
		t.Fatalf("expected resolved after rehydration, got %s", state.Status)
	}
}
