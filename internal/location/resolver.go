// Package location turns device coordinates into a deliverable city and
// address. Failures never propagate as errors; they land in the state as
// a user-facing reason string.
package location

import (
	"context"
	"fmt"
	"io"

	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/citymeds/citymeds-go/pkg/errors"
	"github.com/citymeds/citymeds-go/pkg/geocode"
	"github.com/citymeds/citymeds-go/pkg/logger"
)

const storeName = "location"

// Geolocator supplies the device's current coordinates.
type Geolocator interface {
	Current(ctx context.Context) (lat, lng float64, err error)
}

// Geocoder resolves coordinates to a deliverable place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*geocode.Place, error)
}

// State is the location as the UI sees it. Coordinates, Status and Err
// are session-only; only the denormalized place fields persist.
type State struct {
	Latitude  *float64
	Longitude *float64
	Address   string
	City      string
	Pincode   string
	Status    enums.LocationStatus
	Err       string
}

type durableState struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// Options wires the resolver's collaborators. Geolocator and Geocoder are
// required; Storage defaults to in-memory, Logger to a discard logger.
type Options struct {
	Geolocator Geolocator
	Geocoder   Geocoder
	Storage    store.Storage
	Logger     *logger.Logger
}

// Resolver owns the location state machine: Idle → Detecting →
// Resolved | Failed.
type Resolver struct {
	store      *store.Store[State]
	geolocator Geolocator
	geocoder   Geocoder
	logg       *logger.Logger
}

// New builds the resolver, rehydrating a previously resolved place.
func New(opts Options) (*Resolver, error) {
	if opts.Geolocator == nil {
		return nil, fmt.Errorf("geolocator is required")
	}
	if opts.Geocoder == nil {
		return nil, fmt.Errorf("geocoder is required")
	}
	if opts.Storage == nil {
		opts.Storage = store.NewMemStorage()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Options{ServiceName: "citymeds", Output: io.Discard})
	}

	st, err := store.NewPersisted(State{Status: enums.LocationStatusIdle}, store.PersistOptions[State, durableState]{
		Name:    storeName,
		Storage: opts.Storage,
		Logger:  opts.Logger,
		Project: func(s State) durableState {
			return durableState{Address: s.Address, City: s.City, Pincode: s.Pincode}
		},
		Restore: func(s State, d durableState) State {
			s.Address = d.Address
			s.City = d.City
			s.Pincode = d.Pincode
			if d.City != "" {
				s.Status = enums.LocationStatusResolved
			}
			return s
		},
	})
	if err != nil {
		return nil, err
	}

	return &Resolver{
		store:      st,
		geolocator: opts.Geolocator,
		geocoder:   opts.Geocoder,
		logg:       opts.Logger,
	}, nil
}

// Snapshot returns the current location state.
func (r *Resolver) Snapshot() State {
	return r.store.Get()
}

// Subscribe registers a listener for state changes.
func (r *Resolver) Subscribe(fn func(State)) func() {
	return r.store.Subscribe(fn)
}

// Detect acquires device coordinates and reverse-geocodes them. On any
// failure the state moves to Failed with a user-facing reason and the
// previously resolved place is left untouched.
func (r *Resolver) Detect(ctx context.Context) {
	r.store.Set(func(state State) State {
		state.Status = enums.LocationStatusDetecting
		state.Err = ""
		return state
	})

	lat, lng, err := r.geolocator.Current(ctx)
	if err != nil {
		r.fail(ctx, err)
		return
	}

	place, err := r.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		r.fail(ctx, err)
		return
	}

	r.store.Set(func(state State) State {
		state.Latitude = &lat
		state.Longitude = &lng
		state.Address = place.Address
		state.City = place.City
		state.Pincode = place.Pincode
		state.Status = enums.LocationStatusResolved
		state.Err = ""
		return state
	})
	r.logg.Info(r.logg.WithField(ctx, "city", place.City), "location resolved")
}

func (r *Resolver) fail(ctx context.Context, err error) {
	r.logg.Warn(r.logg.WithField(ctx, "reason", err.Error()), "location detection failed")
	reason := reasonFor(err)
	r.store.Set(func(state State) State {
		state.Status = enums.LocationStatusFailed
		state.Err = reason
		return state
	})
}

func reasonFor(err error) string {
	switch {
	case errors.HasCode(err, errors.CodePermission):
		return "location permission denied"
	case errors.HasCode(err, errors.CodeNetwork):
		return "couldn't resolve your location, please try again"
	default:
		return "couldn't detect your location"
	}
}

// SetManual records a user-chosen place, bypassing detection. Always
// succeeds synchronously.
func (r *Resolver) SetManual(city, address string) {
	r.store.Set(func(state State) State {
		state.Latitude = nil
		state.Longitude = nil
		state.City = city
		state.Address = address
		state.Pincode = ""
		state.Status = enums.LocationStatusResolved
		state.Err = ""
		return state
	})
}
