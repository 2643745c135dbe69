package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/citymeds/citymeds-go/pkg/logger"
)

// PersistOptions binds a store to its durable projection. D is the
// whitelisted subset written to storage; Restore folds a previously saved
// projection back into the initial state during rehydration.
type PersistOptions[T, D any] struct {
	Name    string
	Storage Storage
	Project func(T) D
	Restore func(T, D) T
	Logger  *logger.Logger
}

// NewPersisted builds a store whose state survives restarts. Rehydration
// happens here, before any subscriber is registered; afterwards every Set
// writes the projection. Write failures are logged and never block the
// mutation that caused them.
func NewPersisted[T, D any](initial T, opts PersistOptions[T, D]) (*Store[T], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("store name is required")
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if opts.Project == nil || opts.Restore == nil {
		return nil, fmt.Errorf("projection functions are required")
	}

	state := initial
	raw, found, err := opts.Storage.Read(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("rehydrate store %q: %w", opts.Name, err)
	}
	if found {
		var durable D
		if err := json.Unmarshal(raw, &durable); err != nil {
			// A corrupt store file falls back to the initial state rather
			// than wedging startup.
			if opts.Logger != nil {
				ctx := opts.Logger.WithStore(context.Background(), opts.Name)
				opts.Logger.Warn(ctx, "discarding corrupt persisted state")
			}
		} else {
			state = opts.Restore(state, durable)
		}
	}

	st := New(state)
	st.Subscribe(func(next T) {
		data, err := json.Marshal(opts.Project(next))
		if err == nil {
			err = opts.Storage.Write(opts.Name, data)
		}
		if err != nil && opts.Logger != nil {
			ctx := opts.Logger.WithStore(context.Background(), opts.Name)
			opts.Logger.Error(ctx, "persisting store state failed", err)
		}
	})
	return st, nil
}
