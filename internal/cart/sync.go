package cart

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/auth/session"
	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/citymeds/citymeds-go/pkg/logger"
	"github.com/citymeds/citymeds-go/pkg/metrics"
)

const (
	storeName = "cart"

	opPush = "cart_push"
	opPull = "cart_pull"
)

// Options wires the synchronizer's collaborators. Gateway and Session are
// required; Storage defaults to in-memory, Logger to a discard logger.
type Options struct {
	Gateway gateway.Gateway
	Session session.Provider
	Storage store.Storage
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics
}

// Synchronizer owns the cart entity and reconciles it with the remote
// cart record scoped to the session user.
type Synchronizer struct {
	store   *store.Store[State]
	gw      gateway.Gateway
	session session.Provider
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	pushing atomic.Bool
}

// New builds the synchronizer, rehydrating persisted cart state before
// any subscriber can run.
func New(opts Options) (*Synchronizer, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("session provider is required")
	}
	if opts.Storage == nil {
		opts.Storage = store.NewMemStorage()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Options{ServiceName: "citymeds", Output: io.Discard})
	}

	st, err := store.NewPersisted(State{Status: enums.SyncStatusUnsynced}, store.PersistOptions[State, durableState]{
		Name:    storeName,
		Storage: opts.Storage,
		Logger:  opts.Logger,
		Project: func(s State) durableState {
			return durableState{
				Items:           s.Items,
				PrescriptionURL: s.PrescriptionURL,
				CartID:          s.CartID,
			}
		},
		Restore: func(s State, d durableState) State {
			s.Items = d.Items
			s.PrescriptionURL = d.PrescriptionURL
			s.CartID = d.CartID
			// Rehydrated items may be ahead of the remote record.
			if d.CartID != "" {
				s.Status = enums.SyncStatusStale
			}
			return s
		},
	})
	if err != nil {
		return nil, err
	}

	return &Synchronizer{
		store:   st,
		gw:      opts.Gateway,
		session: opts.Session,
		logg:    opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// Snapshot returns the current cart state. The items slice is a copy.
func (s *Synchronizer) Snapshot() State {
	state := s.store.Get()
	state.Items = cloneLines(state.Items)
	return state
}

// Subscribe registers a listener for state changes.
func (s *Synchronizer) Subscribe(fn func(State)) func() {
	return s.store.Subscribe(fn)
}

// AddItem appends the line, or merges quantities when a line with the
// same item id already exists. Display fields and prices stay as
// snapshotted by the first add. Quantity defaults to 1.
func (s *Synchronizer) AddItem(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	s.mutate(func(state State) State {
		items := cloneLines(state.Items)
		for i := range items {
			if items[i].ItemID == line.ItemID {
				items[i].Quantity += line.Quantity
				state.Items = items
				return state
			}
		}
		state.Items = append(items, line)
		return state
	})
}

// RemoveItem drops the line. No-op when absent.
func (s *Synchronizer) RemoveItem(itemID string) {
	s.mutate(func(state State) State {
		items := make([]Line, 0, len(state.Items))
		for _, item := range state.Items {
			if item.ItemID != itemID {
				items = append(items, item)
			}
		}
		state.Items = items
		return state
	})
}

// SetQuantity replaces the line's quantity; a quantity of zero or less
// removes the line. No-op when the line is absent.
func (s *Synchronizer) SetQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(itemID)
		return
	}
	s.mutate(func(state State) State {
		items := cloneLines(state.Items)
		for i := range items {
			if items[i].ItemID == itemID {
				items[i].Quantity = quantity
			}
		}
		state.Items = items
		return state
	})
}

// SetPrescription attaches (or, with an empty ref, detaches) the
// prescription reference.
func (s *Synchronizer) SetPrescription(ref string) {
	s.mutate(func(state State) State {
		state.PrescriptionURL = ref
		return state
	})
}

// Clear empties items and prescription. Called post-checkout.
func (s *Synchronizer) Clear() {
	s.mutate(func(state State) State {
		state.Items = nil
		state.PrescriptionURL = ""
		return state
	})
}

// mutate applies a local edit and marks a previously synced cart stale.
func (s *Synchronizer) mutate(update func(State) State) {
	s.store.Set(func(state State) State {
		state = update(state)
		if state.Status == enums.SyncStatusSynced {
			state.Status = enums.SyncStatusStale
		}
		return state
	})
}

// TotalPrice folds unit price times quantity over current items.
func (s *Synchronizer) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.store.Get().Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalListPrice folds MRP times quantity over current items.
func (s *Synchronizer) TotalListPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.store.Get().Items {
		total = total.Add(item.UnitListPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalQuantity sums quantities over current items.
func (s *Synchronizer) TotalQuantity() int {
	total := 0
	for _, item := range s.store.Get().Items {
		total += item.Quantity
	}
	return total
}

// Push replaces the remote cart with the local one. It is a no-op
// without a session identity, and overlapping calls are dropped rather
// than queued. Failures are logged and swallowed: local state stays
// authoritative and the status moves to stale.
func (s *Synchronizer) Push(ctx context.Context) {
	userID, ok := s.session.UserID()
	if !ok {
		return
	}
	if !s.pushing.CompareAndSwap(false, true) {
		s.metrics.IncDropped(opPush)
		s.logg.Debug(ctx, "cart push already in flight, dropping")
		return
	}
	defer s.pushing.Store(false)

	ctx = s.logg.WithUserID(ctx, userID)
	s.store.Set(func(state State) State {
		state.Status = enums.SyncStatusSyncing
		return state
	})

	start := time.Now()
	err := s.replaceRemote(ctx, userID)
	s.metrics.ObserveDuration(opPush, time.Since(start))

	if err != nil {
		s.metrics.IncFailure(opPush)
		s.logg.Error(ctx, "cart push failed", err)
		s.store.Set(func(state State) State {
			state.Status = enums.SyncStatusStale
			return state
		})
		return
	}

	s.metrics.IncSuccess(opPush)
	s.store.Set(func(state State) State {
		state.Status = enums.SyncStatusSynced
		return state
	})
}

// replaceRemote performs the full replace: delete every remote line for
// the cart, bulk insert the current local lines, refresh the cart row's
// prescription column. Not transactional; the cart row is single-owner so
// the brief empty window mid-push is acceptable.
func (s *Synchronizer) replaceRemote(ctx context.Context, userID string) error {
	cartID, err := s.ensureCart(ctx, userID)
	if err != nil {
		return err
	}

	state := s.store.Get()
	if err := s.gw.DeleteMany(ctx, "cart_items", gateway.Filter{"cart_id": cartID}); err != nil {
		return err
	}

	if len(state.Items) > 0 {
		rows := make([]gateway.Row, 0, len(state.Items))
		for _, item := range state.Items {
			rows = append(rows, encodeLine(cartID, item))
		}
		if err := s.gw.InsertMany(ctx, "cart_items", rows); err != nil {
			return err
		}
	}

	var prescription any
	if state.PrescriptionURL != "" {
		prescription = state.PrescriptionURL
	}
	return s.gw.UpdateMany(ctx, "carts", gateway.Filter{"id": cartID}, gateway.Row{
		"prescription_url": prescription,
	})
}

// ensureCart resolves the user's remote cart row, creating it on first
// use, and memoizes the id so later pushes skip the lookup.
func (s *Synchronizer) ensureCart(ctx context.Context, userID string) (string, error) {
	if cartID := s.store.Get().CartID; cartID != "" {
		return cartID, nil
	}

	row, err := s.gw.SelectOne(ctx, "carts", gateway.Filter{"user_id": userID})
	if err != nil {
		return "", err
	}

	var cartID string
	if row != nil {
		cartID = row.String("id")
	} else {
		cartID, err = s.gw.InsertOne(ctx, "carts", gateway.Row{"user_id": userID})
		if err != nil {
			return "", err
		}
	}

	s.store.Set(func(state State) State {
		state.CartID = cartID
		return state
	})
	return cartID, nil
}

// Pull loads the remote cart wholesale, replacing local items. Intended
// for session bootstrap right after authentication; an absent remote cart
// leaves local state untouched. Failures are logged and swallowed.
func (s *Synchronizer) Pull(ctx context.Context) {
	userID, ok := s.session.UserID()
	if !ok {
		return
	}
	ctx = s.logg.WithUserID(ctx, userID)

	start := time.Now()
	row, err := s.gw.SelectOne(ctx, "carts", gateway.Filter{"user_id": userID})
	if err != nil {
		s.metrics.IncFailure(opPull)
		s.logg.Error(ctx, "cart pull failed", err)
		return
	}
	if row == nil {
		return
	}

	cartID := row.String("id")
	rows, err := s.gw.SelectMany(ctx, "cart_items", gateway.Filter{"cart_id": cartID}, "item_id")
	s.metrics.ObserveDuration(opPull, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(opPull)
		s.logg.Error(ctx, "cart pull failed", err)
		return
	}

	items := make([]Line, 0, len(rows))
	for _, itemRow := range rows {
		items = append(items, decodeLine(itemRow))
	}

	s.metrics.IncSuccess(opPull)
	s.store.Set(func(state State) State {
		state.Items = items
		state.PrescriptionURL = row.String("prescription_url")
		state.CartID = cartID
		state.Status = enums.SyncStatusSynced
		return state
	})
}
