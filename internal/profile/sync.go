package profile

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/auth/session"
	"github.com/citymeds/citymeds-go/pkg/errors"
	"github.com/citymeds/citymeds-go/pkg/logger"
)

const storeName = "user"

// Options wires the synchronizer's collaborators. Gateway and Session are
// required; Storage defaults to in-memory, Logger to a discard logger.
type Options struct {
	Gateway gateway.Gateway
	Session session.Provider
	Storage store.Storage
	Logger  *logger.Logger
}

// Synchronizer owns the local directory cache and its remote CRUD. Every
// write goes remote first; the local cache is updated only on success.
type Synchronizer struct {
	store    *store.Store[State]
	gw       gateway.Gateway
	session  session.Provider
	logg     *logger.Logger
	validate *validator.Validate
}

// New builds the synchronizer, rehydrating the persisted directory cache.
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

	st, err := store.NewPersisted(State{}, store.PersistOptions[State, State]{
		Name:    storeName,
		Storage: opts.Storage,
		Logger:  opts.Logger,
		Project: func(s State) State { return s },
		Restore: func(_ State, d State) State { return d },
	})
	if err != nil {
		return nil, err
	}

	return &Synchronizer{
		store:    st,
		gw:       opts.Gateway,
		session:  opts.Session,
		logg:     opts.Logger,
		validate: validator.New(),
	}, nil
}

// Snapshot returns the current directory state with copied slices.
func (s *Synchronizer) Snapshot() State {
	state := s.store.Get()
	state.Addresses = cloneAddresses(state.Addresses)
	state.Family = cloneFamily(state.Family)
	return state
}

// Subscribe registers a listener for state changes.
func (s *Synchronizer) Subscribe(fn func(State)) func() {
	return s.store.Subscribe(fn)
}

// requireUser returns the session identity or a permission error. The
// guest profile is read-only.
func (s *Synchronizer) requireUser() (string, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return "", errors.New(errors.CodePermission, "sign in to manage your profile")
	}
	return userID, nil
}

// Load fetches profile, addresses (default first) and family members,
// replacing the local cache wholesale. Without a session identity it is a
// no-op, leaving the guest sentinel in place.
func (s *Synchronizer) Load(ctx context.Context) error {
	userID, ok := s.session.UserID()
	if !ok {
		return nil
	}
	ctx = s.logg.WithUserID(ctx, userID)

	profileRow, err := s.gw.SelectOne(ctx, "profiles", gateway.Filter{"user_id": userID})
	if err != nil {
		return err
	}
	addressRows, err := s.gw.SelectMany(ctx, "addresses", gateway.Filter{"user_id": userID}, "is_default desc")
	if err != nil {
		return err
	}
	familyRows, err := s.gw.SelectMany(ctx, "family_members", gateway.Filter{"user_id": userID}, "name")
	if err != nil {
		return err
	}

	profile := Profile{UserID: userID}
	if profileRow != nil {
		profile = profileFromRow(userID, profileRow)
	}
	addresses := make([]Address, 0, len(addressRows))
	for _, row := range addressRows {
		addresses = append(addresses, addressFromRow(row))
	}
	family := make([]FamilyMember, 0, len(familyRows))
	for _, row := range familyRows {
		family = append(family, memberFromRow(row))
	}

	s.store.Set(func(State) State {
		return State{Profile: profile, Addresses: addresses, Family: family}
	})
	s.logg.Debug(ctx, "profile directory loaded")
	return nil
}

// UpdateProfile writes the patched columns remotely, creating the profile
// row on first save, then applies the patch locally.
func (s *Synchronizer) UpdateProfile(ctx context.Context, patch Patch) error {
	userID, err := s.requireUser()
	if err != nil {
		return err
	}
	changes := patch.columns()
	if len(changes) == 0 {
		return nil
	}
	ctx = s.logg.WithUserID(ctx, userID)

	existing, err := s.gw.SelectOne(ctx, "profiles", gateway.Filter{"user_id": userID})
	if err != nil {
		return err
	}
	if existing == nil {
		row := changes.Clone()
		row["user_id"] = userID
		if _, err := s.gw.InsertOne(ctx, "profiles", row); err != nil {
			return err
		}
	} else if err := s.gw.UpdateMany(ctx, "profiles", gateway.Filter{"user_id": userID}, changes); err != nil {
		return err
	}

	s.store.Set(func(state State) State {
		state.Profile = patch.apply(state.Profile)
		state.Profile.UserID = userID
		return state
	})
	return nil
}

// AddAddress validates and inserts the address, returning it with the
// assigned identity. The local cache is appended only on success.
func (s *Synchronizer) AddAddress(ctx context.Context, addr Address) (Address, error) {
	userID, err := s.requireUser()
	if err != nil {
		return Address{}, err
	}
	if err := s.validate.Struct(addr); err != nil {
		return Address{}, errors.Wrap(errors.CodeValidation, err, "invalid address")
	}

	id, err := s.gw.InsertOne(s.logg.WithUserID(ctx, userID), "addresses", addressRow(userID, addr))
	if err != nil {
		return Address{}, err
	}
	addr.ID = id

	s.store.Set(func(state State) State {
		state.Addresses = append(cloneAddresses(state.Addresses), addr)
		return state
	})
	return addr, nil
}

// RemoveAddress deletes the address, scoped to the owning user, and
// filters it from the local cache on success.
func (s *Synchronizer) RemoveAddress(ctx context.Context, id string) error {
	userID, err := s.requireUser()
	if err != nil {
		return err
	}

	filter := gateway.Filter{"id": id, "user_id": userID}
	if err := s.gw.DeleteMany(s.logg.WithUserID(ctx, userID), "addresses", filter); err != nil {
		return err
	}

	s.store.Set(func(state State) State {
		addresses := make([]Address, 0, len(state.Addresses))
		for _, addr := range state.Addresses {
			if addr.ID != id {
				addresses = append(addresses, addr)
			}
		}
		state.Addresses = addresses
		return state
	})
	return nil
}

// SetDefaultAddress makes id the user's single default address. The
// remote write is two-phase: clear the flag on every row, then set it on
// the target. A failure between the phases leaves no default, which is
// recoverable by re-running; at no point can two defaults exist.
func (s *Synchronizer) SetDefaultAddress(ctx context.Context, id string) error {
	userID, err := s.requireUser()
	if err != nil {
		return err
	}
	ctx = s.logg.WithUserID(ctx, userID)

	cleared := gateway.Row{"is_default": false}
	if err := s.gw.UpdateMany(ctx, "addresses", gateway.Filter{"user_id": userID}, cleared); err != nil {
		return err
	}
	target := gateway.Filter{"id": id, "user_id": userID}
	if err := s.gw.UpdateMany(ctx, "addresses", target, gateway.Row{"is_default": true}); err != nil {
		return err
	}

	s.store.Set(func(state State) State {
		addresses := cloneAddresses(state.Addresses)
		for i := range addresses {
			addresses[i].IsDefault = addresses[i].ID == id
		}
		state.Addresses = addresses
		return state
	})
	return nil
}

// AddFamilyMember validates and inserts the member, returning it with the
// assigned identity.
func (s *Synchronizer) AddFamilyMember(ctx context.Context, member FamilyMember) (FamilyMember, error) {
	userID, err := s.requireUser()
	if err != nil {
		return FamilyMember{}, err
	}
	if err := s.validate.Struct(member); err != nil {
		return FamilyMember{}, errors.Wrap(errors.CodeValidation, err, "invalid family member")
	}

	id, err := s.gw.InsertOne(s.logg.WithUserID(ctx, userID), "family_members", memberRow(userID, member))
	if err != nil {
		return FamilyMember{}, err
	}
	member.ID = id

	s.store.Set(func(state State) State {
		state.Family = append(cloneFamily(state.Family), member)
		return state
	})
	return member, nil
}

// RemoveFamilyMember deletes the member, scoped to the owning user.
func (s *Synchronizer) RemoveFamilyMember(ctx context.Context, id string) error {
	userID, err := s.requireUser()
	if err != nil {
		return err
	}

	filter := gateway.Filter{"id": id, "user_id": userID}
	if err := s.gw.DeleteMany(s.logg.WithUserID(ctx, userID), "family_members", filter); err != nil {
		return err
	}

	s.store.Set(func(state State) State {
		family := make([]FamilyMember, 0, len(state.Family))
		for _, member := range state.Family {
			if member.ID != id {
				family = append(family, member)
			}
		}
		state.Family = family
		return state
	})
	return nil
}
