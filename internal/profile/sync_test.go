package profile

import (
	"context"
	"testing"

	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/auth/session"
	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/citymeds/citymeds-go/pkg/errors"
)

func newTestSynchronizer(t *testing.T, opts Options) *Synchronizer {
	t.Helper()

	if opts.Gateway == nil {
		opts.Gateway = gateway.NewMemory()
	}
	if opts.Session == nil {
		opts.Session = session.Static("u1")
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func homeAddress() Address {
	return Address{
		Tag:     enums.AddressTagHome,
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		Pincode: "560001",
	}
}

func strPtr(v string) *string { return &v }

func TestGuestWritesArePermissionDenied(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, Options{Session: session.Static("")})
	ctx := context.Background()

	if _, err := s.AddAddress(ctx, homeAddress()); !errors.HasCode(err, errors.CodePermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if err := s.UpdateProfile(ctx, Patch{Name: strPtr("Asha")}); !errors.HasCode(err, errors.CodePermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("guest load must be a silent no-op, got %v", err)
	}
	if !s.Snapshot().Profile.IsGuest() {
		t.Fatal("guest sentinel must survive")
	}
}

func TestUpdateProfileCreatesRowOnFirstSave(t *testing.T) {
	t.Parallel()

	gw := gateway.NewMemory()
	s := newTestSynchronizer(t, Options{Gateway: gw})
	ctx := context.Background()

	err := s.UpdateProfile(ctx, Patch{Name: strPtr("Asha"), BloodGroup: strPtr("O+")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	row, err := gw.SelectOne(ctx, "profiles", gateway.Filter{"user_id": "u1"})
	if err != nil || row == nil {
		t.Fatalf("expected remote profile row, got %v %v", row, err)
	}
	if row.String("name") != "Asha" || row.String("blood_group") != "O+" {
		t.Fatalf("unexpected remote row %v", row)
	}

	local := s.Snapshot().Profile
	if local.Name != "Asha" || local.BloodGroup != "O+" || local.UserID != "u1" {
		t.Fatalf("unexpected local profile %+v", local)
	}
}

func TestUpdateProfilePatchesOnlySetFields(t *testing.T) {
	t.Parallel()

	gw := gateway.NewMemory()
	s := newTestSynchronizer(t, Options{Gateway: gw})
	ctx := context.Background()

	if err := s.UpdateProfile(ctx, Patch{Name: strPtr("Asha"), Email: strPtr("asha@example.com")}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	if err := s.UpdateProfile(ctx, Patch{Name: strPtr("Asha R")}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	local := s.Snapshot().Profile
	if local.Name != "Asha R" || local.Email != "asha@example.com" {
		t.Fatalf("patch touched unset fields: %+v", local)
	}
}

func TestUpdateProfileFailureLeavesLocalUntouched(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, Options{Gateway: failingGateway{}})

	err := s.UpdateProfile(context.Background(), Patch{Name: strPtr("Asha")})
	if !errors.HasCode(err, errors.CodeNetwork) {
		t.Fatalf("expected surfaced network error, got %v", err)
	}
	if s.Snapshot().Profile.Name != "" {
		t.Fatal("local cache must not change on remote failure")
	}
}

func TestAddAddressValidates(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, Options{})

	bad := homeAddress()
	bad.Pincode = "56"
	if _, err := s.AddAddress(context.Background(), bad); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(s.Snapshot().Addresses) != 0 {
		t.Fatal("invalid address must not reach the cache")
	}
}

func TestAddAndRemoveAddress(t *testing.T) {
	t.Parallel()

	gw := gateway.NewMemory()
	s := newTestSynchronizer(t, Options{Gateway: gw})
	ctx := context.Background()

	added, err := s.AddAddress(ctx, homeAddress())
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected assigned address id")
	}
	if len(s.Snapshot().Addresses) != 1 {
		t.Fatal("expected cached address")
	}

	if err := s.RemoveAddress(ctx, added.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(s.Snapshot().Addresses) != 0 {
		t.Fatal("expected cache filtered")
	}
	row, err := gw.SelectOne(ctx, "addresses", gateway.Filter{"id": added.ID})
	if err != nil || row != nil {
		t.Fatalf("expected remote row deleted, got %v %v", row, err)
	}
}

func TestSetDefaultAddressKeepsExactlyOneDefault(t *testing.T) {
	t.Parallel()

	gw := gateway.NewMemory()
	s := newTestSynchronizer(t, Options{Gateway: gw})
	ctx := context.Background()

	first := homeAddress()
	first.IsDefault = true
	firstAdded, err := s.AddAddress(ctx, first)
	if err != nil {
		t.Fatalf("add first: %v", err)
	}

	second := homeAddress()
	second.Tag = enums.AddressTagOffice
	second.Line1 = "80 Residency Road"
	secondAdded, err := s.AddAddress(ctx, second)
	if err != nil {
		t.Fatalf("add second: %v", err)
	}

	if err := s.SetDefaultAddress(ctx, secondAdded.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}

	defaults := 0
	for _, addr := range s.Snapshot().Addresses {
		if addr.IsDefault {
			defaults++
			if addr.ID != secondAdded.ID {
				t.Fatalf("wrong default %s", addr.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one local default, got %d", defaults)
	}

	rows, err := gw.SelectMany(ctx, "addresses", gateway.Filter{"user_id": "u1"}, "")
	if err != nil {
		t.Fatalf("select remote: %v", err)
	}
	remoteDefaults := 0
	for _, row := range rows {
		if row.Bool("is_default") {
			remoteDefaults++
			if row.String("id") == firstAdded.ID {
				t.Fatal("previous default not cleared remotely")
			}
		}
	}
	if remoteDefaults != 1 {
		t.Fatalf("expected exactly one remote default, got %d", remoteDefaults)
	}
}

func TestLoadReplacesCacheWithDefaultFirstOrder(t *testing.T) {
	t.Parallel()

	gw := gateway.NewMemory()
	ctx := context.Background()
	seed := []gateway.Row{
		{"user_id": "u1", "tag": "Office", "line1": "80 Residency Road", "city": "Bengaluru", "pincode": "560025", "is_default": false},
		{"user_id": "u1", "tag": "Home", "line1": "12 MG Road", "city": "Bengaluru", "pincode": "560001", "is_default": true},
	}
	if err := gw.InsertMany(ctx, "addresses", seed); err != nil {
		t.Fatalf("seed addresses: %v", err)
	}
	if _, err := gw.InsertOne(ctx, "profiles", gateway.Row{"user_id": "u1", "name": "Asha"}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if _, err := gw.InsertOne(ctx, "family_members", gateway.Row{"user_id": "u1", "name": "Anu", "relation": "daughter", "age": 8}); err != nil {
		t.Fatalf("seed family: %v", err)
	}

	s := newTestSynchronizer(t, Options{Gateway: gw})
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	state := s.Snapshot()
	if state.Profile.Name != "Asha" {
		t.Fatalf("unexpected profile %+v", state.Profile)
	}
	if len(state.Addresses) != 2 || !state.Addresses[0].IsDefault {
		t.Fatalf("expected default-first order, got %+v", state.Addresses)
	}
	if len(state.Family) != 1 || state.Family[0].Name != "Anu" {
		t.Fatalf("unexpected family %+v", state.Family)
	}
}

func TestAddAndRemoveFamilyMember(t *testing.T) {
	t.Parallel()

	s := newTestSynchronizer(t, Options{})
	ctx := context.Background()

	added, err := s.AddFamilyMember(ctx, FamilyMember{Name: "Ravi", Relation: "father", Age: 62})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected assigned member id")
	}

	if _, err := s.AddFamilyMember(ctx, FamilyMember{Relation: "brother", Age: 30}); !errors.HasCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation error for missing name, got %v", err)
	}

	if err := s.RemoveFamilyMember(ctx, added.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(s.Snapshot().Family) != 0 {
		t.Fatal("expected family cache emptied")
	}
}

func TestDirectoryRehydrates(t *testing.T) {
	t.Parallel()

	storage := store.NewMemStorage()
	first := newTestSynchronizer(t, Options{Storage: storage})
	if _, err := first.AddAddress(context.Background(), homeAddress()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	second := newTestSynchronizer(t, Options{Storage: storage})
	if len(second.Snapshot().Addresses) != 1 {
		t.Fatal("expected rehydrated address cache")
	}
}

// failingGateway fails every operation with a network error.
type failingGateway struct{}

func (failingGateway) InsertOne(context.Context, string, gateway.Row) (string, error) {
	return "", errors.New(errors.CodeNetwork, "remote unavailable")
}

func (failingGateway) InsertMany(context.Context, string, []gateway.Row) error {
	return errors.New(errors.CodeNetwork, "remote unavailable")
}

func (failingGateway) UpdateMany(context.Context, string, gateway.Filter, gateway.Row) error {
	return errors.New(errors.CodeNetwork, "remote unavailable")
}

func (failingGateway) DeleteMany(context.Context, string, gateway.Filter) error {
	return errors.New(errors.CodeNetwork, "remote unavailable")
}

func (failingGateway) SelectOne(context.Context, string, gateway.Filter) (gateway.Row, error) {
	return nil, errors.New(errors.CodeNetwork, "remote unavailable")
}

func (failingGateway) SelectMany(context.Context, string, gateway.Filter, string) ([]gateway.Row, error) {
	return nil, errors.New(errors.CodeNetwork, "remote unavailable")
}
