// Command syncdemo wires the full client sync stack and walks one
// add/push/pull round trip, printing the cart totals along the way. Run
// it twice against the same storage dir to see rehydration.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/citymeds/citymeds-go/internal/cart"
	"github.com/citymeds/citymeds-go/internal/gateway"
	"github.com/citymeds/citymeds-go/internal/location"
	"github.com/citymeds/citymeds-go/internal/profile"
	"github.com/citymeds/citymeds-go/internal/store"
	"github.com/citymeds/citymeds-go/pkg/auth/session"
	"github.com/citymeds/citymeds-go/pkg/config"
	"github.com/citymeds/citymeds-go/pkg/db"
	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/citymeds/citymeds-go/pkg/geocode"
	"github.com/citymeds/citymeds-go/pkg/logger"
	"github.com/citymeds/citymeds-go/pkg/metrics"
	"github.com/citymeds/citymeds-go/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "syncdemo"})

	_ = godotenv.Load()

	offline := flag.Bool("offline", false, "use the in-memory gateway instead of a database")
	userID := flag.String("user", "demo-user", "session user id (ignored when -token is set)")
	token := flag.String("token", "", "access token to authenticate the session with")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "syncdemo",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	storage, err := store.NewFileStorage(cfg.Storage.Dir)
	requireResource(ctx, logg, "storage", err)

	var gw gateway.Gateway
	if *offline {
		gw = gateway.NewMemory()
		logg.Info(ctx, "using in-memory gateway")
	} else {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		defer func() { _ = dbClient.Close() }()

		err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
		requireResource(ctx, logg, "migrations", err)

		gw, err = gateway.NewGorm(dbClient)
		requireResource(ctx, logg, "gateway", err)
	}

	sess := resolveSession(ctx, logg, cfg, *userID, *token)
	syncMetrics := metrics.NewSyncMetrics(prometheus.NewRegistry())

	cartSync, err := cart.New(cart.Options{
		Gateway: gw,
		Session: sess,
		Storage: storage,
		Logger:  logg,
		Metrics: syncMetrics,
	})
	requireResource(ctx, logg, "cart synchronizer", err)

	profileSync, err := profile.New(profile.Options{
		Gateway: gw,
		Session: sess,
		Storage: storage,
		Logger:  logg,
	})
	requireResource(ctx, logg, "profile synchronizer", err)

	fmt.Printf("rehydrated cart: %d items, status=%s\n",
		len(cartSync.Snapshot().Items), cartSync.Snapshot().Status)

	cartSync.Subscribe(func(state cart.State) {
		logg.Debug(logg.WithStore(ctx, "cart"), fmt.Sprintf("cart now %s with %d items", state.Status, len(state.Items)))
	})

	cartSync.AddItem(cart.Line{
		ItemID:        "med-paracetamol-500",
		Kind:          enums.ItemKindMedicine,
		Name:          "Paracetamol 500mg",
		UnitPrice:     decimal.RequireFromString("30.00"),
		UnitListPrice: decimal.RequireFromString("35.00"),
		Quantity:      1,
		PackLabel:     "strip of 15",
	})
	cartSync.AddItem(cart.Line{
		ItemID:        "med-paracetamol-500",
		Quantity:      2,
		UnitPrice:     decimal.RequireFromString("30.00"),
		UnitListPrice: decimal.RequireFromString("35.00"),
	})
	cartSync.AddItem(cart.Line{
		ItemID:        "lab-cbc",
		Kind:          enums.ItemKindLab,
		Name:          "Complete Blood Count",
		UnitPrice:     decimal.RequireFromString("400.00"),
		UnitListPrice: decimal.RequireFromString("500.00"),
		Quantity:      1,
	})

	fmt.Printf("cart: %d units, total %s (mrp %s)\n",
		cartSync.TotalQuantity(), cartSync.TotalPrice(), cartSync.TotalListPrice())

	cartSync.Push(ctx)
	cartSync.Pull(ctx)
	state := cartSync.Snapshot()
	fmt.Printf("after push+pull: %d items, status=%s, cart_id=%s\n",
		len(state.Items), state.Status, state.CartID)

	runProfileDemo(ctx, logg, profileSync)
	runLocationDemo(ctx, logg, cfg, storage)
}

func resolveSession(ctx context.Context, logg *logger.Logger, cfg *config.Config, userID, token string) session.Provider {
	if token == "" {
		return session.Static(userID)
	}

	manager, err := session.NewManager(cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	subject, err := manager.Authenticate(token)
	requireResource(ctx, logg, "session token", err)

	logg.Info(logg.WithUserID(ctx, subject), "session authenticated")
	return manager
}

func runProfileDemo(ctx context.Context, logg *logger.Logger, profileSync *profile.Synchronizer) {
	if err := profileSync.Load(ctx); err != nil {
		logg.Error(ctx, "profile load failed", err)
		return
	}

	name := "Asha"
	if err := profileSync.UpdateProfile(ctx, profile.Patch{Name: &name}); err != nil {
		logg.Error(ctx, "profile update failed", err)
		return
	}

	addr, err := profileSync.AddAddress(ctx, profile.Address{
		Tag:     enums.AddressTagHome,
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		Pincode: "560001",
	})
	if err != nil {
		logg.Error(ctx, "add address failed", err)
		return
	}
	if err := profileSync.SetDefaultAddress(ctx, addr.ID); err != nil {
		logg.Error(ctx, "set default address failed", err)
		return
	}

	dir := profileSync.Snapshot()
	fmt.Printf("profile: %s, %d addresses, %d family members\n",
		dir.Profile.Name, len(dir.Addresses), len(dir.Family))
}

func runLocationDemo(ctx context.Context, logg *logger.Logger, cfg *config.Config, storage store.Storage) {
	geocoder, err := geocode.NewClient(cfg.Geocode.APIKey,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithHTTPClient(&http.Client{Timeout: cfg.Geocode.Timeout}),
	)
	if err != nil {
		// No API key configured; manual selection still works.
		geocoder = nil
	}

	resolver, err := location.New(location.Options{
		Geolocator: fixedGeolocator{lat: 12.9716, lng: 77.5946},
		Geocoder:   geocoderOrNil{geocoder},
		Storage:    storage,
		Logger:     logg,
	})
	requireResource(ctx, logg, "location resolver", err)

	if geocoder != nil {
		resolver.Detect(ctx)
	} else {
		resolver.SetManual("Bengaluru", "MG Road")
	}

	state := resolver.Snapshot()
	fmt.Printf("location: %s (%s) status=%s", state.City, state.Address, state.Status)
	if state.Err != "" {
		fmt.Printf(" error=%q", state.Err)
	}
	fmt.Println()
}

// fixedGeolocator stands in for device geolocation, which a CLI has no
// access to.
type fixedGeolocator struct {
	lat, lng float64
}

func (f fixedGeolocator) Current(context.Context) (float64, float64, error) {
	return f.lat, f.lng, nil
}

// geocoderOrNil lets the resolver be constructed even without an API key.
type geocoderOrNil struct {
	client *geocode.Client
}

func (g geocoderOrNil) ReverseGeocode(ctx context.Context, lat, lng float64) (*geocode.Place, error) {
	return g.client.ReverseGeocode(ctx, lat, lng)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
