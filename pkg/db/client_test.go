package db

import (
	"context"
	"errors"
	"testing"

	"github.com/citymeds/citymeds-go/pkg/config"
	"gorm.io/gorm"
)

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: "sqlite",
	}, nil)
	if err != nil {
		t.Fatalf("opening sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestPing(t *testing.T) {
	client := newSQLiteClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newSQLiteClient(t)

	if err := client.DB().Exec("CREATE TABLE samples (id INTEGER PRIMARY KEY, name TEXT)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO samples (name) VALUES ('x')").Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := client.DB().Table("samples").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
