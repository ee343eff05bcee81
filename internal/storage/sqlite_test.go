package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/fragments/internal/apperr"
)

func newSQLiteMetadata(t *testing.T) *SQLiteMetadata {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "fragments.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	f := newTestFragment(t, "owner-a", "text/markdown", []byte("# doc"))
	if err := store.Write(ctx, f); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := store.Read(ctx, "owner-a", f.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ID != f.ID || got.OwnerID != "owner-a" || got.Type != "text/markdown" {
		t.Errorf("record = %+v", got)
	}
	if got.Size != f.Size || got.Checksum != f.Checksum {
		t.Errorf("payload fields = (%d, %q), want (%d, %q)", got.Size, got.Checksum, f.Size, f.Checksum)
	}
	if !got.Created.Equal(f.Created) || !got.Updated.Equal(f.Updated) {
		t.Errorf("timestamps changed on round trip: %v/%v vs %v/%v",
			got.Created, got.Updated, f.Created, f.Updated)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	f := newTestFragment(t, "owner-a", "text/plain", []byte("v1"))
	if err := store.Write(ctx, f); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f.SetPayload([]byte("version two"))
	if err := store.Write(ctx, f); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := store.Read(ctx, "owner-a", f.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Size != int64(len("version two")) {
		t.Errorf("Size = %d after upsert", got.Size)
	}
	if !got.Created.Equal(f.Created) {
		t.Error("upsert changed creation time")
	}

	records, err := store.List(ctx, "owner-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1 (upsert, not insert)", len(records))
	}
}

func TestSQLiteMissing(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	if _, err := store.Read(ctx, "owner-a", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "owner-a", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDelete(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	f := newTestFragment(t, "owner-a", "text/plain", []byte("x"))
	if err := store.Write(ctx, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx, "owner-a", f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Read(ctx, "owner-a", f.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Read after Delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteOwnerIsolation(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	for _, owner := range []string{"owner-a", "owner-b"} {
		f := newTestFragment(t, owner, "text/plain", []byte(owner))
		if err := store.Write(ctx, f); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	records, err := store.List(ctx, "owner-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].OwnerID != "owner-a" {
		t.Errorf("owner-a listing = %+v", records)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("All = %d records, want 2", len(all))
	}
}

func TestSQLiteSameIDAcrossOwners(t *testing.T) {
	store := newSQLiteMetadata(t)
	ctx := context.Background()

	a := newTestFragment(t, "owner-a", "text/plain", []byte("a"))
	b := newTestFragment(t, "owner-b", "application/json", []byte("{}"))
	b.ID = a.ID
	if err := store.Write(ctx, a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Write(ctx, b); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := store.Read(ctx, "owner-b", a.ID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Type != "application/json" {
		t.Errorf("owner-b record = %+v", got)
	}
}

func TestOpenSQLiteCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	if _, err := store.All(context.Background()); err != nil {
		t.Fatalf("All on fresh database: %v", err)
	}
}
