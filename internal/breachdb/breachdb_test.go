package breachdb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCorpus = `{
  "breaches": [
    {"Name": "Adobe", "Title": "Adobe", "Domain": "adobe.com", "BreachDate": "2013-10-04",
     "DataClasses": ["Email addresses", "Password hints"], "PwnCount": 152445165},
    {"Name": "LinkedIn", "Title": "LinkedIn", "Domain": "linkedin.com", "BreachDate": "2012-05-05",
     "DataClasses": ["Email addresses", "Passwords"], "PwnCount": 164611595},
    {"Name": "Canva", "Domain": "canva.com", "BreachDate": "2019-05-24"}
  ],
  "accounts": [
    {"email": "Alice@Example.com", "breaches": ["Adobe", "LinkedIn", "Canva"]},
    {"email": "bob@example.com", "breaches": ["Adobe"]}
  ]
}`

// setupTestDB creates a corpus in a temporary directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "breaches.db")
	db, err := Open(dbPath, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open breach corpus: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close breach corpus: %v", err)
		}
	})
	return db
}

func importSample(t *testing.T, db *DB) ImportStats {
	t.Helper()

	c, err := ReadCorpus(strings.NewReader(sampleCorpus))
	if err != nil {
		t.Fatalf("ReadCorpus: %v", err)
	}
	stats, err := db.Import(context.Background(), c)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return stats
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and directory", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if !strings.HasSuffix(db.Path(), "breaches.db") {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("missing file without create fails", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "absent.db"), Options{})
		if err == nil {
			t.Fatal("expected error for missing corpus")
		}
	})
}

func TestImportAndLookup(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	stats := importSample(t, db)
	if stats.Breaches != 3 || stats.Exposures != 4 {
		t.Errorf("unexpected import stats %+v", stats)
	}

	ctx := context.Background()

	t.Run("lookup is case-insensitive and newest first", func(t *testing.T) {
		breaches, err := db.LookupBreaches(ctx, "alice@example.com")
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, b := range breaches {
			names = append(names, b.Name)
		}
		if got := strings.Join(names, ","); got != "Canva,Adobe,LinkedIn" {
			t.Errorf("unexpected order %s", got)
		}
		adobe := breaches[1]
		if adobe.PwnCount != 152445165 || len(adobe.DataClasses) != 2 || adobe.Domain != "adobe.com" {
			t.Errorf("unexpected Adobe record %+v", adobe)
		}
	})

	t.Run("unknown address has no breaches", func(t *testing.T) {
		breaches, err := db.LookupBreaches(ctx, "carol@example.com")
		if err != nil {
			t.Fatal(err)
		}
		if breaches == nil || len(breaches) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", breaches)
		}
	})

	t.Run("stats", func(t *testing.T) {
		nb, na, err := db.Stats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if nb != 3 || na != 2 {
			t.Errorf("expected 3 breaches and 2 accounts, got %d and %d", nb, na)
		}
	})
}

func TestImportIsIdempotent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	importSample(t, db)
	again := importSample(t, db)
	if again.Exposures != 0 {
		t.Errorf("expected no new exposures on re-import, got %d", again.Exposures)
	}

	updated := &Corpus{Breaches: []BreachRecord{{Name: "Adobe", Title: "Adobe Systems", PwnCount: 1}}}
	if _, err := db.Import(context.Background(), updated); err != nil {
		t.Fatal(err)
	}
	breaches, err := db.LookupBreaches(context.Background(), "bob@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(breaches) != 1 || breaches[0].Title != "Adobe Systems" || breaches[0].PwnCount != 1 {
		t.Errorf("expected updated Adobe record, got %+v", breaches)
	}
}

func TestReadCorpusInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "breaches: []"},
		{name: "unnamed breach", doc: `{"breaches":[{"Title":"x"}]}`},
		{name: "unknown breach reference", doc: `{"breaches":[],"accounts":[{"email":"a@b.c","breaches":["Nope"]}]}`},
		{name: "bad address", doc: `{"breaches":[{"Name":"A"}],"accounts":[{"email":"nobody","breaches":["A"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadCorpus(strings.NewReader(tt.doc))
			if !errors.Is(err, ErrInvalidCorpus) {
				t.Errorf("expected ErrInvalidCorpus, got %v", err)
			}
		})
	}
}
