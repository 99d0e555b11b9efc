package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const issTLE = `ISS (ZARYA)
1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990
2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760
NOAA 19
1 33591U 09005A   21275.53210938  .00000070  00000-0  62389-4 0  9997
2 33591  99.1779 309.7829 0013434 255.1355 104.8312 14.12502409651616
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(issTLE), 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	iss := entries[0]
	if iss.Object.ID != 25544 {
		t.Errorf("ID = %d, want 25544", iss.Object.ID)
	}
	if iss.Object.Name != "ISS (ZARYA)" {
		t.Errorf("Name = %q, want %q", iss.Object.Name, "ISS (ZARYA)")
	}
	if !strings.HasPrefix(iss.Line1, "1 25544U") || !strings.HasPrefix(iss.Line2, "2 25544") {
		t.Errorf("TLE lines not captured: %q / %q", iss.Line1, iss.Line2)
	}
	if entries[1].Object.ID != 33591 {
		t.Errorf("second ID = %d, want 33591", entries[1].Object.ID)
	}
}

func TestParseMaxObjects(t *testing.T) {
	entries, err := Parse(strings.NewReader(issTLE), 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].Object.ID != 25544 {
		t.Fatalf("truncation kept %d entries (first id %d), want just 25544", len(entries), entries[0].Object.ID)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("\n\n"), 0); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestParseOrphanLine2(t *testing.T) {
	if _, err := Parse(strings.NewReader("2 25544  51.6459\n"), 0); err == nil {
		t.Fatal("expected error for line 2 without line 1")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.txt")
	if err := os.WriteFile(path, []byte(issTLE), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := Load(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestLoadMissingFileIsLoadError(t *testing.T) {
	_, err := Load(context.Background(), "/does/not/exist.txt", 0)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
}
