package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ACSiskin/PhORN/models"
)

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)
	if got := Filename(ts); got != "contacts_20240307_150405.csv" {
		t.Errorf("Filename = %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	hits := []models.Hit{
		{SourceDomain: "example.pl", Username: "Jan K", Phone: "+48600700800", URL: "https://example.pl/"},
		{SourceDomain: "example.pl", Email: "a@b.co", URL: "https://example.pl/kontakt"},
	}
	if err := WriteCSV(path, hits); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "source_domain,username,phone,email,url" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "example.pl,Jan K,+48600700800,,https://example.pl/" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "example.pl,,,a@b.co,https://example.pl/kontakt" {
		t.Errorf("row 2 = %q", lines[2])
	}
}
