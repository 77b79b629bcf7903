package cookiejar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPutMirrorsParentDomain(t *testing.T) {
	j := New()
	j.Put("www.Example.PL", "cf_clearance=abc; sess=1")

	if got := j.Get("www.example.pl"); got != "cf_clearance=abc; sess=1" {
		t.Errorf("exact host lookup = %q", got)
	}
	if got := j.Get("example.pl"); got != "cf_clearance=abc; sess=1" {
		t.Errorf("parent domain lookup = %q", got)
	}
	if got := j.Get("other.pl"); got != "" {
		t.Errorf("unrelated host lookup = %q, want empty", got)
	}
}

func TestPutIgnoresEmpty(t *testing.T) {
	j := New()
	j.Put("", "a=1")
	j.Put("example.pl", "")
	if got := j.Get("example.pl"); got != "" {
		t.Errorf("empty header stored: %q", got)
	}
}

func TestLastWriterWins(t *testing.T) {
	j := New()
	j.Put("example.pl", "a=1")
	j.Put("example.pl", "a=2")
	if got := j.Get("example.pl"); got != "a=2" {
		t.Errorf("Get = %q, want a=2", got)
	}
}

func TestGetForURLStripsPort(t *testing.T) {
	j := New()
	j.Put("example.pl", "a=1")
	if got := j.GetForURL("https://Example.pl:8443/path"); got != "a=1" {
		t.Errorf("GetForURL = %q", got)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cookies.txt")
	if err := os.WriteFile(in, []byte("sess=xyz; theme=dark\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	j := New()
	if err := j.ImportFile("example.pl", in); err != nil {
		t.Fatal(err)
	}
	if got := j.Get("example.pl"); got != "sess=xyz; theme=dark" {
		t.Errorf("imported header = %q", got)
	}

	out := filepath.Join(dir, "nested", "out.txt")
	if err := j.ExportFile("example.pl", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "sess=xyz; theme=dark" {
		t.Errorf("exported = %q", string(data))
	}
}

func TestExportFallsBackToAnyEntry(t *testing.T) {
	j := New()
	j.Put("www.example.pl", "only=entry")
	out := filepath.Join(t.TempDir(), "out.txt")
	if err := j.ExportFile("missing.pl", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "only=entry" {
		t.Errorf("exported = %q", string(data))
	}
}
