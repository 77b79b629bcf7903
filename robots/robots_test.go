package robots

import (
	"context"
	"errors"
	"testing"
)

func TestParseAgentBlocks(t *testing.T) {
	body := `
# comment
User-agent: googlebot
Disallow: /only-google

User-agent: *
Disallow: /private
Disallow: /tmp/

User-agent: phorn
Disallow: /for-us
`
	r := Parse(body)
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	if r.Allowed("https://example.pl/private/x") {
		t.Error("/private/x should be disallowed")
	}
	if r.Allowed("https://example.pl/tmp/a") {
		t.Error("/tmp/a should be disallowed")
	}
	if r.Allowed("https://example.pl/for-us") {
		t.Error("/for-us should be disallowed (phorn block)")
	}
	if !r.Allowed("https://example.pl/only-google") {
		t.Error("/only-google applies to googlebot, not us")
	}
	if !r.Allowed("https://example.pl/public") {
		t.Error("/public should be allowed")
	}
}

func TestParseEmptyDisallowBlocksSite(t *testing.T) {
	r := Parse("User-agent: *\nDisallow:\n")
	if r.Allowed("https://example.pl/anything") {
		t.Error("empty Disallow should block the whole site")
	}
}

func TestAllowedRootRule(t *testing.T) {
	r := Parse("User-agent: *\nDisallow: /\n")
	if r.Allowed("https://example.pl/") {
		t.Error("rule / blocks everything")
	}
}

func TestEmptyRulesAllowEverything(t *testing.T) {
	r := &Rules{}
	if !r.Allowed("https://example.pl/private") {
		t.Error("no rules should allow everything")
	}
}

type fakeFetcher struct {
	status int
	body   string
	err    error
	calls  []string
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) (int, string, error) {
	f.calls = append(f.calls, rawURL)
	return f.status, f.body, f.err
}

func TestFetchFallsBackToEmptyRules(t *testing.T) {
	f := &fakeFetcher{err: errors.New("dial refused")}
	r := Fetch(context.Background(), f, "example.pl")
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if len(f.calls) != 2 {
		t.Errorf("expected https then http attempts, got %v", f.calls)
	}
}

func TestFetchParsesFirstSuccess(t *testing.T) {
	f := &fakeFetcher{status: 200, body: "User-agent: *\nDisallow: /x\n"}
	r := Fetch(context.Background(), f, "example.pl")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if len(f.calls) != 1 || f.calls[0] != "https://example.pl/robots.txt" {
		t.Errorf("calls = %v", f.calls)
	}
}
