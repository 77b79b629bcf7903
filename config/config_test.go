package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	c := &Config{Domain: "example.pl"}
	c.ApplyDefaults()

	if c.Mode != ModePhones {
		t.Errorf("Mode = %d, want %d", c.Mode, ModePhones)
	}
	if c.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", c.Concurrency)
	}
	if c.InteractiveTimeout != 60*time.Second {
		t.Errorf("InteractiveTimeout = %v", c.InteractiveTimeout)
	}
	if c.MaxPages != 0 {
		t.Errorf("MaxPages = %d, want 0 (zero means scan nothing)", c.MaxPages)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Domain: "example.pl", Mode: ModeBoth, MaxPages: 10}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := []Config{
		{Mode: ModePhones},                              // missing domain
		{Domain: "d", Mode: 4},                          // bad mode
		{Domain: "d", Mode: 1, RenderMode: 3},           // bad render mode
		{Domain: "d", Mode: 1, IncludeRE: "("},          // bad include regex
		{Domain: "d", Mode: 1, ExcludeRE: "[z-a]"},      // bad exclude regex
		{Domain: "d", Mode: 1, MaxPages: -1},            // negative pages
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PHORN_DOMAIN", "example.pl")
	t.Setenv("PHORN_MODE", "3")
	t.Setenv("PHORN_MAX_DEPTH", "2")
	t.Setenv("PHORN_DELAY", "250ms")
	t.Setenv("PHORN_OBEY_ROBOTS", "true")

	cfg := Load()
	if cfg.Domain != "example.pl" || cfg.Mode != 3 || !cfg.ObeyRobots {
		t.Errorf("Load = %+v", cfg)
	}
	if cfg.MaxDepth == nil || *cfg.MaxDepth != 2 {
		t.Error("MaxDepth not loaded")
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("Delay = %v", cfg.Delay)
	}
	if cfg.MaxPages != 200 {
		t.Errorf("MaxPages default = %d, want 200", cfg.MaxPages)
	}
}
