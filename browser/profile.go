package browser

import (
	"os"
	"path/filepath"
	"strings"
)

// profileDir returns the persistent Chromium profile directory for a
// target domain, creating it if needed. Keeping one profile per domain
// preserves clearance cookies between runs.
func profileDir(domain string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	base := filepath.Join(home, ".phorn", "profiles")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(base, strings.ReplaceAll(domain, ":", "_")), nil
}

// cleanupSingleton removes stale single-instance lock files left behind by
// a crashed Chromium, which would otherwise refuse the profile.
func cleanupSingleton(dir string) {
	if dir == "" {
		return
	}
	for _, name := range []string{"SingletonLock", "SingletonCookie", "SingletonSocket"} {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
