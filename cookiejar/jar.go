// Package cookiejar keeps a process-wide mapping of host to serialized
// Cookie header. Renders and interactive unlocks write captured cookies
// here; every HTTP fetch reads the header for its host back out.
package cookiejar

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ACSiskin/PhORN/urlutil"
)

// Jar is safe for concurrent use. Writes are last-writer-wins per host.
type Jar struct {
	mu      sync.RWMutex
	headers map[string]string
}

// New creates an empty Jar.
func New() *Jar {
	return &Jar{headers: make(map[string]string)}
}

// Put stores a serialized "name=value; ..." header for a host. The header
// is also mirrored under the host's parent domain (everything after the
// first dot), so a capture on www.example.pl serves example.pl fetches too.
func (j *Jar) Put(host, header string) {
	host = urlutil.NormalizeHost(host)
	if host == "" || header == "" {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.headers[host] = header
	if idx := strings.Index(host, "."); idx != -1 {
		j.headers[host[idx+1:]] = header
	}
}

// Get returns the header stored for a host, or "".
func (j *Jar) Get(host string) string {
	host = urlutil.NormalizeHost(host)
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.headers[host]
}

// GetForURL returns the header stored for a URL's host, or "".
func (j *Jar) GetForURL(rawURL string) string {
	return j.Get(urlutil.HostOf(rawURL))
}

// ImportFile seeds the jar for host from a file holding one serialized
// header line.
func (j *Jar) ImportFile(host, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if hdr := strings.TrimSpace(string(data)); hdr != "" {
		j.Put(host, hdr)
	}
	return nil
}

// ExportFile writes the header for host to path; when the jar has no entry
// for that host, any stored header is written instead. Writing nothing is
// not an error.
func (j *Jar) ExportFile(host, path string) error {
	host = urlutil.NormalizeHost(host)
	j.mu.RLock()
	hdr := j.headers[host]
	if hdr == "" {
		for _, v := range j.headers {
			hdr = v
			break
		}
	}
	j.mu.RUnlock()
	if hdr == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(hdr), 0o600)
}
