package crawler

import "github.com/ACSiskin/PhORN/models"

// Callbacks is the observation surface the crawl engine reports through.
// Workers invoke callbacks synchronously and may do so concurrently; the
// consumer is responsible for its own synchronization. Any nil callback
// is treated as a no-op.
type Callbacks struct {
	// OnScan fires once per fetched URL, before the fetch starts.
	OnScan func(url string)

	// OnFound fires for every assembled Hit.
	OnFound func(hit models.Hit)

	// OnStatus reports the running counters.
	OnStatus func(scanned, queued, found, errors int)

	// OnDetail receives human-readable progress lines.
	OnDetail func(msg string)

	// OnStats reports unique-contact counts and the top path segments.
	OnStats func(uniquePhones, uniqueEmails int, topPaths []models.PathCount)
}

// normalized returns a copy with nil callbacks replaced by no-ops.
func (cb Callbacks) normalized() Callbacks {
	if cb.OnScan == nil {
		cb.OnScan = func(string) {}
	}
	if cb.OnFound == nil {
		cb.OnFound = func(models.Hit) {}
	}
	if cb.OnStatus == nil {
		cb.OnStatus = func(int, int, int, int) {}
	}
	if cb.OnDetail == nil {
		cb.OnDetail = func(string) {}
	}
	if cb.OnStats == nil {
		cb.OnStats = func(int, int, []models.PathCount) {}
	}
	return cb
}
