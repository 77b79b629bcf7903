package models

// Hit is a single extracted contact record. It is immutable once created:
// workers append hits to the result list and hand them to the OnFound
// callback, but never mutate them afterwards.
type Hit struct {
	// SourceDomain is the crawl's target domain.
	SourceDomain string

	// Username is a best-effort label for the contact, taken from the
	// page's first heading or title. Empty when the page had no phone.
	Username string

	// Phone is the number in E.164 form (+48XXXXXXXXX), or "".
	Phone string

	// Email is the address as matched, or "".
	Email string

	// URL is the page the contact was extracted from.
	URL string
}

// PathCount pairs a first-path-segment with the number of scanned pages
// under it. The OnStats callback receives the top segments by count.
type PathCount struct {
	Segment string
	Count   int
}
