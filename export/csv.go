// Package export writes the final contact table to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/ACSiskin/PhORN/models"
)

// csvHeader is the fixed column order of the contact table.
var csvHeader = []string{"source_domain", "username", "phone", "email", "url"}

// Filename returns the timestamped CSV name for a crawl that finished at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("contacts_%s.csv", t.Format("20060102_150405"))
}

// WriteCSV writes hits to path as UTF-8 CSV with a header row.
func WriteCSV(path string, hits []models.Hit) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, h := range hits {
		if err := w.Write([]string{h.SourceDomain, h.Username, h.Phone, h.Email, h.URL}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
