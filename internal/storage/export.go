package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/pollinet/internal/experiment"
)

type ExportData struct {
	Run  RunMetadata      `json:"run"`
	Rows []experiment.Row `json:"rows,omitempty"`
}

// ExportJSON writes a run's metadata and result rows as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, rows []experiment.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Rows: rows})
}
