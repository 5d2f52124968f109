// Package archive assembles the bulk-download zip: the per-order print
// files plus a trailing manifest describing what made it in and why the
// rest did not.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/footprint-shop/api/internal/printfile"
)

// ManifestEntry records the packaging outcome for one requested order.
type ManifestEntry struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// Manifest summarises an archive build. Entries holds one row per
// requested id, missing orders included; requested counts the ids the
// caller sent.
type Manifest struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Requested   int             `json:"requested"`
	Included    int             `json:"included"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	NotFound    int             `json:"notFound"`
	Entries     []ManifestEntry `json:"entries"`
}

const manifestName = "manifest.json"

// Assemble writes files into a zip in order, appending the manifest as the
// final entry.
func Assemble(files []printfile.File, manifest Manifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, file := range files {
		entry, err := writer.Create(file.Name)
		if err != nil {
			return nil, fmt.Errorf("archive: create entry %q: %w", file.Name, err)
		}
		if _, err := entry.Write(file.Data); err != nil {
			return nil, fmt.Errorf("archive: write entry %q: %w", file.Name, err)
		}
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("archive: marshal manifest: %w", err)
	}
	entry, err := writer.Create(manifestName)
	if err != nil {
		return nil, fmt.Errorf("archive: create manifest: %w", err)
	}
	if _, err := entry.Write(manifestJSON); err != nil {
		return nil, fmt.Errorf("archive: write manifest: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName builds the archive's download name. The date plus unix seconds
// make names sortable; the suffix disambiguates archives generated within
// the same second.
func FileName(now time.Time, suffix string) string {
	base := fmt.Sprintf("print-files-%s-%d", now.UTC().Format("2006-01-02"), now.Unix())
	if suffix != "" {
		return fmt.Sprintf("%s-%s.zip", base, suffix)
	}
	return base + ".zip"
}
