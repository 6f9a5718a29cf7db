// Package audit records what happened to the annotation store: raw imported
// payloads are kept on disk as JSON files and every import, export, migration,
// settings change and login attempt is logged as an AuditEvent row.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Auditor archives import payloads under one directory. Files are written
// whole or not at all.
type Auditor struct {
	dir string
	now func() time.Time
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{dir: auditDir, now: time.Now}
}

// payloadName sorts by arrival: "20261014T093000Z-<uuid>.json".
func (a *Auditor) payloadName() string {
	return a.now().UTC().Format("20060102T150405Z") + "-" + uuid.NewString() + ".json"
}

// SaveJSON archives data as indented JSON and returns the file name to store
// on the audit event.
func (a *Auditor) SaveJSON(data any) (string, error) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode audit payload: %w", err)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	tmp, err := os.CreateTemp(a.dir, ".payload-*")
	if err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	name := a.payloadName()
	if err := os.Rename(tmp.Name(), filepath.Join(a.dir, name)); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}
	log.Printf("[AUDIT] Archived payload %s (%d bytes)", name, len(body))
	return name, nil
}

// Load reads an archived payload back into v. Only bare file names are
// accepted.
func (a *Auditor) Load(filename string, v any) error {
	if filename == "" || filepath.Base(filename) != filename {
		return fmt.Errorf("invalid audit file name %q", filename)
	}
	data, err := os.ReadFile(filepath.Join(a.dir, filename))
	if err != nil {
		return fmt.Errorf("failed to read audit file: %w", err)
	}
	return json.Unmarshal(data, v)
}
