package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONFile is the report name inside the output directory.
const JSONFile = "report.json"

// WriteJSON writes r to dir/report.json through a temp file and rename, so
// a reader never sees a partial report.
func WriteJSON(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, JSONFile)
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// ReadJSON loads a report written by WriteJSON. Dimension and Measure are
// restored from their names.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if err := r.restoreKeys(); err != nil {
		return nil, err
	}
	return &r, nil
}
