// Package reporting persists the extraction result for downstream
// consumers. The extraction session itself never touches the filesystem;
// this is the boundary where its sorted document list becomes files.
package reporting

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Report is the JSON artifact written after a run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Count       int       `json:"count"`
	Documents   []string  `json:"documents"`
}

// Write stores the document list under outputDir as JSON (reportName) and
// as a CSV sibling, returning both paths.
func Write(outputDir, reportName string, documents []string) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	jsonPath = filepath.Join(outputDir, reportName)
	if err := writeJSON(jsonPath, documents); err != nil {
		return "", "", err
	}

	base := strings.TrimSuffix(reportName, filepath.Ext(reportName))
	csvPath = filepath.Join(outputDir, base+".csv")
	if err := writeCSV(csvPath, documents); err != nil {
		return "", "", err
	}

	return jsonPath, csvPath, nil
}

func writeJSON(path string, documents []string) error {
	report := Report{
		GeneratedAt: time.Now(),
		Count:       len(documents),
		Documents:   documents,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, documents []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	defer f.Close()

	// BOM so spreadsheet tools open the UTF-8 content correctly.
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"documento"}); err != nil {
		return err
	}
	for _, doc := range documents {
		if err := w.Write([]string{doc}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
