package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/obfuscator/internal/worker"
)

// reportDocument is the on-disk shape of a run's end-of-run summary, per
// §6's "Report" schema: one JSON file per run under reports/, named
// <database>-obfuscation-<timestamp>.json.
type reportDocument struct {
	RunID         string                `json:"runId"`
	ConfigHash    string                `json:"configHash"`
	Database      string                `json:"database"`
	Status        string                `json:"status"`
	DryRun        bool                  `json:"dryRun"`
	StartedAt     time.Time             `json:"-"`
	Duration      string                `json:"duration"`
	TotalRows     int64                 `json:"totalRowsProcessed"`
	TotalFailed   int64                 `json:"totalRowsFailed"`
	CacheDegraded bool                  `json:"cacheDegraded"`
	FailureLog    string                `json:"failureLogPath,omitempty"`
	Tables        []reportTableSummary  `json:"tables"`
}

type reportTableSummary struct {
	TableName string `json:"tableName"`
	Status    string `json:"status"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
}

// writeReport serializes summary to reports/<database>-obfuscation-<ts>.json
// under dir, per §6. A missing dir defaults to "reports".
func writeReport(dir string, summary *Summary) error {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory %q: %w", dir, err)
	}

	doc := reportDocument{
		RunID:         summary.RunID,
		ConfigHash:    summary.ConfigHash,
		Database:      summary.DatabaseName,
		Status:        string(summary.Status),
		DryRun:        summary.DryRun,
		Duration:      summary.Duration.String(),
		TotalRows:     summary.TotalRows,
		TotalFailed:   summary.TotalFailed,
		CacheDegraded: summary.CacheDegraded,
		FailureLog:    summary.FailureLog,
		Tables:        tableSummaries(summary.Tables),
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	fileName := fmt.Sprintf("%s-obfuscation-%s.json", summary.DatabaseName, time.Now().Format("20060102T150405Z"))
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing report %q: %w", path, err)
	}
	return nil
}

func tableSummaries(results []worker.Result) []reportTableSummary {
	out := make([]reportTableSummary, 0, len(results))
	for _, r := range results {
		out = append(out, reportTableSummary{
			TableName: r.TableName,
			Status:    string(r.Status),
			Processed: r.Processed,
			Failed:    r.Failed,
		})
	}
	return out
}
