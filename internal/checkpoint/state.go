// Package checkpoint implements the Checkpoint Store (§4.C): durable,
// atomically-written per-run progress so an interrupted run resumes without
// re-reading or re-writing any batch that already committed.
package checkpoint

import "time"

// RunStatus is the top-level status of a run's CheckpointState.
type RunStatus string

const (
	RunInProgress RunStatus = "InProgress"
	RunCompleted  RunStatus = "Completed"
	RunFailed     RunStatus = "Failed"
)

// TableStatus is the status of one table within a run, per §4.F's lifecycle
// NotStarted → InProgress → (Completed | Failed).
type TableStatus string

const (
	TableNotStarted TableStatus = "NotStarted"
	TableInProgress TableStatus = "InProgress"
	TableCompleted  TableStatus = "Completed"
	TableFailed     TableStatus = "Failed"
)

// BatchCheckpoint records the progress of one (tableName, offset, size)
// batch, per §3.
type BatchCheckpoint struct {
	BatchNumber  int    `json:"batchNumber"`
	Offset       int64  `json:"offset"`
	Size         int    `json:"size"`
	IsProcessed  bool   `json:"isProcessed"`
	RowsProcessed int   `json:"rowsProcessed"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// TableCheckpoint records the progress of one table within a run, per §3.
type TableCheckpoint struct {
	TableName     string            `json:"tableName"`
	Status        TableStatus       `json:"status"`
	TotalRows     int64             `json:"totalRows"`
	ProcessedRows int64             `json:"processedRows"`
	Batches       []BatchCheckpoint `json:"batches"`
}

// CheckpointState is the full per-run progress document persisted by the
// Checkpoint Store, per §3.
type CheckpointState struct {
	ConfigHash         string             `json:"configHash"`
	DatabaseName       string             `json:"databaseName"`
	StartedAt          time.Time          `json:"startedAt"`
	LastUpdatedAt      time.Time          `json:"lastUpdatedAt"`
	Status             RunStatus          `json:"status"`
	Tables             []TableCheckpoint  `json:"tables"`
	TotalRowsProcessed int64              `json:"totalRowsProcessed"`
}

// FindTable returns the TableCheckpoint for tableName, or nil if none has
// been recorded yet.
func (s *CheckpointState) FindTable(tableName string) *TableCheckpoint {
	for i := range s.Tables {
		if s.Tables[i].TableName == tableName {
			return &s.Tables[i]
		}
	}
	return nil
}

// Recompute derives TotalRowsProcessed from the sum of each table's
// ProcessedRows, keeping the top-level counter consistent with the
// per-table detail it's derived from.
func (s *CheckpointState) Recompute() {
	var total int64
	for _, t := range s.Tables {
		total += t.ProcessedRows
	}
	s.TotalRowsProcessed = total
}
