// Package worker implements the Table Worker (§4.F): the component that
// drives one table through the Reader, Generator (via the Cache), and
// Writer, recording progress into its exclusively-owned slice of the run's
// CheckpointState and any failures into the Failure Log.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/obfuscator/internal/cache"
	"github.com/kraklabs/obfuscator/internal/checkpoint"
	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/errs"
	"github.com/kraklabs/obfuscator/internal/faillog"
	"github.com/kraklabs/obfuscator/internal/generator"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

// saveDebounce bounds how often a worker asks the coordinator to persist
// the shared checkpoint, per §4.F: "save checkpoint asynchronously with a
// debounce (at least every N batches or T seconds)."
const (
	saveDebounceBatches = 5
	saveDebounceTime    = 10 * time.Second
)

// maxReadRetries bounds the per-batch read retry loop, per §7's
// BatchReadError policy: "retry 3x with exponential backoff; then mark
// batch as Failed, continue."
const maxReadRetries = 3

// Worker drives one table end to end. It is the exclusive owner of its
// TableCheckpoint entry for the run's duration (§3 Ownership).
type Worker struct {
	Doc   *mapping.MappingDocument
	Table *mapping.TableSpec

	Backend dbio.Backend
	DB      *sql.DB

	Cache   *cache.Cache
	Failure *faillog.Log
	Logger  *slog.Logger

	// SaveCheckpoint persists the coordinator's shared CheckpointState;
	// the coordinator provides this so the process-wide mutex in
	// checkpoint.Store stays a single, shared instance across workers.
	SaveCheckpoint func(*checkpoint.CheckpointState) error

	// StateMu guards every read or write of the run's shared
	// CheckpointState, including the Tables slice header itself. Workers
	// exclusively own their own TableCheckpoint's content (§3 Ownership),
	// but the Save path marshals the whole document, so any mutation
	// anywhere in state must be serialized against a concurrent Marshal —
	// this is the one piece of cross-worker shared mutable state the
	// engine has (§5: "no global mutable state beyond these").
	StateMu *sync.Mutex

	state            *checkpoint.CheckpointState
	lastSaveTime     time.Time
	batchesSinceSave int
}

// Result summarizes how a table's run ended.
type Result struct {
	TableName string
	Status    checkpoint.TableStatus
	Processed int64
	Failed    int64
}

// Run executes the lifecycle described in §4.F against state, which is the
// run's shared CheckpointState; Run exclusively reads and writes only this
// table's TableCheckpoint entry within it.
//
// The coordinator pre-populates state.Tables with one NotStarted entry per
// table before any worker starts (see internal/engine), so the Tables slice
// never grows once workers are running: appending here, under concurrent
// access, could reallocate the backing array and silently orphan another
// worker's already-resolved *TableCheckpoint pointer into the old array,
// losing every update it makes for the rest of the run.
func (w *Worker) Run(ctx context.Context, state *checkpoint.CheckpointState) (Result, error) {
	w.state = state
	w.lastSaveTime = time.Now()

	w.StateMu.Lock()
	tc := w.state.FindTable(w.Table.FullName)
	if tc == nil {
		w.StateMu.Unlock()
		return Result{}, fmt.Errorf("no checkpoint entry pre-populated for table %q", w.Table.FullName)
	}
	if tc.Status == checkpoint.TableCompleted {
		w.StateMu.Unlock()
		return Result{TableName: w.Table.FullName, Status: checkpoint.TableCompleted, Processed: tc.ProcessedRows}, nil
	}
	needsCount := tc.TotalRows == 0 && len(tc.Batches) == 0
	tc.Status = checkpoint.TableInProgress
	w.StateMu.Unlock()

	if needsCount {
		whereClause := tableWhereClause(w.Table)
		reader := dbio.NewReader(w.Backend, w.DB)
		total, err := reader.CountRows(ctx, w.Table.FullName, whereClause)
		if err != nil {
			return Result{}, fmt.Errorf("counting rows for table %q: %w", w.Table.FullName, err)
		}
		if w.Table.Conditions != nil && w.Table.Conditions.MaxRows > 0 && total > w.Table.Conditions.MaxRows {
			total = w.Table.Conditions.MaxRows
		}
		w.StateMu.Lock()
		tc.TotalRows = total
		w.StateMu.Unlock()
	}

	batchSize := w.Table.EffectiveBatchSize(w.Doc.Global.BatchSize)
	reader := dbio.NewReader(w.Backend, w.DB)
	writer := dbio.NewWriter(w.Backend, w.DB)
	whereClause := tableWhereClause(w.Table)

	var failedRows int64
	anyBatchUnresolved := false

	for offset := int64(0); offset < tc.TotalRows || tc.TotalRows == 0; offset += int64(batchSize) {
		select {
		case <-ctx.Done():
			return Result{TableName: w.Table.FullName, Status: checkpoint.TableFailed, Processed: tc.ProcessedRows, Failed: failedRows}, ctx.Err()
		default:
		}

		batchNumber := int(offset / int64(batchSize))
		w.StateMu.Lock()
		bc := findOrCreateBatch(tc, batchNumber, offset, batchSize)
		alreadyProcessed := bc.IsProcessed
		w.StateMu.Unlock()
		if alreadyProcessed {
			continue
		}

		page, err := w.readPageWithRetry(ctx, reader, whereClause, offset, batchSize)
		if err != nil {
			w.StateMu.Lock()
			bc.ErrorMessage = err.Error()
			w.StateMu.Unlock()
			anyBatchUnresolved = true
			w.Logger.Warn("batch read failed after retries", "table", w.Table.FullName, "offset", offset, "err", err)
			continue
		}
		if len(page) == 0 {
			break
		}

		updates, rowFailures := w.buildUpdates(page)
		for _, f := range rowFailures {
			if err := w.Failure.Append(f); err != nil {
				w.Logger.Error("failed to append to failure log", "err", err)
			}
		}
		failedRows += int64(len(rowFailures))

		applied, subBatchFailed := w.writeUpdates(ctx, writer, updates, page)
		if subBatchFailed {
			anyBatchUnresolved = true
			continue
		}

		w.StateMu.Lock()
		bc.IsProcessed = true
		bc.RowsProcessed = applied
		tc.ProcessedRows += int64(applied)
		w.state.Recompute()
		w.StateMu.Unlock()

		w.maybeSaveCheckpoint(false)

		if len(page) < batchSize {
			break
		}
	}

	w.maybeSaveCheckpoint(true)

	status := checkpoint.TableCompleted
	if anyBatchUnresolved {
		status = checkpoint.TableFailed
	}
	w.StateMu.Lock()
	tc.Status = status
	w.StateMu.Unlock()

	return Result{TableName: w.Table.FullName, Status: status, Processed: tc.ProcessedRows, Failed: failedRows}, nil
}

func tableWhereClause(t *mapping.TableSpec) string {
	if t.Conditions == nil {
		return ""
	}
	return t.Conditions.WhereClause
}

func findOrCreateBatch(tc *checkpoint.TableCheckpoint, batchNumber int, offset int64, size int) *checkpoint.BatchCheckpoint {
	for i := range tc.Batches {
		if tc.Batches[i].BatchNumber == batchNumber {
			return &tc.Batches[i]
		}
	}
	tc.Batches = append(tc.Batches, checkpoint.BatchCheckpoint{BatchNumber: batchNumber, Offset: offset, Size: size})
	return &tc.Batches[len(tc.Batches)-1]
}

// readPageWithRetry implements §7's BatchReadError policy: retry up to
// maxReadRetries times with exponential backoff before giving up on the
// batch for this run.
func (w *Worker) readPageWithRetry(ctx context.Context, reader *dbio.Reader, whereClause string, offset int64, batchSize int) ([]dbio.Row, error) {
	req := dbio.SelectPageRequest{
		Table:       w.Table.FullName,
		PrimaryKey:  w.Table.PrimaryKey,
		Columns:     readColumns(w.Table),
		WhereClause: whereClause,
		Offset:      offset,
		Limit:       batchSize,
	}

	var lastErr error
	for attempt := 0; attempt < maxReadRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		page, err := reader.ReadPage(ctx, req)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, &errs.BatchReadError{Table: w.Table.FullName, Offset: offset, Err: lastErr}
}

func readColumns(t *mapping.TableSpec) []string {
	seen := make(map[string]bool, len(t.PrimaryKey)+len(t.Columns))
	cols := make([]string, 0, len(t.PrimaryKey)+len(t.Columns))
	for _, pk := range t.PrimaryKey {
		if !seen[pk] {
			seen[pk] = true
			cols = append(cols, pk)
		}
	}
	for _, c := range t.Columns {
		if c.Enabled && !seen[c.Name] {
			seen[c.Name] = true
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// buildUpdates implements §4.F step 3: for each row, for each enabled
// column, apply conditions.onlyIfNotNull, call the Generator through the
// Cache, apply validation/fallback, and accumulate (primaryKey, newValues)
// pairs. Rows whose fallback resolves to "skip" are left out without being
// recorded; a generation error under an unrecognized fallback policy is
// reported as a failed row.
func (w *Worker) buildUpdates(page []dbio.Row) ([]dbio.UpdateRequest, []faillog.FailedRow) {
	var updates []dbio.UpdateRequest
	var failures []faillog.FailedRow

	for _, row := range page {
		setCols, setVals, skip, failErr := w.obfuscateRow(row)
		if failErr != nil {
			failures = append(failures, faillog.FailedRow{
				TableName:        w.Table.FullName,
				PrimaryKeyValues: row.PrimaryKey,
				OriginalValues:   row.Values,
				ErrorMessage:     failErr.Error(),
				Timestamp:        time.Now(),
			})
			continue
		}
		if skip || len(setCols) == 0 {
			continue
		}

		pkValues := make([]any, len(w.Table.PrimaryKey))
		for i, pk := range w.Table.PrimaryKey {
			pkValues[i] = row.PrimaryKey[pk]
		}

		updates = append(updates, dbio.UpdateRequest{
			Table:      w.Table.FullName,
			PrimaryKey: w.Table.PrimaryKey,
			PKValues:   pkValues,
			SetColumns: setCols,
			SetValues:  setVals,
		})
	}
	return updates, failures
}

// obfuscateRow applies every enabled column's generation rule to one row,
// per §4.F. It returns the columns/values to write, whether the whole row
// should be skipped (fallback=skip), or an error if no fallback applies.
func (w *Worker) obfuscateRow(row dbio.Row) (cols []string, vals []any, skip bool, err error) {
	for _, col := range w.Table.Columns {
		if !col.Enabled {
			continue
		}
		original := row.Values[col.Name]
		if col.Conditions != nil && col.Conditions.OnlyIfNotNull && original == nil {
			continue
		}

		originalStr := stringifyOriginal(original)
		baseType, seed, formatting, validation := resolveDataType(w.Doc, col.DataType)
		if seed == "" {
			seed = w.Doc.Global.GlobalSeed
		}

		synthetic, genErr := w.Cache.GetOrCreate(col.DataType, originalStr, w.shouldCache(col.DataType), func() (string, error) {
			return generator.Generate(generator.Request{
				BaseType:       baseType,
				Original:       originalStr,
				EffectiveSeed:  seed,
				PreserveLength: col.PreserveLength,
				Formatting:     formatting,
				Validation:     validation,
			})
		})

		if genErr != nil {
			switch fallbackPolicy(col) {
			case mapping.FallbackUseOriginal:
				continue
			case mapping.FallbackUseDefault:
				cols = append(cols, col.Name)
				vals = append(vals, fallbackDefault(col))
			case mapping.FallbackSkip:
				return nil, nil, true, nil
			default:
				return nil, nil, false, genErr
			}
			continue
		}

		// A NULL original stringifies to "", so the empty-fallback disjunct is
		// subsumed here in all but the vanishingly rare case where Generate
		// also produces "".
		if synthetic == originalStr {
			continue
		}
		cols = append(cols, col.Name)
		vals = append(vals, synthetic)
	}
	return cols, vals, false, nil
}

func fallbackPolicy(col mapping.ColumnSpec) mapping.OnError {
	if col.Fallback == nil {
		return mapping.FallbackUseOriginal
	}
	return col.Fallback.OnError
}

func fallbackDefault(col mapping.ColumnSpec) string {
	if col.Fallback == nil {
		return ""
	}
	return col.Fallback.DefaultValue
}

func (w *Worker) shouldCache(dataType string) bool {
	base, _, _, _ := resolveDataType(w.Doc, dataType)
	var def *mapping.DataTypeDef
	if d, ok := w.Doc.DataTypes[dataType]; ok {
		def = &d
	}
	return cache.ShouldCache(base, def)
}

// resolveDataType follows a single level of DataTypes indirection, per
// §4.A, returning the base type, effective custom seed (empty if unset),
// and any formatting/validation overrides.
func resolveDataType(doc *mapping.MappingDocument, dataType string) (baseType, customSeed string, formatting *mapping.Formatting, validation *mapping.Validation) {
	if mapping.IsStandardType(dataType) {
		return dataType, "", nil, nil
	}
	def := doc.DataTypes[dataType]
	return def.BaseType, def.CustomSeed, def.Formatting, def.Validation
}

func stringifyOriginal(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// writeUpdates sub-batches updates into groups of sqlBatchSize and writes
// each inside its own transaction, per §4.E. On success it returns the
// page's row count (every row of the batch counts as processed, whether or
// not it needed an UPDATE) and false; on a failed sub-batch it returns the
// rows applied before it and true.
func (w *Worker) writeUpdates(ctx context.Context, writer *dbio.Writer, updates []dbio.UpdateRequest, page []dbio.Row) (int, bool) {
	if len(updates) == 0 {
		return len(page), false
	}

	sqlBatchSize := w.Doc.Global.SqlBatchSize
	timeout := time.Duration(w.Doc.Global.CommandTimeoutSeconds) * time.Second

	applied := 0
	for i := 0; i < len(updates); i += sqlBatchSize {
		end := i + sqlBatchSize
		if end > len(updates) {
			end = len(updates)
		}
		sub := updates[i:end]

		result, err := writer.WriteSubBatch(ctx, sub, timeout, w.Doc.Global.DryRun)
		if err != nil {
			batchErr := &errs.BatchWriteError{Table: w.Table.FullName, SubBatch: i / sqlBatchSize, RowsFailed: len(sub), Err: err}
			w.Logger.Warn("sub-batch write failed", "table", w.Table.FullName, "err", batchErr)
			for _, u := range sub {
				w.recordWriteFailure(u, batchErr)
			}
			return applied, true
		}
		applied += result.Applied
	}
	return len(page), false
}

func (w *Worker) recordWriteFailure(u dbio.UpdateRequest, cause error) {
	pkValues := make(map[string]any, len(u.PrimaryKey))
	for i, pk := range u.PrimaryKey {
		if i < len(u.PKValues) {
			pkValues[pk] = u.PKValues[i]
		}
	}
	obfuscated := make(map[string]any, len(u.SetColumns))
	for i, c := range u.SetColumns {
		if i < len(u.SetValues) {
			obfuscated[c] = u.SetValues[i]
		}
	}
	if err := w.Failure.Append(faillog.FailedRow{
		TableName:        u.Table,
		PrimaryKeyValues: pkValues,
		ObfuscatedValues: obfuscated,
		ErrorMessage:     cause.Error(),
		Timestamp:        time.Now(),
	}); err != nil {
		w.Logger.Error("failed to append write failure to failure log", "err", err)
	}
}

// maybeSaveCheckpoint implements §4.F's debounced save: at least every
// saveDebounceBatches batches or saveDebounceTime, whichever comes first,
// or always when force is true (used at the end of a table's run).
func (w *Worker) maybeSaveCheckpoint(force bool) {
	w.batchesSinceSave++
	if !force && w.batchesSinceSave < saveDebounceBatches && time.Since(w.lastSaveTime) < saveDebounceTime {
		return
	}
	w.batchesSinceSave = 0
	w.lastSaveTime = time.Now()

	w.StateMu.Lock()
	w.state.LastUpdatedAt = time.Now()
	err := w.SaveCheckpoint(w.state)
	w.StateMu.Unlock()

	if err != nil {
		w.Logger.Error("failed to save checkpoint", "err", err)
	}
}
