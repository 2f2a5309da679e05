// Package engine implements the Engine Coordinator (§4.G): it parses the
// mapping document's result into a concrete run, orders tables, opens the
// target database once and fans a bounded set of Table Workers out across
// it, then joins their results into a run-level Summary.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/obfuscator/internal/cache"
	"github.com/kraklabs/obfuscator/internal/checkpoint"
	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/errs"
	"github.com/kraklabs/obfuscator/internal/faillog"
	"github.com/kraklabs/obfuscator/internal/mapping"
	"github.com/kraklabs/obfuscator/internal/refintegrity"
	"github.com/kraklabs/obfuscator/internal/worker"
)

// Options configures one coordinator run. Flags not set here come from the
// mapping document itself.
type Options struct {
	// DryRunOverride, when non-nil, overrides Global.DryRun for this run
	// without mutating the mapping document, per §9's "Global.DryRun is the
	// sole authority" — a CLI --dry-run flag still has to flow through this
	// one knob rather than bypassing it.
	DryRunOverride *bool

	Resume bool
	Fresh  bool

	CheckpointDir string
	FailureLogDir string
	CacheDir      string
	ReportDir     string

	MetricsAddr string
	NoProgress  bool

	// Confirm is asked before resuming or discarding a prior checkpoint when
	// neither --resume nor --fresh was passed explicitly. When Confirm is
	// nil no question is asked and the prior checkpoint is resumed.
	Confirm func(prompt string) bool

	Logger *slog.Logger
}

// Summary is what the coordinator returns to the CLI layer on completion.
type Summary struct {
	RunID         string
	ConfigHash    string
	DatabaseName  string
	Status        checkpoint.RunStatus
	Tables        []worker.Result
	TotalRows     int64
	TotalFailed   int64
	Duration      time.Duration
	FailureLog    string
	CacheDegraded bool
	DryRun        bool
}

// Coordinator drives one obfuscation run end to end.
type Coordinator struct {
	Doc        *mapping.MappingDocument
	ConfigHash string
	Opts       Options
}

// Run executes §4.G's lifecycle: load or create a checkpoint, open the
// backend, resolve referential integrity, fan workers out bounded by
// Global.ParallelThreads, join, persist the cache and checkpoint, and write
// the run report.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	logger := c.Opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runID := uuid.New().String()
	started := time.Now()

	dryRun := c.Doc.Global.DryRun
	if c.Opts.DryRunOverride != nil {
		dryRun = *c.Opts.DryRunOverride
	}

	databaseName := c.databaseName()

	cpStore, err := checkpoint.NewStore(c.Opts.CheckpointDir)
	if err != nil {
		return nil, errs.NewConfigError("opening checkpoint store", err)
	}

	state, err := c.loadOrCreateCheckpoint(cpStore, databaseName, logger)
	if err != nil {
		return nil, err
	}

	backend, err := dbio.GetBackend(dbio.Type(c.Doc.Global.Dialect))
	if err != nil {
		return nil, errs.NewConfigError("resolving backend", err)
	}

	db, err := backend.Open(ctx, c.Doc.Global.ConnectionString)
	if err != nil {
		return nil, errs.NewConnectivityError("opening database connection", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(c.Doc.Global.ParallelThreads)
	db.SetMaxIdleConns(c.Doc.Global.ParallelThreads)

	if err := refintegrity.Resolve(ctx, c.Doc, db, backend, logger); err != nil {
		return nil, errs.NewConfigError("resolving referential integrity", err)
	}

	valueCache := cache.New(c.Doc.Global.MaxCacheSize, logger)
	if err := valueCache.Load(c.Opts.cacheDir(), databaseName, cacheableTypes(c.Doc)); err != nil {
		logger.Warn("failed to load persisted mapping cache; continuing cold", "err", err)
	}

	failLog, err := faillog.Open(c.Opts.FailureLogDir, databaseName, runID, started)
	if err != nil {
		return nil, fmt.Errorf("opening failure log: %w", err)
	}

	reporter := newProgressReporter(c.Opts.NoProgress, logger)
	defer reporter.finish()

	var metricsServer *metricsServer
	if c.Opts.MetricsAddr != "" {
		metricsServer = startMetrics(c.Opts.MetricsAddr, logger)
		defer metricsServer.shutdown()
	}

	tables := enabledTablesSorted(c.Doc.Tables)

	stateMu := &sync.Mutex{}
	prepopulateTables(state, tables)

	results, runErr := c.runWorkers(ctx, tables, state, stateMu, backend, db, valueCache, failLog, cpStore, reporter, metricsServer, logger)

	closeErr := failLog.Close(time.Now())
	if closeErr != nil {
		logger.Error("failed to close failure log", "err", closeErr)
	}

	if err := valueCache.Flush(c.Opts.cacheDir(), databaseName, cacheableTypes(c.Doc)); err != nil {
		logger.Error("failed to flush mapping cache", "err", err)
	}

	status := checkpoint.RunCompleted
	var totalFailed int64
	for _, r := range results {
		totalFailed += r.Failed
		if r.Status == checkpoint.TableFailed {
			status = checkpoint.RunFailed
		}
	}
	if runErr != nil {
		status = checkpoint.RunFailed
	}

	stateMu.Lock()
	state.Status = status
	state.Recompute()
	totalRows := state.TotalRowsProcessed
	stateMu.Unlock()

	if status == checkpoint.RunCompleted {
		if err := cpStore.Clear(c.ConfigHash); err != nil {
			logger.Error("failed to clear checkpoint after successful run", "err", err)
		}
	} else {
		if err := cpStore.Save(state); err != nil {
			logger.Error("failed to persist final checkpoint", "err", err)
		}
	}

	summary := &Summary{
		RunID:         runID,
		ConfigHash:    c.ConfigHash,
		DatabaseName:  databaseName,
		Status:        status,
		Tables:        results,
		TotalRows:     totalRows,
		TotalFailed:   totalFailed,
		Duration:      time.Since(started),
		FailureLog:    failLog.Path(),
		CacheDegraded: valueCache.Degraded(),
		DryRun:        dryRun,
	}

	if err := writeReport(c.Opts.ReportDir, summary); err != nil {
		logger.Error("failed to write run report", "err", err)
	}

	return summary, runErr
}

// loadOrCreateCheckpoint implements §4.C's resume contract: Fresh discards
// any prior checkpoint, Resume continues it unconditionally, and otherwise
// the caller is asked (via Opts.Confirm) when a prior, unfinished checkpoint
// is found.
func (c *Coordinator) loadOrCreateCheckpoint(store *checkpoint.Store, databaseName string, logger *slog.Logger) (*checkpoint.CheckpointState, error) {
	existing, found, err := store.Load(c.ConfigHash)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	if found && !c.Opts.Fresh {
		if !c.Opts.Resume && c.Opts.Confirm != nil {
			if !c.Opts.Confirm(fmt.Sprintf("A checkpoint from %s exists for this mapping. Resume it?", existing.StartedAt.Format(time.RFC3339))) {
				found = false
			}
		}
		if found {
			logger.Info("resuming from checkpoint", "configHash", c.ConfigHash, "startedAt", existing.StartedAt)
			return existing, nil
		}
	}

	return &checkpoint.CheckpointState{
		ConfigHash:   c.ConfigHash,
		DatabaseName: databaseName,
		StartedAt:    time.Now(),
		Status:       checkpoint.RunInProgress,
	}, nil
}

// prepopulateTables ensures state.Tables carries exactly one entry per
// enabled table before any worker starts, so the shared Tables slice never
// grows for the remainder of the run (see internal/worker.Worker.Run's
// doc comment for why that matters under concurrent access).
func prepopulateTables(state *checkpoint.CheckpointState, tables []*mapping.TableSpec) {
	have := make(map[string]bool, len(state.Tables))
	for _, tc := range state.Tables {
		have[tc.TableName] = true
	}
	for _, t := range tables {
		if have[t.FullName] {
			continue
		}
		state.Tables = append(state.Tables, checkpoint.TableCheckpoint{
			TableName: t.FullName,
			Status:    checkpoint.TableNotStarted,
		})
	}
}

// runWorkers fans tables out across Global.ParallelThreads concurrent
// workers, bounded by a semaphore, and joins every result. A cancelled
// context lets in-flight workers drain their current batch and return
// rather than being killed outright, per §5's cooperative cancellation.
func (c *Coordinator) runWorkers(
	ctx context.Context,
	tables []*mapping.TableSpec,
	state *checkpoint.CheckpointState,
	stateMu *sync.Mutex,
	backend dbio.Backend,
	db *sql.DB,
	valueCache *cache.Cache,
	failLog *faillog.Log,
	cpStore *checkpoint.Store,
	reporter *progressReporter,
	metrics *metricsServer,
	logger *slog.Logger,
) ([]worker.Result, error) {
	sem := make(chan struct{}, c.Doc.Global.ParallelThreads)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]worker.Result, 0, len(tables))
	var firstErr error

	save := func(s *checkpoint.CheckpointState) error {
		return cpStore.Save(s)
	}

	for _, t := range tables {
		t := t
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			bar := reporter.start(t.FullName)
			defer bar.finish()

			w := &worker.Worker{
				Doc:            c.Doc,
				Table:          t,
				Backend:        backend,
				DB:             db,
				Cache:          valueCache,
				Failure:        failLog,
				Logger:         logger,
				SaveCheckpoint: save,
				StateMu:        stateMu,
			}

			res, err := w.Run(ctx, state)

			mu.Lock()
			results = append(results, res)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()

			bar.update(res.Processed, res.Processed)
			if metrics != nil {
				metrics.observeTable(res)
			}
		}()
	}

	wg.Wait()
	return results, firstErr
}

// enabledTablesSorted returns every enabled table ordered by ascending
// Priority, breaking ties by declaration order (§4.G: "tables are ordered
// by Priority ascending; ties keep declaration order").
func enabledTablesSorted(tables []mapping.TableSpec) []*mapping.TableSpec {
	out := make([]*mapping.TableSpec, 0, len(tables))
	for i := range tables {
		if tables[i].Enabled {
			out = append(out, &tables[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// cacheableTypes returns every dataType key the cache should persist across
// runs: the standard types §4.B caches by default, plus any custom
// DataTypeDef whose CachePolicy resolves to cached.
func cacheableTypes(doc *mapping.MappingDocument) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, t := range doc.Tables {
		for _, col := range t.Columns {
			if !col.Enabled {
				continue
			}
			base := baseTypeOf(doc, col.DataType)
			if cache.ShouldCache(base, defOrNil(doc, col.DataType)) {
				add(col.DataType)
			}
		}
	}
	return out
}

func defOrNil(doc *mapping.MappingDocument, dataType string) *mapping.DataTypeDef {
	if mapping.IsStandardType(dataType) {
		return nil
	}
	if d, ok := doc.DataTypes[dataType]; ok {
		return &d
	}
	return nil
}

func baseTypeOf(doc *mapping.MappingDocument, dataType string) string {
	if mapping.IsStandardType(dataType) {
		return dataType
	}
	return doc.DataTypes[dataType].BaseType
}

func (c *Coordinator) databaseName() string {
	if c.Doc.Metadata.Name != "" {
		return c.Doc.Metadata.Name
	}
	return c.ConfigHash
}

func (o Options) cacheDir() string {
	if o.CacheDir != "" {
		return o.CacheDir
	}
	return "mapping_cache"
}
