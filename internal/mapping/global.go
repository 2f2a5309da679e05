package mapping

import (
	"os"
	"strconv"
)

// Global holds the run-wide knobs that are not specific to any one table.
type Global struct {
	ConnectionString      string `json:"connectionString"`
	Dialect               string `json:"dialect,omitempty"`
	GlobalSeed            string `json:"globalSeed"`
	BatchSize             int    `json:"batchSize"`
	SqlBatchSize          int    `json:"sqlBatchSize"`
	ParallelThreads       int    `json:"parallelThreads"`
	MaxCacheSize          int    `json:"maxCacheSize"`
	CommandTimeoutSeconds int    `json:"commandTimeoutSeconds"`
	MappingCacheDirectory string `json:"mappingCacheDirectory"`
	DryRun                bool   `json:"dryRun"`
}

// DefaultDialect is used when the mapping document leaves Global.Dialect
// unset. spec.md's MappingDocument.Global does not name a dialect field —
// §6 requires pluggability across backends, which is meaningless without a
// selector, so this package adds the field and defaults it to the spec's
// stated initial target (DESIGN.md, Open Questions).
const DefaultDialect = "mssql"

// applyDefaults fills unset numeric/path fields with the engine's
// conservative defaults, run before environment overrides and validation.
func (g *Global) applyDefaults() {
	if g.Dialect == "" {
		g.Dialect = DefaultDialect
	}
	if g.BatchSize == 0 {
		g.BatchSize = 1000
	}
	if g.SqlBatchSize == 0 {
		g.SqlBatchSize = 100
	}
	if g.ParallelThreads == 0 {
		g.ParallelThreads = 4
	}
	if g.MaxCacheSize == 0 {
		g.MaxCacheSize = 500_000
	}
	if g.CommandTimeoutSeconds == 0 {
		g.CommandTimeoutSeconds = 30
	}
	if g.MappingCacheDirectory == "" {
		g.MappingCacheDirectory = "mapping_cache"
	}
}

// applyEnvOverrides applies the environment variables named in §6, each
// overriding the corresponding mapping field when present and non-empty.
func (g *Global) applyEnvOverrides() {
	if v, ok := os.LookupEnv("CONNECTION_STRING"); ok && v != "" {
		g.ConnectionString = v
	}
	if v, ok := os.LookupEnv("GLOBAL_SEED"); ok && v != "" {
		g.GlobalSeed = v
	}
	if v, ok := os.LookupEnv("DRY_RUN"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			g.DryRun = b
		}
	}
	if v, ok := os.LookupEnv("PARALLEL_THREADS"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			g.ParallelThreads = n
		}
	}
	if v, ok := os.LookupEnv("BATCH_SIZE"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			g.BatchSize = n
		}
	}
	if v, ok := os.LookupEnv("MAX_CACHE_SIZE"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			g.MaxCacheSize = n
		}
	}
	if v, ok := os.LookupEnv("COMMAND_TIMEOUT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			g.CommandTimeoutSeconds = n
		}
	}
}
