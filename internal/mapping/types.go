// Package mapping loads, validates, and hashes the mapping document that
// describes one obfuscation run: which tables and columns carry PII, which
// synthetic data type replaces each column, and the global knobs that govern
// batching, concurrency, and caching.
//
// The document is treated as a frozen artifact for the duration of a run —
// nothing in this package or its callers mutates a *MappingDocument once
// Load has returned it, except the Referential Integrity Resolver's one
// rewrite pass (internal/refintegrity), which the Engine Coordinator runs
// once after opening the database, before any table is handed to a worker.
package mapping

// MappingDocument is the root of the mapping file: the frozen description of
// one obfuscation run.
type MappingDocument struct {
	Metadata             Metadata              `json:"metadata"`
	Global               Global                `json:"global"`
	DataTypes            map[string]DataTypeDef `json:"dataTypes,omitempty"`
	ReferentialIntegrity []Relationship         `json:"referentialIntegrity,omitempty"`
	PostProcessing       PostProcessing         `json:"postProcessing,omitempty"`
	Tables               []TableSpec            `json:"tables"`
}

// Metadata carries free-form provenance about the mapping document. Only
// Name is read by the engine: it is the database name used in checkpoint,
// cache, failure log and report names (the configHash stands in when Name
// is empty). The other fields are not copied into the run report.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	GeneratedBy string `json:"generatedBy,omitempty"`
}

// PostProcessing is decoded from the mapping document, but the engine does
// not read ReportPath: the end-of-run report is written to the directory
// given by the CLI's --report-dir flag.
type PostProcessing struct {
	ReportPath string `json:"reportPath,omitempty"`
}

// Relationship declares that a set of related columns must resolve to the
// same synthetic value (or a deterministic function of it) as a primary
// column, per §4.H. The Referential Integrity Resolver consumes this at load
// time; nothing downstream re-checks it at runtime.
type Relationship struct {
	PrimaryTable    string           `json:"primaryTable"`
	PrimaryColumn   string           `json:"primaryColumn"`
	RelatedMappings []RelatedMapping `json:"relatedMappings"`
	StrictMode      bool             `json:"strictMode,omitempty"`
}

// RelationshipKind distinguishes an exact equivalence from a derived one.
type RelationshipKind string

const (
	RelationshipExact   RelationshipKind = "exact"
	RelationshipDerived RelationshipKind = "derived"
)

// RelatedMapping names one column tied to a Relationship's primary column.
type RelatedMapping struct {
	Table        string           `json:"table"`
	Column       string           `json:"column"`
	Relationship RelationshipKind `json:"relationship"`
}
