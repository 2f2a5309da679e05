// Package refintegrity implements the Referential Integrity Resolver
// (§4.H): a load-time rewrite pass that forces related columns to resolve
// to the same (dataType, effectiveSeed) as their primary column, so the
// Deterministic Value Generator alone produces identical synthetic values
// across tables — no pre-pass mapping table is ever computed.
package refintegrity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/generator"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

// sampleSize bounds how many non-null original values Resolve reads per side
// of a relationship when checking normalized equality — large enough to
// catch a genuinely mismatched relationship, small enough that the check
// never competes with the run's own batch reads for table scans.
const sampleSize = 500

// Resolve rewrites doc's related columns' DataType/CustomSeed to match
// their relationship's primary column, per §4.H. It runs after the engine
// takes doc's configHash: the rewrite is a deterministic function of the
// already-hashed ReferentialIntegrity/Tables content, so it carries no new
// information the hash needs to capture — it only saves the Generator from
// needing relationship-aware lookup logic at call time.
//
// When db and backend are both non-nil, Resolve also validates §4.H's
// "original values compare equal under normalization" requirement: it
// samples original values from the primary and each related column and
// checks, under the Generator's own normalization rules, that the related
// sample is contained in the primary sample. A mismatch is logged as a
// warning, or returned as a fatal error when the relationship's StrictMode
// is set. Passing a nil db/backend (e.g. from --verify-mappings run without
// a live connection, or from a unit test) skips this DB-backed check and
// only performs the rewrite.
func Resolve(ctx context.Context, doc *mapping.MappingDocument, db *sql.DB, backend dbio.Backend, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	tableIndex := make(map[string]*mapping.TableSpec, len(doc.Tables))
	for i := range doc.Tables {
		tableIndex[doc.Tables[i].FullName] = &doc.Tables[i]
	}

	for _, rel := range doc.ReferentialIntegrity {
		primaryTable, ok := tableIndex[rel.PrimaryTable]
		if !ok {
			return fmt.Errorf("referential integrity: unknown primaryTable %q", rel.PrimaryTable)
		}
		primaryCol := findColumn(primaryTable, rel.PrimaryColumn)
		if primaryCol == nil {
			return fmt.Errorf("referential integrity: unknown primaryColumn %q on table %q", rel.PrimaryColumn, rel.PrimaryTable)
		}

		for _, rm := range rel.RelatedMappings {
			relatedTable, ok := tableIndex[rm.Table]
			if !ok {
				return fmt.Errorf("referential integrity: unknown related table %q", rm.Table)
			}
			relatedCol := findColumn(relatedTable, rm.Column)
			if relatedCol == nil {
				return fmt.Errorf("referential integrity: unknown related column %q on table %q", rm.Column, rm.Table)
			}

			if db != nil && backend != nil {
				if err := validateOriginalValues(ctx, doc, db, backend, rel, primaryTable, primaryCol, relatedTable, rm, logger); err != nil {
					return err
				}
			}

			resolveCustomSeed(doc, relatedCol, primaryCol, rel, rm)
		}
	}
	return nil
}

// validateOriginalValues implements §4.H's "validate that original values
// compare equal under normalization (else a warning is logged). If
// StrictMode=true, any mismatch is fatal." It samples up to sampleSize
// non-null original values from the primary column and the related column
// and checks, under the Generator's own normalization for the primary
// column's base type, that every sampled related value is present in the
// primary sample.
func validateOriginalValues(
	ctx context.Context,
	doc *mapping.MappingDocument,
	db *sql.DB,
	backend dbio.Backend,
	rel mapping.Relationship,
	primaryTable *mapping.TableSpec,
	primaryCol *mapping.ColumnSpec,
	relatedTable *mapping.TableSpec,
	rm mapping.RelatedMapping,
	logger *slog.Logger,
) error {
	baseType, _ := effectiveDataType(doc, primaryCol)

	primaryValues, err := sampleColumn(ctx, db, backend, primaryTable.FullName, primaryCol.Name)
	if err != nil {
		return fmt.Errorf("referential integrity: sampling %q.%q: %w", primaryTable.FullName, primaryCol.Name, err)
	}
	relatedValues, err := sampleColumn(ctx, db, backend, relatedTable.FullName, rm.Column)
	if err != nil {
		return fmt.Errorf("referential integrity: sampling %q.%q: %w", relatedTable.FullName, rm.Column, err)
	}

	primarySet := make(map[string]bool, len(primaryValues))
	for _, v := range primaryValues {
		primarySet[generator.Normalize(baseType, v)] = true
	}

	var mismatches []string
	for _, v := range relatedValues {
		if !primarySet[generator.Normalize(baseType, v)] {
			mismatches = append(mismatches, v)
		}
	}

	if len(mismatches) == 0 {
		return nil
	}

	logger.Warn("referential integrity: sampled original values diverge under normalization",
		"primaryTable", rel.PrimaryTable, "primaryColumn", rel.PrimaryColumn,
		"relatedTable", rm.Table, "relatedColumn", rm.Column,
		"mismatched", len(mismatches), "sampled", len(relatedValues))

	if rel.StrictMode {
		return fmt.Errorf("referential integrity: strict mode: %d of %d sampled values in %q.%q do not match %q.%q under normalization",
			len(mismatches), len(relatedValues), rm.Table, rm.Column, rel.PrimaryTable, rel.PrimaryColumn)
	}
	return nil
}

// sampleColumn reads up to sampleSize non-null values of column from table
// using the same paginated Reader the Table Worker uses for batches, so the
// validation query honors the same dialect-specific SQL the rest of the
// engine issues.
func sampleColumn(ctx context.Context, db *sql.DB, backend dbio.Backend, table, column string) ([]string, error) {
	reader := dbio.NewReader(backend, db)
	quotedNotNull := backend.QuoteIdentifier(column) + " IS NOT NULL"

	page, err := reader.ReadPage(ctx, dbio.SelectPageRequest{
		Table:       table,
		PrimaryKey:  []string{column},
		Columns:     []string{column},
		WhereClause: quotedNotNull,
		Offset:      0,
		Limit:       sampleSize,
	})
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(page))
	for _, row := range page {
		if v, ok := row.Values[column]; ok && v != nil {
			values = append(values, fmt.Sprintf("%v", v))
		}
	}
	return values, nil
}

// resolveCustomSeed rewrites relatedCol's DataType so it resolves to the
// same base type as primaryCol, and its effective seed (via a registered
// DataTypeDef override) so it matches exactly. For "derived" relationships
// the seed is salted by the related table+column name so the generator
// still produces a value that is a deterministic function of, but distinct
// from, the primary's.
func resolveCustomSeed(doc *mapping.MappingDocument, relatedCol, primaryCol *mapping.ColumnSpec, rel mapping.Relationship, rm mapping.RelatedMapping) {
	seedSuffix := ""
	if rm.Relationship == mapping.RelationshipDerived {
		seedSuffix = "|derived:" + rm.Table + "." + rm.Column
	}

	if doc.DataTypes == nil {
		doc.DataTypes = make(map[string]mapping.DataTypeDef)
	}

	baseType, seed := effectiveDataType(doc, primaryCol)
	key := relatedCol.DataType
	if !strings.HasPrefix(key, "__ri__") {
		key = syntheticTypeKey(rel, rm, relatedCol.DataType)
	}
	doc.DataTypes[key] = mapping.DataTypeDef{
		BaseType:       baseType,
		CustomSeed:     seed + seedSuffix,
		PreserveLength: relatedCol.PreserveLength,
	}
	relatedCol.DataType = key
}

// effectiveDataType resolves col's base type and customSeed, following a
// single level of DataTypes indirection per §4.A.
func effectiveDataType(doc *mapping.MappingDocument, col *mapping.ColumnSpec) (baseType, seed string) {
	if mapping.IsStandardType(col.DataType) {
		return col.DataType, ""
	}
	if def, ok := doc.DataTypes[col.DataType]; ok {
		return def.BaseType, def.CustomSeed
	}
	return col.DataType, ""
}

// syntheticTypeKey names the rewritten DataTypes entry deterministically
// from the relationship; resolveCustomSeed reuses a key that already
// carries the "__ri__" prefix, so re-running Resolve on the same document is
// idempotent.
func syntheticTypeKey(rel mapping.Relationship, rm mapping.RelatedMapping, originalDataType string) string {
	return strings.Join([]string{"__ri", rel.PrimaryTable, rel.PrimaryColumn, rm.Table, rm.Column, originalDataType}, "__")
}

func findColumn(t *mapping.TableSpec, name string) *mapping.ColumnSpec {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
