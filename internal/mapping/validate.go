package mapping

import (
	"fmt"
	"strings"

	"github.com/kraklabs/obfuscator/internal/errs"
)

// Validate runs all structural and cross-reference validation on a decoded
// MappingDocument, in the order global required fields and bounds → data
// type references → table/column structure (including each column's
// fallback policy) → referential integrity. It returns the
// first error encountered, wrapped in a *errs.ConfigError.
func (d *MappingDocument) Validate() error {
	if err := d.validateGlobal(); err != nil {
		return errs.NewConfigError("global", err)
	}
	if err := d.validateDataTypeReferences(); err != nil {
		return errs.NewConfigError("dataTypes", err)
	}
	if err := d.validateTables(); err != nil {
		return errs.NewConfigError("tables", err)
	}
	if err := d.validateReferentialIntegrity(); err != nil {
		return errs.NewConfigError("referentialIntegrity", err)
	}
	return nil
}

// validateGlobal checks the numeric bounds and required fields named in §4.I.
func (d *MappingDocument) validateGlobal() error {
	g := d.Global
	if strings.TrimSpace(g.ConnectionString) == "" {
		return fmt.Errorf("connectionString is required")
	}
	if g.BatchSize < 1 {
		return fmt.Errorf("batchSize must be >= 1, got %d", g.BatchSize)
	}
	if g.SqlBatchSize < 1 {
		return fmt.Errorf("sqlBatchSize must be >= 1, got %d", g.SqlBatchSize)
	}
	if g.ParallelThreads < 1 {
		return fmt.Errorf("parallelThreads must be >= 1, got %d", g.ParallelThreads)
	}
	if g.MaxCacheSize < 1 {
		return fmt.Errorf("maxCacheSize must be >= 1, got %d", g.MaxCacheSize)
	}
	if g.CommandTimeoutSeconds < 1 {
		return fmt.Errorf("commandTimeoutSeconds must be >= 1, got %d", g.CommandTimeoutSeconds)
	}
	return nil
}

// resolveBaseType follows DataTypes[dataType].baseType one level, per §4.A's
// "single level" resolution rule, and reports whether name resolves to a
// known standard type.
func (d *MappingDocument) resolveBaseType(name string) (string, bool) {
	if IsStandardType(name) {
		return name, true
	}
	def, ok := d.DataTypes[name]
	if !ok {
		return "", false
	}
	if IsStandardType(def.BaseType) {
		return def.BaseType, true
	}
	return "", false
}

// validateDataTypeReferences ensures every custom DataTypeDef resolves to a
// real standard base type, per §4.I's "referenced dataTypes exist".
func (d *MappingDocument) validateDataTypeReferences() error {
	for name, def := range d.DataTypes {
		if !IsStandardType(def.BaseType) {
			return fmt.Errorf("custom data type %q has unknown baseType %q", name, def.BaseType)
		}
		if def.CachePolicy != CacheUnset && def.CachePolicy != CacheForce && def.CachePolicy != CacheNever {
			return fmt.Errorf("custom data type %q has invalid cachePolicy %q", name, def.CachePolicy)
		}
	}
	return nil
}

// validateTables checks each table's structure: a non-empty primaryKey when
// any column is enabled, and that every enabled column's dataType resolves.
func (d *MappingDocument) validateTables() error {
	seen := make(map[string]bool, len(d.Tables))
	for i := range d.Tables {
		t := &d.Tables[i]
		if strings.TrimSpace(t.FullName) == "" {
			return fmt.Errorf("table at index %d has empty fullName", i)
		}
		if seen[t.FullName] {
			return fmt.Errorf("table %q declared more than once", t.FullName)
		}
		seen[t.FullName] = true

		if !t.Enabled {
			continue
		}
		if t.HasEnabledColumns() && len(t.PrimaryKey) == 0 {
			return fmt.Errorf("table %q has enabled columns but no primaryKey", t.FullName)
		}
		if err := d.validateColumns(t); err != nil {
			return fmt.Errorf("table %q: %w", t.FullName, err)
		}
	}
	return nil
}

func (d *MappingDocument) validateColumns(t *TableSpec) error {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("column %q declared more than once", c.Name)
		}
		seen[c.Name] = true

		if !c.Enabled {
			continue
		}
		if _, ok := d.resolveBaseType(c.DataType); !ok {
			return fmt.Errorf("column %q references unknown dataType %q", c.Name, c.DataType)
		}
		if c.Fallback != nil && !ValidOnError(c.Fallback.OnError) {
			return fmt.Errorf("column %q has invalid fallback.onError %q", c.Name, c.Fallback.OnError)
		}
		if c.Fallback != nil && c.Fallback.OnError == FallbackUseDefault && c.Fallback.DefaultValue == "" && !c.IsNullable {
			return fmt.Errorf("column %q: fallback.useDefault requires a non-empty defaultValue on a non-nullable column", c.Name)
		}
	}
	return nil
}

// validateReferentialIntegrity checks that every Relationship names tables
// and columns that actually appear in d.Tables.
func (d *MappingDocument) validateReferentialIntegrity() error {
	tableIndex := make(map[string]*TableSpec, len(d.Tables))
	for i := range d.Tables {
		tableIndex[d.Tables[i].FullName] = &d.Tables[i]
	}

	for _, rel := range d.ReferentialIntegrity {
		primary, ok := tableIndex[rel.PrimaryTable]
		if !ok {
			return fmt.Errorf("relationship references unknown primaryTable %q", rel.PrimaryTable)
		}
		if !columnExists(primary, rel.PrimaryColumn) {
			return fmt.Errorf("relationship references unknown primaryColumn %q on table %q", rel.PrimaryColumn, rel.PrimaryTable)
		}
		for _, rm := range rel.RelatedMappings {
			related, ok := tableIndex[rm.Table]
			if !ok {
				return fmt.Errorf("relationship references unknown related table %q", rm.Table)
			}
			if !columnExists(related, rm.Column) {
				return fmt.Errorf("relationship references unknown related column %q on table %q", rm.Column, rm.Table)
			}
			if rm.Relationship != RelationshipExact && rm.Relationship != RelationshipDerived {
				return fmt.Errorf("relationship for %q.%q has invalid kind %q", rm.Table, rm.Column, rm.Relationship)
			}
		}
	}
	return nil
}

func columnExists(t *TableSpec, name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}
