package mapping

// TableSpec describes one table to obfuscate.
type TableSpec struct {
	FullName        string       `json:"fullName"`
	PrimaryKey      []string     `json:"primaryKey"`
	Columns         []ColumnSpec `json:"columns"`
	CustomBatchSize int          `json:"customBatchSize,omitempty"`
	Conditions      *TableConditions `json:"conditions,omitempty"`
	Enabled         bool         `json:"enabled"`
	Priority        int          `json:"priority"`
}

// TableConditions narrows which rows of a table are touched.
type TableConditions struct {
	WhereClause string `json:"whereClause,omitempty"`
	MaxRows     int64  `json:"maxRows,omitempty"`
}

// EffectiveBatchSize returns the table's CustomBatchSize if set, else the
// global default, per §4.E.
func (t *TableSpec) EffectiveBatchSize(globalBatchSize int) int {
	if t.CustomBatchSize > 0 {
		return t.CustomBatchSize
	}
	return globalBatchSize
}

// HasEnabledColumns reports whether any column in the table is enabled,
// used by validation to require a non-empty PrimaryKey only where it matters.
func (t *TableSpec) HasEnabledColumns() bool {
	for _, c := range t.Columns {
		if c.Enabled {
			return true
		}
	}
	return false
}
