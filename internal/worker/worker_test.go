package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/obfuscator/internal/cache"
	"github.com/kraklabs/obfuscator/internal/checkpoint"
	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

func TestReadColumns_IncludesPrimaryKeyAndEnabledColumnsOnly(t *testing.T) {
	table := &mapping.TableSpec{
		PrimaryKey: []string{"id"},
		Columns: []mapping.ColumnSpec{
			{Name: "email", Enabled: true},
			{Name: "internal_note", Enabled: false},
		},
	}

	cols := readColumns(table)
	assert.Equal(t, []string{"id", "email"}, cols)
}

func TestReadColumns_DoesNotDuplicatePrimaryKeyColumn(t *testing.T) {
	table := &mapping.TableSpec{
		PrimaryKey: []string{"id"},
		Columns: []mapping.ColumnSpec{
			{Name: "id", Enabled: true},
			{Name: "email", Enabled: true},
		},
	}

	cols := readColumns(table)
	assert.Equal(t, []string{"id", "email"}, cols)
}

func TestFallbackPolicy_DefaultsToUseOriginal(t *testing.T) {
	assert.Equal(t, mapping.FallbackUseOriginal, fallbackPolicy(mapping.ColumnSpec{}))
}

func TestFallbackPolicy_HonorsExplicitPolicy(t *testing.T) {
	col := mapping.ColumnSpec{Fallback: &mapping.Fallback{OnError: mapping.FallbackSkip}}
	assert.Equal(t, mapping.FallbackSkip, fallbackPolicy(col))
}

func TestFallbackDefault_ReturnsConfiguredValue(t *testing.T) {
	col := mapping.ColumnSpec{Fallback: &mapping.Fallback{OnError: mapping.FallbackUseDefault, DefaultValue: "REDACTED"}}
	assert.Equal(t, "REDACTED", fallbackDefault(col))
}

func TestStringifyOriginal(t *testing.T) {
	assert.Equal(t, "", stringifyOriginal(nil))
	assert.Equal(t, "hello", stringifyOriginal("hello"))
	assert.Equal(t, "hello", stringifyOriginal([]byte("hello")))
	assert.Equal(t, "42", stringifyOriginal(42))
}

func TestResolveDataType_StandardTypePassesThrough(t *testing.T) {
	doc := &mapping.MappingDocument{}
	base, seed, formatting, validation := resolveDataType(doc, mapping.TypeEmail)
	assert.Equal(t, mapping.TypeEmail, base)
	assert.Equal(t, "", seed)
	assert.Nil(t, formatting)
	assert.Nil(t, validation)
}

func TestResolveDataType_CustomTypeResolvesThroughDataTypes(t *testing.T) {
	doc := &mapping.MappingDocument{
		DataTypes: map[string]mapping.DataTypeDef{
			"CustomEmail": {BaseType: mapping.TypeEmail, CustomSeed: "s1"},
		},
	}
	base, seed, _, _ := resolveDataType(doc, "CustomEmail")
	assert.Equal(t, mapping.TypeEmail, base)
	assert.Equal(t, "s1", seed)
}

func TestFindOrCreateBatch_ReturnsExistingEntry(t *testing.T) {
	tc := &checkpoint.TableCheckpoint{
		Batches: []checkpoint.BatchCheckpoint{{BatchNumber: 0, IsProcessed: true}},
	}
	bc := findOrCreateBatch(tc, 0, 0, 100)
	assert.True(t, bc.IsProcessed)
	assert.Len(t, tc.Batches, 1)
}

func TestFindOrCreateBatch_AppendsNewEntry(t *testing.T) {
	tc := &checkpoint.TableCheckpoint{}
	bc := findOrCreateBatch(tc, 2, 200, 100)
	assert.Equal(t, 2, bc.BatchNumber)
	assert.Equal(t, int64(200), bc.Offset)
	require.Len(t, tc.Batches, 1)
}

func newTestWorker(doc *mapping.MappingDocument, table *mapping.TableSpec) *Worker {
	return &Worker{
		Doc:   doc,
		Table: table,
		Cache: cache.New(1000, nil),
	}
}

func TestObfuscateRow_ProducesDeterministicSyntheticValue(t *testing.T) {
	doc := &mapping.MappingDocument{Global: mapping.Global{GlobalSeed: "seed"}}
	table := &mapping.TableSpec{
		Columns: []mapping.ColumnSpec{{Name: "email", DataType: mapping.TypeEmail, Enabled: true}},
	}
	w := newTestWorker(doc, table)
	row := dbio.Row{Values: map[string]any{"email": "alice@example.com"}}

	cols1, vals1, skip1, err1 := w.obfuscateRow(row)
	cols2, vals2, skip2, err2 := w.obfuscateRow(row)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.False(t, skip1)
	assert.False(t, skip2)
	assert.Equal(t, cols1, cols2)
	assert.Equal(t, vals1, vals2)
	assert.Equal(t, []string{"email"}, cols1)
	assert.NotEqual(t, "alice@example.com", vals1[0])
}

func TestObfuscateRow_SkipsDisabledColumns(t *testing.T) {
	doc := &mapping.MappingDocument{Global: mapping.Global{GlobalSeed: "seed"}}
	table := &mapping.TableSpec{
		Columns: []mapping.ColumnSpec{{Name: "email", DataType: mapping.TypeEmail, Enabled: false}},
	}
	w := newTestWorker(doc, table)
	row := dbio.Row{Values: map[string]any{"email": "alice@example.com"}}

	cols, _, skip, err := w.obfuscateRow(row)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Empty(t, cols)
}

func TestObfuscateRow_SkipsNullColumnWhenOnlyIfNotNull(t *testing.T) {
	doc := &mapping.MappingDocument{Global: mapping.Global{GlobalSeed: "seed"}}
	table := &mapping.TableSpec{
		Columns: []mapping.ColumnSpec{{
			Name: "email", DataType: mapping.TypeEmail, Enabled: true,
			Conditions: &mapping.ColumnConditions{OnlyIfNotNull: true},
		}},
	}
	w := newTestWorker(doc, table)
	row := dbio.Row{Values: map[string]any{"email": nil}}

	cols, _, _, err := w.obfuscateRow(row)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestObfuscateRow_DifferentOriginalsDivergeDeterministically(t *testing.T) {
	doc := &mapping.MappingDocument{Global: mapping.Global{GlobalSeed: "seed"}}
	table := &mapping.TableSpec{
		Columns: []mapping.ColumnSpec{{Name: "email", DataType: mapping.TypeEmail, Enabled: true}},
	}
	w := newTestWorker(doc, table)

	_, vals1, _, err1 := w.obfuscateRow(dbio.Row{Values: map[string]any{"email": "alice@example.com"}})
	_, vals2, _, err2 := w.obfuscateRow(dbio.Row{Values: map[string]any{"email": "bob@example.com"}})

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, vals1[0], vals2[0])
}
