package refintegrity

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/mapping"
)

func docWithRelationship(kind mapping.RelationshipKind) *mapping.MappingDocument {
	return &mapping.MappingDocument{
		Tables: []mapping.TableSpec{
			{
				FullName: "users",
				Columns: []mapping.ColumnSpec{
					{Name: "email", DataType: mapping.TypeEmail},
				},
			},
			{
				FullName: "orders",
				Columns: []mapping.ColumnSpec{
					{Name: "contact_email", DataType: mapping.TypeEmail},
				},
			},
		},
		ReferentialIntegrity: []mapping.Relationship{
			{
				PrimaryTable:  "users",
				PrimaryColumn: "email",
				RelatedMappings: []mapping.RelatedMapping{
					{Table: "orders", Column: "contact_email", Relationship: kind},
				},
			},
		},
	}
}

func TestResolve_ExactRelationshipSharesDataType(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))

	related := findColumn(&doc.Tables[1], "contact_email")
	require.NotNil(t, related)
	def, ok := doc.DataTypes[related.DataType]
	require.True(t, ok)
	assert.Equal(t, mapping.TypeEmail, def.BaseType)
	assert.Equal(t, "", def.CustomSeed)
}

func TestResolve_DerivedRelationshipSaltsSeed(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipDerived)
	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))

	related := findColumn(&doc.Tables[1], "contact_email")
	require.NotNil(t, related)
	def, ok := doc.DataTypes[related.DataType]
	require.True(t, ok)
	assert.Contains(t, def.CustomSeed, "derived:orders.contact_email")
}

func TestResolve_IsIdempotent(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))
	firstKey := findColumn(&doc.Tables[1], "contact_email").DataType

	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))
	secondKey := findColumn(&doc.Tables[1], "contact_email").DataType

	assert.Equal(t, firstKey, secondKey)
}

func TestResolve_UnknownPrimaryTableErrors(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	doc.ReferentialIntegrity[0].PrimaryTable = "missing"
	err := Resolve(context.Background(), doc, nil, nil, nil)
	require.Error(t, err)
}

func TestResolve_UnknownRelatedColumnErrors(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	doc.ReferentialIntegrity[0].RelatedMappings[0].Column = "missing"
	err := Resolve(context.Background(), doc, nil, nil, nil)
	require.Error(t, err)
}

func TestResolve_PropagatesCustomSeedFromRegisteredDataType(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	doc.Tables[0].Columns[0].DataType = "CustomEmail"
	doc.DataTypes = map[string]mapping.DataTypeDef{
		"CustomEmail": {BaseType: mapping.TypeEmail, CustomSeed: "my-seed"},
	}

	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))

	related := findColumn(&doc.Tables[1], "contact_email")
	def := doc.DataTypes[related.DataType]
	assert.Equal(t, "my-seed", def.CustomSeed)
}

// newMockResolveHarness returns a sqlmock-backed *sql.DB and the mysql
// Backend that renders the queries Resolve's DB-backed original-value check
// issues, grounded on the go-sqlmock dependency retrieved in the pack's
// manifests (e.g. DataDog-datadog-agent, jordigilh-kubernaut go.mod) for
// exactly this purpose: exercising DB-calling code without a live database.
func newMockResolveHarness(t *testing.T) (*sql.DB, sqlmock.Sqlmock, dbio.Backend) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend, err := dbio.GetBackend(dbio.MySQL)
	require.NoError(t, err)
	return db, mock, backend
}

func TestResolve_StrictModeFatalOnMismatch(t *testing.T) {
	db, mock, backend := newMockResolveHarness(t)

	doc := docWithRelationship(mapping.RelationshipExact)
	doc.ReferentialIntegrity[0].StrictMode = true

	mock.ExpectQuery(`(?i)select .* from .users.`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("jane@example.com"))
	mock.ExpectQuery(`(?i)select .* from .orders.`).
		WillReturnRows(sqlmock.NewRows([]string{"contact_email"}).AddRow("unrelated@example.com"))

	err := Resolve(context.Background(), doc, db, backend, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict mode")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_NonStrictModeWarnsButSucceedsOnMismatch(t *testing.T) {
	db, mock, backend := newMockResolveHarness(t)

	doc := docWithRelationship(mapping.RelationshipExact)

	mock.ExpectQuery(`(?i)select .* from .users.`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("jane@example.com"))
	mock.ExpectQuery(`(?i)select .* from .orders.`).
		WillReturnRows(sqlmock.NewRows([]string{"contact_email"}).AddRow("unrelated@example.com"))

	err := Resolve(context.Background(), doc, db, backend, nil)
	require.NoError(t, err)

	related := findColumn(&doc.Tables[1], "contact_email")
	require.NotNil(t, related)
	_, ok := doc.DataTypes[related.DataType]
	assert.True(t, ok, "the DataType rewrite still happens after a non-fatal mismatch warning")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_StrictModePassesWhenValuesMatchUnderNormalization(t *testing.T) {
	db, mock, backend := newMockResolveHarness(t)

	doc := docWithRelationship(mapping.RelationshipExact)
	doc.ReferentialIntegrity[0].StrictMode = true

	mock.ExpectQuery(`(?i)select .* from .users.`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("Jane@Example.com"))
	mock.ExpectQuery(`(?i)select .* from .orders.`).
		WillReturnRows(sqlmock.NewRows([]string{"contact_email"}).AddRow("  jane@example.com  "))

	err := Resolve(context.Background(), doc, db, backend, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolve_NilDBSkipsValidation(t *testing.T) {
	doc := docWithRelationship(mapping.RelationshipExact)
	doc.ReferentialIntegrity[0].StrictMode = true

	require.NoError(t, Resolve(context.Background(), doc, nil, nil, nil))
}
