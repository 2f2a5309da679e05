package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RequiresConnectionString(t *testing.T) {
	doc := sampleDoc()
	doc.Global.ConnectionString = ""
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connectionString")
}

func TestValidate_RejectsUnknownDataTypeReference(t *testing.T) {
	doc := sampleDoc()
	doc.Tables[0].Columns[0].DataType = "NotRegistered"
	err := doc.Validate()
	require.Error(t, err)
}

func TestValidate_RequiresPrimaryKeyWhenColumnsEnabled(t *testing.T) {
	doc := sampleDoc()
	doc.Tables[0].PrimaryKey = nil
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primaryKey")
}

func TestValidate_RejectsDuplicateTableNames(t *testing.T) {
	doc := sampleDoc()
	doc.Tables = append(doc.Tables, doc.Tables[0])
	err := doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestValidate_RejectsInvalidFallbackPolicy(t *testing.T) {
	doc := sampleDoc()
	doc.Tables[0].Columns[0].Fallback = &Fallback{OnError: "not-a-real-policy"}
	err := doc.Validate()
	require.Error(t, err)
}

func TestValidate_ReferentialIntegrityUnknownTable(t *testing.T) {
	doc := sampleDoc()
	doc.ReferentialIntegrity = []Relationship{
		{PrimaryTable: "missing", PrimaryColumn: "id"},
	}
	err := doc.Validate()
	require.Error(t, err)
}

func TestValidate_AcceptsWellFormedDocument(t *testing.T) {
	doc := sampleDoc()
	assert.NoError(t, doc.Validate())
}
