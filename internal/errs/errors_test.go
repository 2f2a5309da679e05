package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewConfigError("bad mapping", inner)

	assert.Equal(t, "config error: bad mapping: boom", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestConfigError_NilInnerError(t *testing.T) {
	err := NewConfigError("missing field", nil)
	assert.Equal(t, "config error: missing field", err.Error())
}

func TestConnectivityError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("refused")
	err := NewConnectivityError("dialing mssql", inner)

	assert.Equal(t, "connectivity error: dialing mssql: refused", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestBatchReadError_Error(t *testing.T) {
	err := &BatchReadError{Table: "users", Offset: 500, Err: errors.New("timeout")}
	assert.Equal(t, "batch read error: table users offset 500: timeout", err.Error())
	assert.ErrorIs(t, err, err.Err)
}

func TestBatchWriteError_Error(t *testing.T) {
	err := &BatchWriteError{Table: "orders", SubBatch: 2, RowsFailed: 10, Err: errors.New("deadlock")}
	assert.Equal(t, "batch write error: table orders sub-batch 2 (10 rows): deadlock", err.Error())
}

func TestGenerationError_Error(t *testing.T) {
	err := &GenerationError{DataType: "Email", Original: "x", Err: errors.New("no candidate")}
	assert.Equal(t, "generation error: dataType Email: no candidate", err.Error())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{DataType: "Phone", Value: "abc", Rule: "regex"}
	assert.Equal(t, `validation error: dataType Phone failed rule "regex" for value "abc"`, err.Error())
}

func TestCancellationError_Error(t *testing.T) {
	err := &CancellationError{Table: "users"}
	assert.Equal(t, "cancellation: table users stopped before completion", err.Error())
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"config error is fatal", NewConfigError("x", nil), true},
		{"connectivity error is fatal", NewConnectivityError("x", nil), true},
		{"wrapped config error is fatal", fmt.Errorf("run failed: %w", NewConfigError("x", nil)), true},
		{"batch read error is not fatal", &BatchReadError{Table: "t", Err: errors.New("x")}, false},
		{"plain error is not fatal", errors.New("something"), false},
		{"nil error is not fatal", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.fatal, IsFatal(tc.err))
		})
	}
}
