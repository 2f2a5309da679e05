package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/obfuscator/internal/errs"
)

func TestCodeForError_ConnectivityErrorMapsToExitConnectivity(t *testing.T) {
	err := errs.NewConnectivityError("dialing", errors.New("refused"))
	assert.Equal(t, exitConnectivity, codeForError(err))
}

func TestCodeForError_WrappedConnectivityErrorStillMatches(t *testing.T) {
	err := errs.NewConnectivityError("dialing", errors.New("refused"))
	wrapped := fmt.Errorf("run failed: %w", err)
	assert.Equal(t, exitConnectivity, codeForError(wrapped))
}

func TestCodeForError_OtherErrorsMapToExitConfigError(t *testing.T) {
	assert.Equal(t, exitConfigError, codeForError(errors.New("something else")))
	assert.Equal(t, exitConfigError, codeForError(errs.NewConfigError("bad mapping", nil)))
}

func TestAskConfirmation_YesVariants(t *testing.T) {
	for _, in := range []string{"y\n", "Y\n", "yes\n", "YES\n"} {
		assert.True(t, askConfirmationFromReader(t, in), "input %q should confirm", in)
	}
}

func TestAskConfirmation_NoAndGarbageVariants(t *testing.T) {
	for _, in := range []string{"n\n", "no\n", "\n", "maybe\n"} {
		assert.False(t, askConfirmationFromReader(t, in), "input %q should not confirm", in)
	}
}

// askConfirmationFromReader drives askConfirmation against stdin replaced
// with a pipe fed with in, since askConfirmation reads from os.Stdin
// directly rather than taking an io.Reader.
func askConfirmationFromReader(t *testing.T, in string) bool {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	origStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = origStdin }()

	go func() {
		_, _ = w.WriteString(in)
		w.Close()
	}()

	return askConfirmation("proceed?")
}
