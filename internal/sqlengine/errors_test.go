package sqlengine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := newError(CodePrepareFailed, "SELEC 1", errors.New(`near "SELEC": syntax error`))

	assert.Equal(t, `PREPARE_FAILED: near "SELEC": syntax error (sql="SELEC 1")`, err.Error())
	assert.Equal(t, `near "SELEC": syntax error`, err.Diagnostic)
	assert.Equal(t, "OPEN_FAILED", newError(CodeOpenFailed, "", nil).Error())
}

func TestWrapQuery(t *testing.T) {
	cause := newError(CodeExecuteFailed, "SELECT x", errors.New("boom"))
	wrapped := wrapQuery("SELECT x", cause)

	assert.True(t, IsQueryError(wrapped))
	assert.True(t, IsExecuteError(wrapped))
	assert.False(t, IsPrepareError(wrapped))
	assert.Equal(t, "boom", Diagnostic(wrapped))

	// Already a query error; not wrapped twice.
	assert.Same(t, wrapped, wrapQuery("SELECT x", wrapped))

	// Non-engine errors pass through.
	assert.Equal(t, ErrNotOpen, wrapQuery("SELECT x", ErrNotOpen))
}

func TestIsHelpers_ThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("building: %w", newError(CodeOpenFailed, "", errors.New("file is not a database")))

	assert.True(t, IsOpenError(err))
	assert.False(t, IsExecuteError(err))
	assert.Equal(t, "file is not a database", Diagnostic(err))
	assert.Empty(t, Diagnostic(errors.New("plain")))
	assert.False(t, IsQueryError(nil))
}
