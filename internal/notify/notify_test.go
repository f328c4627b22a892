package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	n := Error("Failed to delete task", errors.New("task not found"))
	assert.Equal(t, KindError, n.Kind)
	assert.Equal(t, "Failed to delete task: task not found", n.Message)

	n = Error("Title is required", nil)
	assert.Equal(t, "Title is required", n.Message)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "info", Info("x").Kind.String())
	assert.Equal(t, "success", Success("x").Kind.String())
	assert.Equal(t, "error", KindError.String())
}
