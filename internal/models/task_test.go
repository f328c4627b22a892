package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, TaskStatus("IN_PROGRESS").Valid())
	assert.False(t, TaskStatus("pending").Valid())
}

func TestTaskType_Valid(t *testing.T) {
	assert.True(t, TypeTask.Valid())
	assert.True(t, TypeSubtask.Valid())
	assert.False(t, TaskType("EPIC").Valid())
}
