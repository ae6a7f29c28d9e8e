package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync/internal/lms/memory"
	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/lms"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := memory.New().
		AddAssignment(assessments.InternalAssignment{ID: 1, CourseModuleID: 10, LinkCode: "LC1"},
			map[string]any{"markingworkflow": 0, "attemptreopenmethod": "manual"}).
		AddPluginConfig(1, "physical", "assignsubmission", "enabled", "1")

	v, found, err := store.Get(ctx, lms.AssignField(1, "markingworkflow"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v.Equal(lms.IntValue(0)))

	n, err := store.Set(ctx, lms.AssignField(1, "markingworkflow"), lms.IntValue(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, store.Value(lms.AssignField(1, "markingworkflow")).Bool())

	// Key without subtype still matches the row.
	v, found, err = store.Get(ctx, lms.PluginEnabled(1, "physical", ""))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v.Bool())

	// Unknown column on an existing row reads as NULL.
	v, found, err = store.Get(ctx, lms.AssignField(1, "sendnotifications"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v.IsNull())

	assert.Len(t, store.Writes(), 1)
	assert.Equal(t, 3, store.Reads())
}

func TestStoreMissingRows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, found, err := store.Get(ctx, lms.ScaleByName("Pass/Fail"))
	require.NoError(t, err)
	assert.False(t, found)

	n, err := store.Set(ctx, lms.TurnitinConfig(5, constants.TurnitinUse), lms.IntValue(1))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.Writes())
}

func TestStoreNullKeys(t *testing.T) {
	ctx := context.Background()
	store := memory.New().AddGradeItem("LC1", 0, constants.GradeTypeValue)

	v, found, err := store.Get(ctx, lms.GradeItemField("LC1", "scaleid"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v.IsNull())
}

func TestStoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	store := memory.New().
		FailOn(constants.TableAssign, boom).
		FailOn(constants.TableCourseModules, boom)

	_, _, err := store.Get(ctx, lms.AssignField(1, "grade"))
	assert.ErrorIs(t, err, boom)
	_, err = store.Set(ctx, lms.AssignField(1, "grade"), lms.IntValue(1))
	assert.ErrorIs(t, err, boom)
	_, err = store.Assignments(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestStoreAssignmentsAndReset(t *testing.T) {
	ctx := context.Background()
	store := memory.New().
		AddAssignment(assessments.InternalAssignment{ID: 1, LinkCode: "LC1"}, nil).
		AddAssignment(assessments.InternalAssignment{ID: 2}, nil)

	list, err := store.Assignments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, _ = store.Set(ctx, lms.AssignField(2, "grade"), lms.IntValue(100))
	assert.Len(t, store.Writes(), 1)
	store.ResetCounters()
	assert.Empty(t, store.Writes())
	assert.Zero(t, store.Reads())
	require.NoError(t, store.Ping(ctx))
}
