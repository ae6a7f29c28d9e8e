package sync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/sync"
)

func TestOptionsApply(t *testing.T) {
	opts := sync.Defaults().Apply(
		sync.WithDryRun(true),
		sync.WithTimeout(time.Minute),
		sync.WithRunID("run-1"),
		sync.WithInclude("*_2019/20_*"),
		sync.WithExclude("TEST*"),
	)

	assert.True(t, opts.DryRun)
	assert.Equal(t, time.Minute, opts.Timeout)
	assert.Equal(t, "run-1", opts.RunID)
	assert.Equal(t, []string{"*_2019/20_*"}, opts.Include)
	assert.Equal(t, []string{"TEST*"}, opts.Exclude)
	require.NoError(t, opts.Validate())

	filter, err := opts.Filter()
	require.NoError(t, err)
	assert.True(t, filter.Allow("A_2019/20_1"))
	assert.False(t, filter.Allow("TEST_2019/20_1"))
}

func TestOptionsValidate(t *testing.T) {
	err := sync.Defaults().Apply(sync.WithTimeout(-time.Second)).Validate()
	assert.True(t, errors.IsValidationError(err))

	err = sync.Defaults().Apply(sync.WithInclude("(broken")).Validate()
	assert.True(t, errors.IsValidationError(err))

	filter, err := sync.Defaults().Filter()
	require.NoError(t, err)
	assert.Nil(t, filter)
}
