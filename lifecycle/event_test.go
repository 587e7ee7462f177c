package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/centraunit/scopetree/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := lifecycle.DefaultTable()

	cases := []struct {
		in   lifecycle.Event
		want lifecycle.Event
	}{
		{lifecycle.Start, lifecycle.Stop},
		{lifecycle.Resume, lifecycle.Pause},
		{lifecycle.Pause, lifecycle.Stop},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			got, err := table.Corresponding(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultTableStopIsOutsideLifecycle(t *testing.T) {
	_, err := lifecycle.DefaultTable().Corresponding(lifecycle.Stop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrOutsideLifecycle))

	var outside *lifecycle.OutsideLifecycleError
	require.ErrorAs(t, err, &outside)
	assert.Equal(t, lifecycle.Stop, outside.Event)
}

func TestActivityTable(t *testing.T) {
	table := lifecycle.ActivityTable()

	got, err := table.Corresponding(lifecycle.Create)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Destroy, got)

	got, err = table.Corresponding(lifecycle.Stop)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Destroy, got)

	_, err = table.Corresponding(lifecycle.Destroy)
	assert.ErrorIs(t, err, lifecycle.ErrOutsideLifecycle)
}

func TestExtendCopies(t *testing.T) {
	base := lifecycle.DefaultTable()
	ext := base.Extend(lifecycle.Table{"ATTACH": "DETACH"})

	_, err := base.Corresponding("ATTACH")
	assert.ErrorIs(t, err, lifecycle.ErrOutsideLifecycle)

	got, err := ext.Corresponding("ATTACH")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Event("DETACH"), got)
	assert.Len(t, ext, len(base)+1)
}

func TestParseEvent(t *testing.T) {
	e, err := lifecycle.ParseEvent("  resume ")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Resume, e)

	_, err = lifecycle.ParseEvent(" ")
	assert.Error(t, err)
}

func TestIsSilentCompletion(t *testing.T) {
	assert.True(t, lifecycle.IsSilentCompletion(&lifecycle.TargetReachedError{Event: lifecycle.Pause}))
	assert.True(t, lifecycle.IsSilentCompletion(&lifecycle.OutsideLifecycleError{Event: lifecycle.Stop}))
	assert.True(t, lifecycle.IsSilentCompletion(lifecycle.ErrStreamCompleted))
	assert.False(t, lifecycle.IsSilentCompletion(errors.New("boom")))
	assert.False(t, lifecycle.IsSilentCompletion(nil))
}
