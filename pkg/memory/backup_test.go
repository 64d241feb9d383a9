package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupScheduler_RejectsInvalidExpression(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := NewBackupScheduler(svc, "every tuesday", t.TempDir())
	require.Error(t, err)

	_, err = NewBackupScheduler(nil, "* * * * *", t.TempDir())
	require.Error(t, err)
}

func TestBackupScheduler_RunIfDue(t *testing.T) {
	svc, _, _ := newTestService(t)
	train(t, svc, "hello there", "Hi!")
	dir := t.TempDir()

	every, err := NewBackupScheduler(svc, "* * * * *", dir)
	require.NoError(t, err)
	path, err := every.RunIfDue(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))
	_, err = os.Stat(path)
	require.NoError(t, err)

	yearly, err := NewBackupScheduler(svc, "0 0 1 1 *", dir)
	require.NoError(t, err)
	yearly.now = func() time.Time { return time.Date(2026, 6, 15, 12, 30, 0, 0, time.Local) }
	path, err = yearly.RunIfDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)
}
