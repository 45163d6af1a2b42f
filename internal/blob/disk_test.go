package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cloudtab_errors "cloudtab/pkg/errors"
)

func newTestDiskStore(t *testing.T) (*DiskStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	st, err := NewDiskStore(dir)
	require.NoError(t, err)
	return st, dir
}

func TestDiskStorePutOpen(t *testing.T) {
	st, _ := newTestDiskStore(t)
	ctx := context.Background()

	n, err := st.Put(ctx, "ABC123", "1_aaaa", strings.NewReader("ciphertext bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("ciphertext bytes")), n)

	rc, err := st.Open(ctx, "ABC123", "1_aaaa")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ciphertext bytes", string(data))
}

func TestDiskStorePutRejectsDuplicateID(t *testing.T) {
	st, _ := newTestDiskStore(t)
	ctx := context.Background()

	_, err := st.Put(ctx, "ABC123", "1_aaaa", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = st.Put(ctx, "ABC123", "1_aaaa", strings.NewReader("second"))
	assert.Error(t, err)
}

func TestDiskStoreOpenMissing(t *testing.T) {
	st, _ := newTestDiskStore(t)

	_, err := st.Open(context.Background(), "ABC123", "1_gone")
	assert.ErrorIs(t, err, cloudtab_errors.ErrFileNotFound)
}

func TestDiskStoreDelete(t *testing.T) {
	st, dir := newTestDiskStore(t)
	ctx := context.Background()

	_, err := st.Put(ctx, "ABC123", "1_aaaa", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, "ABC123", "1_aaaa"))
	_, err = os.Stat(filepath.Join(dir, "ABC123", "1_aaaa.enc"))
	assert.True(t, os.IsNotExist(err))

	// Deleting again is a no-op.
	assert.NoError(t, st.Delete(ctx, "ABC123", "1_aaaa"))
}

func TestDiskStoreDeleteAll(t *testing.T) {
	st, dir := newTestDiskStore(t)
	ctx := context.Background()

	for _, id := range []string{"1_aaaa", "2_bbbb"} {
		_, err := st.Put(ctx, "ABC123", id, strings.NewReader("data"))
		require.NoError(t, err)
	}

	require.NoError(t, st.DeleteAll(ctx, "ABC123"))
	_, err := os.Stat(filepath.Join(dir, "ABC123"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, st.DeleteAll(ctx, "ABC123"))
}

func TestDiskStoreOwners(t *testing.T) {
	st, _ := newTestDiskStore(t)
	ctx := context.Background()

	owners, err := st.Owners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	_, err = st.Put(ctx, "AAAAAA", "1_aaaa", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = st.Put(ctx, "BBBBBB", "1_bbbb", strings.NewReader("y"))
	require.NoError(t, err)

	owners, err = st.Owners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAAAAA", "BBBBBB"}, owners)
}
