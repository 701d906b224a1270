package state

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileIsEmptyState(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st.LastSync)
	assert.Empty(t, st.SyncedWorklogIDs)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	last := time.Date(2026, 3, 1, 7, 30, 15, 0, time.UTC)
	st := New()
	st.LastSync = &last
	st.MarkSynced("30")
	st.MarkSynced("4")

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, st))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_sync":"2026-03-01T07:30:15Z","synced_worklog_ids":["30","4"]}`, string(content))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastSync)
	assert.True(t, loaded.LastSync.Equal(last))
	assert.True(t, loaded.IsSynced("4"))
	assert.True(t, loaded.IsSynced("30"))
	assert.False(t, loaded.IsSynced("5"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDecode_AcceptsLegacyDocument(t *testing.T) {
	t.Parallel()

	legacy := []byte(`{"last_sync": "2026-02-27T18:04:05.123456+00:00", "synced_worklog_ids": [101, "102", 101]}`)
	st, err := Decode(legacy)
	require.NoError(t, err)
	require.NotNil(t, st.LastSync)
	assert.Equal(t, 2026, st.LastSync.Year())
	assert.Equal(t, []string{"101", "102"}, st.IDs())

	st, err = Decode([]byte(`{"last_sync": null, "synced_worklog_ids": []}`))
	require.NoError(t, err)
	assert.Nil(t, st.LastSync)

	_, err = Decode([]byte(`{"last_sync": "yesterday"}`))
	assert.Error(t, err)
}

func TestState_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	last := time.Now().UTC()
	st := New()
	st.LastSync = &last
	st.MarkSynced("1")

	clone := st.Clone()
	clone.MarkSynced("2")
	*clone.LastSync = clone.LastSync.Add(time.Hour)

	assert.Equal(t, []string{"1"}, st.IDs())
	assert.True(t, st.LastSync.Equal(last))
}

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	content, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(content))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	content, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = content
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	t.Parallel()

	client := &fakeS3{objects: map[string][]byte{}}
	store, err := NewS3Store(client, "payroll-sync", "")
	require.NoError(t, err)

	ctx := context.Background()
	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.SyncedWorklogIDs)

	st.MarkSynced("77")
	require.NoError(t, store.Save(ctx, st))
	assert.Contains(t, client.objects, "payroll-sync/"+DefaultS3Key)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.IsSynced("77"))
}

func TestS3Store_PropagatesReadFailures(t *testing.T) {
	t.Parallel()

	store, err := NewS3Store(&fakeS3{getErr: errors.New("access denied")}, "bucket", "key.json")
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorContains(t, err, "access denied")

	_, err = NewS3Store(&fakeS3{}, " ", "")
	assert.Error(t, err)
}
