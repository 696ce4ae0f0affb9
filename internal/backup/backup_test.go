package backup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/internal/domain/models"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
)

type fakePutter struct {
	bucket, key string
	body        []byte
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestCreateListRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "farm.db")

	store, err := sqlite.Open(ctx, dbPath, "", nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateBatch(ctx, models.Batch{ID: "B001", NumChicks: 500, Breed: "Broiler", DateIn: models.NewDate(2024, 6, 1)}))

	putter := &fakePutter{}
	svc := NewService(store, putter, config.BackupConfig{S3Bucket: "farm-backups", S3Prefix: "/nightly/"}, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 2, 3, 4, 5, 0, time.Local) }

	backupDir := filepath.Join(dir, "backups")
	info, err := svc.Create(ctx, backupDir)
	require.NoError(t, err)
	assert.Equal(t, "dash_poultry_backup_20240602_030405.db", info.Name)
	assert.Equal(t, "s3://farm-backups/nightly/dash_poultry_backup_20240602_030405.db", info.Uploaded)
	assert.Equal(t, "nightly/"+info.Name, putter.key)
	assert.EqualValues(t, info.Size, len(putter.body))

	listed, err := List(backupDir)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, info.Name, listed[0].Name)

	require.NoError(t, store.DeleteBatch(ctx, "B001"))
	require.NoError(t, store.Close())

	require.NoError(t, Restore(info.Path, dbPath))

	reopened, err := sqlite.Open(ctx, dbPath, "", nil)
	require.NoError(t, err)
	defer reopened.Close()
	b, err := reopened.GetBatch(ctx, "B001")
	require.NoError(t, err)
	assert.Equal(t, 500, b.NumChicks)
}

func TestRestoreRejectsNonDatabase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello, this is not sqlite"), 0o600))

	err := Restore(src, filepath.Join(dir, "farm.db"))
	require.ErrorIs(t, err, ErrNotDatabase)
	_, statErr := os.Stat(filepath.Join(dir, "farm.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestListMissingDir(t *testing.T) {
	out, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, out)
}
