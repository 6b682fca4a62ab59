package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bookshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:            "bills",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Endpoint:          "http://localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		errMsg string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(ctx, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("valid config", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, validConfig(), WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Equal(t, "bills", storage.Bucket())
		assert.Equal(t, 10*time.Minute, storage.presignExpiration)
	})

	t.Run("option overrides expiration", func(t *testing.T) {
		storage, err := NewS3ObjectStorage(ctx, validConfig(), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, storage.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)

	got, err = normalizeEndpoint("minio:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "https://minio:9000", got)

	got, err = normalizeEndpoint("http://s3.local", true)
	require.NoError(t, err)
	assert.Equal(t, "http://s3.local", got)
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	storage, err := NewS3ObjectStorage(context.Background(), validConfig())
	require.NoError(t, err)

	_, _, err = storage.GenerateDownloadURL(context.Background(), "", time.Minute)
	assert.Error(t, err)

	link, expiresAt, err := storage.GenerateDownloadURL(context.Background(), "bills/BILL000001.pdf", 0)
	require.NoError(t, err)
	assert.True(t, strings.Contains(link, "localhost:9000"))
	assert.True(t, strings.Contains(link, "bills/bills/BILL000001.pdf"), "path-style URL carries the bucket")
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, time.Minute)
}

func TestS3ObjectStorage_EmptyKeys(t *testing.T) {
	ctx := context.Background()
	storage, err := NewS3ObjectStorage(ctx, validConfig())
	require.NoError(t, err)

	assert.Error(t, storage.Upload(ctx, "", []byte("x"), "text/plain"))
	assert.Error(t, storage.DeleteObject(ctx, ""))
	_, err = storage.ObjectExists(ctx, "")
	assert.Error(t, err)
	_, err = storage.Download(ctx, "")
	assert.Error(t, err)
}

// newIntegrationStorage connects to the server at STORAGE_TEST_ENDPOINT
// (MinIO or compatible) with minioadmin credentials.
func newIntegrationStorage(t *testing.T) *S3ObjectStorage {
	t.Helper()
	endpoint := os.Getenv("STORAGE_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("set STORAGE_TEST_ENDPOINT to run object storage integration tests")
	}

	cfg := validConfig()
	cfg.Endpoint = endpoint
	cfg.Bucket = "bookshop-test"
	cfg.AccessKey = "minioadmin"
	cfg.SecretKey = "minioadmin"

	storage, err := NewS3ObjectStorage(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(context.Background()))
	require.NoError(t, storage.EnsureBucket(context.Background()))
	return storage
}

func TestIntegration_UploadDownloadDelete(t *testing.T) {
	storage := newIntegrationStorage(t)
	ctx := context.Background()
	key := "bills/BILL999999.pdf"

	require.NoError(t, storage.Upload(ctx, key, []byte("%PDF-1.3"), "application/pdf"))

	exists, err := storage.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := storage.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, storage.DeleteObject(ctx, key))
	_, err = storage.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
