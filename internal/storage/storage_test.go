package storage

import (
	"context"
	"testing"

	"github.com/salimtrading/staffportal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithoutBackendIsDisabled(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestNewMinioClientValidatesConfig(t *testing.T) {
	_, err := NewMinioClient(config.MinioConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	c, err := NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "staff"})
	require.NoError(t, err)
	assert.Equal(t, "staff", c.Bucket())
	assert.NoError(t, c.Close())
}

func TestNewGCSClientRequiresBucket(t *testing.T) {
	_, err := NewGCSClient(context.Background(), config.GCSConfig{})
	assert.ErrorContains(t, err, "bucket")
}
