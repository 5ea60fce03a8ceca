package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pocketflix-portal/internal/domain"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *mockClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return m.Called(ctx, bucketName, opts).Get(0).(<-chan minio.ObjectInfo)
}

func (m *mockClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, data, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

func TestEnsureBucketCreatesMissingBucket(t *testing.T) {
	client := new(mockClient)
	client.On("BucketExists", mock.Anything, "media").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "media", minio.MakeBucketOptions{}).Return(nil)

	store := NewWithClient(client, "media", nil)
	require.NoError(t, store.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}

func TestPutDefaultsContentType(t *testing.T) {
	client := new(mockClient)
	client.On("PutObject", mock.Anything, "media", "logo/1", []byte("img"), int64(3),
		minio.PutObjectOptions{ContentType: defaultContentType}).
		Return(minio.UploadInfo{Size: 3}, nil)

	store := NewWithClient(client, "media", nil)
	require.NoError(t, store.Put(context.Background(), "logo/1", bytes.NewReader([]byte("img")), 3, ""))
	client.AssertExpectations(t)
}

func TestListStopsOnObjectError(t *testing.T) {
	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "hero/a"}
	ch <- minio.ObjectInfo{Err: errors.New("denied")}
	close(ch)

	client := new(mockClient)
	client.On("ListObjects", mock.Anything, "media", minio.ListObjectsOptions{Prefix: "hero/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	store := NewWithClient(client, "media", nil)
	names, err := store.List(context.Background(), "hero/")
	assert.Error(t, err)
	assert.Equal(t, []string{"hero/a"}, names)
}

func TestGetMapsMissingKeyToNotFound(t *testing.T) {
	store := NewWithClient(new(mockClient), "media", nil)
	store.open = func(context.Context, string, string) (io.ReadCloser, error) {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"}
	}
	_, err := store.Get(context.Background(), "logo/1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	store.open = func(context.Context, string, string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("ok"))), nil
	}
	data, err := store.Get(context.Background(), "logo/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}
