package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Strasser-Pablo/trainlaunch/internal/checkpoint"
)

// MockPutter is a mock implementation of ObjectPutter
type MockPutter struct {
	mock.Mock
}

func (m *MockPutter) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, filePath, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func TestObjectKey(t *testing.T) {
	u := NewUploader(nil, "checkpoints", "runs", "run-1", nil)
	assert.Equal(t, "runs/run-1/model_3.tar", u.ObjectKey(checkpoint.Checkpoint{Epoch: 3}))

	bare := NewUploader(nil, "checkpoints", "", "run-1", nil)
	assert.Equal(t, "run-1/model_3.tar", bare.ObjectKey(checkpoint.Checkpoint{Epoch: 3}))
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	putter := new(MockPutter)
	putter.On("FPutObject", ctx, "checkpoints", "runs/run-1/model_4.tar", "/ckpt/model_4.tar",
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.UserMetadata["epoch"] == "4" && opts.UserMetadata["run-id"] == "run-1"
		}),
	).Return(minio.UploadInfo{Size: 10}, nil)

	u := NewUploader(putter, "checkpoints", "runs", "run-1", nil)
	err := u.Upload(ctx, checkpoint.Checkpoint{Epoch: 4, Path: "/ckpt/model_4.tar"})
	require.NoError(t, err)
	putter.AssertExpectations(t)
}

func TestUploadError(t *testing.T) {
	ctx := context.Background()
	putter := new(MockPutter)
	putter.On("FPutObject", ctx, "checkpoints", "runs/run-1/model_1.tar", "/ckpt/model_1.tar", mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	u := NewUploader(putter, "checkpoints", "runs", "run-1", nil)
	err := u.Upload(ctx, checkpoint.Checkpoint{Epoch: 1, Path: "/ckpt/model_1.tar"})
	assert.ErrorContains(t, err, "connection refused")

	// The sink swallows the failure.
	u.Sink()(ctx, checkpoint.Checkpoint{Epoch: 1, Path: "/ckpt/model_1.tar"})
	putter.AssertNumberOfCalls(t, "FPutObject", 2)
}
