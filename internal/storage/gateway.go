// Package storage is the object storage gateway used for file content,
// staged upload chunks and signed download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"Stash/internal/config"
	"github.com/sirupsen/logrus"
)

var ErrObjectNotFound = errors.New("object not found")

type Gateway interface {
	PutObject(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error
	// AppendChunk stores one chunk under the staging path. Writing the same index
	// twice replaces the earlier bytes.
	AppendChunk(ctx context.Context, stagingPath string, index int, reader io.Reader, size int64) error
	// CommitChunks concatenates chunks [0, totalChunks) into finalPath and
	// returns the committed size. Staged chunks are removed afterwards.
	CommitChunks(ctx context.Context, stagingPath, finalPath string, totalChunks int, contentType string) (int64, error)
	GetSignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectPath string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

func StagingPath(sessionToken string) string {
	return "staging/" + sessionToken
}

func chunkName(index int) string {
	return fmt.Sprintf("%06d", index)
}

// NewGateway picks the driver named in the storage configuration.
func NewGateway(configuration *config.Configuration, log *logrus.Logger) (Gateway, error) {
	switch configuration.Storage.Driver {
	case "local":
		return NewLocalGateway(configuration.Storage.Local)
	case "minio":
		return NewMinioGateway(context.Background(), configuration.Storage.Minio, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", configuration.Storage.Driver)
	}
}
