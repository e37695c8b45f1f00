package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"Stash/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// MinioGateway stores objects in an S3-compatible bucket. Chunks are committed
// with a server-side compose, so every chunk but the last must be at least 5 MiB.
type MinioGateway struct {
	client *minio.Client
	bucket string
	log    *logrus.Logger
}

func NewMinioGateway(ctx context.Context, cfg config.MinioStorageConfig, log *logrus.Logger) (*MinioGateway, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("error creating bucket: %w", err)
		}
		log.WithField("bucket", cfg.Bucket).Info("bucket created")
	}
	log.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
	}).Info("minio storage initialized")
	return &MinioGateway{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (g *MinioGateway) PutObject(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (g *MinioGateway) AppendChunk(ctx context.Context, stagingPath string, index int, reader io.Reader, size int64) error {
	_, err := g.client.PutObject(ctx, g.bucket, stagingPath+"/"+chunkName(index), reader, size, minio.PutObjectOptions{})
	return err
}

func (g *MinioGateway) CommitChunks(ctx context.Context, stagingPath, finalPath string, totalChunks int, contentType string) (int64, error) {
	dst := minio.CopyDestOptions{
		Bucket:          g.bucket,
		Object:          finalPath,
		ReplaceMetadata: true,
		UserMetadata:    map[string]string{"Content-Type": contentType},
	}
	var info minio.UploadInfo
	var err error
	if totalChunks == 1 {
		info, err = g.client.CopyObject(ctx, dst, minio.CopySrcOptions{
			Bucket: g.bucket,
			Object: stagingPath + "/" + chunkName(0),
		})
	} else {
		sources := make([]minio.CopySrcOptions, 0, totalChunks)
		for i := 0; i < totalChunks; i++ {
			sources = append(sources, minio.CopySrcOptions{
				Bucket: g.bucket,
				Object: stagingPath + "/" + chunkName(i),
			})
		}
		info, err = g.client.ComposeObject(ctx, dst, sources...)
	}
	if err != nil {
		return 0, err
	}
	if err := g.DeletePrefix(ctx, stagingPath); err != nil {
		g.log.WithFields(logrus.Fields{
			"staging": stagingPath,
			"error":   err.Error(),
		}).Warn("failed to remove staged chunks after commit")
	}
	return info.Size, nil
}

func (g *MinioGateway) GetSignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	u, err := g.client.PresignedGetObject(ctx, g.bucket, objectPath, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (g *MinioGateway) DeleteObject(ctx context.Context, objectPath string) error {
	return g.client.RemoveObject(ctx, g.bucket, objectPath, minio.RemoveObjectOptions{})
}

func (g *MinioGateway) DeletePrefix(ctx context.Context, prefix string) error {
	objects := g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{
		Prefix:    prefix + "/",
		Recursive: true,
	})
	for removeErr := range g.client.RemoveObjects(ctx, g.bucket, objects, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			return fmt.Errorf("remove %s: %w", removeErr.ObjectName, removeErr.Err)
		}
	}
	return nil
}

func (g *MinioGateway) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := g.client.GetObject(ctx, g.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := object.Stat(); err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return object, nil
}
