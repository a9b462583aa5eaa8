// Package storage uploads listing images and avatars to the gateway bucket.
package storage

import (
	"context"
	"log/slog"
	"strings"

	"storefront/config"
	"storefront/internal/domain/service"
	"storefront/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Bucket drivers selected by URL scheme
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
)

type blobStorage struct {
	bucket        *blob.Bucket
	publicBaseURL string
	logger        *slog.Logger
}

// StorageParams holds dependencies for ObjectStorage, injected by Fx
type StorageParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewObjectStorage opens the configured bucket and closes it on shutdown.
func NewObjectStorage(params StorageParams) (service.ObjectStorage, error) {
	cfg := params.Config.Storage

	storage, err := NewBlobStorage(params.Ctx, cfg.BucketURL, cfg.PublicBaseURL, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing object storage")

			return storage.Close()
		},
	})

	return storage, nil
}

// NewBlobStorage opens bucketURL, e.g. mem://, file:///var/storefront or gs://bucket.
func NewBlobStorage(ctx context.Context, bucketURL, publicBaseURL string, logger *slog.Logger) (service.ObjectStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}

	logger.Info("Object storage initialized", slog.String("bucket_url", bucketURL))

	return &blobStorage{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

func (s *blobStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType}); err != nil {
		return "", errors.Wrapf(err, "write object %s", key)
	}

	s.logger.Debug("Object uploaded",
		slog.String("key", key),
		slog.String("size", util.FormatBytes(int64(len(data)))),
	)

	if s.publicBaseURL == "" {
		return key, nil
	}

	return s.publicBaseURL + "/" + key, nil
}

func (s *blobStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", errors.Wrap(service.ErrObjectNotFound, key)
		}

		return nil, "", errors.Wrapf(err, "stat object %s", key)
	}

	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read object %s", key)
	}

	return data, attrs.ContentType, nil
}

func (s *blobStorage) Close() error {
	return errors.WithStack(s.bucket.Close())
}
