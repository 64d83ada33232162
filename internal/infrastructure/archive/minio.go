// Package archive copies analyzed media into an S3-compatible bucket so a
// verdict can be reviewed against the file it was made on.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

// Store uploads media objects to MinIO
type Store struct {
	client     *minio.Client
	bucketName string
	logger     *logger.Logger
}

// New connects to MinIO and makes sure the bucket exists
func New(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	log = log.WithComponent("archive")
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("media archive ready")

	return &Store{client: cli, bucketName: cfg.Bucket, logger: log}, nil
}

// ObjectKey returns where the media for rec is stored:
// <content type>/<yyyy>/<mm>/<dd>/<analysis id><ext>
func ObjectKey(rec models.AnalysisRecord) string {
	ts := rec.Result.Timestamp.UTC()
	return path.Join(
		rec.Result.ContentType.String(),
		ts.Format("2006"), ts.Format("01"), ts.Format("02"),
		rec.Result.ID.String()+path.Ext(rec.Subject),
	)
}

// Archive uploads data and tags it with the verdict
func (s *Store) Archive(ctx context.Context, rec models.AnalysisRecord, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(rec)

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"verdict":   string(rec.Result.Verdict),
			"score":     strconv.Itoa(rec.Result.Score),
			"file-name": rec.Subject,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("media archived")
	return nil
}
