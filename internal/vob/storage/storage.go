// Package storage stores exported verification PDFs in object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"rcm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is how long a generated download link stays valid.
const PresignedURLTTL = 15 * time.Minute

// DocumentStore persists VOB PDF exports in MinIO.
type DocumentStore struct {
	client *minio.Client
	bucket string
}

// New creates the document store and ensures its bucket exists.
func New(ctx context.Context, cfg config.MinIOConfig) (*DocumentStore, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	store := &DocumentStore{client: client, bucket: cfg.GetMinioBucketVOBDocuments()}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DocumentStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// PutPDF stores a verification PDF and returns its object key.
func (s *DocumentStore) PutPDF(ctx context.Context, verificationID uuid.UUID, pdf []byte) (string, error) {
	key := fmt.Sprintf("verifications/%s/%s.pdf", verificationID, time.Now().UTC().Format("20060102T150405Z"))
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("store verification pdf: %w", err)
	}
	return key, nil
}

// DownloadURL generates a presigned link for a stored PDF.
func (s *DocumentStore) DownloadURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, PresignedURLTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign verification pdf: %w", err)
	}
	return u.String(), nil
}
