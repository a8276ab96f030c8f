package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/utils"
)

// BucketService is the blob storage port for imaging studies. Download URLs
// are time-limited and must be re-minted on every read.
type BucketService interface {
	Upload(ctx context.Context, data []byte, filename, contentType string, ownerID uuid.UUID) (string, int64, error)
	// Get returns (nil, nil) when the object does not exist.
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) (bool, error)
	GetDownloadURL(path string) (string, error)
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	urlTTL        time.Duration
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	bucket := utils.GetEnv("GCS_BUCKET_NAME", "", log)
	if bucket == "" {
		return nil, fmt.Errorf("missing env var GCS_BUCKET_NAME")
	}
	urlTTLHours := utils.GetEnvAsInt("DOWNLOAD_URL_TTL_HOURS", 24, log)
	saPath := utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", log)
	if saPath == "" {
		serviceLog.Warn("GOOGLE_APPLICATION_CREDENTIALS_JSON not set, relying on ambient ADC")
	}

	ctx := context.Background()
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucket,
		urlTTL:        time.Duration(urlTTLHours) * time.Hour,
	}, nil
}

func (bs *bucketService) Upload(ctx context.Context, data []byte, filename, contentType string, ownerID uuid.UUID) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	key := fmt.Sprintf("%s/%s-%s", ownerID, uuid.New(), filename)
	w := bs.storageClient.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", 0, fmt.Errorf("failed to write object to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	bs.log.Info("Object uploaded", "key", key, "size", len(data))
	return key, int64(len(data)), nil
}

func (bs *bucketService) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	r, err := bs.storageClient.Bucket(bs.bucketName).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q: %w", path, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", path, err)
	}
	return data, nil
}

func (bs *bucketService) Delete(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := bs.storageClient.Bucket(bs.bucketName).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete GCS object %q: %w", path, err)
	}
	bs.log.Info("Object deleted", "key", path)
	return true, nil
}

func (bs *bucketService) GetDownloadURL(path string) (string, error) {
	url, err := bs.storageClient.Bucket(bs.bucketName).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(bs.urlTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for %q: %w", path, err)
	}
	return url, nil
}
