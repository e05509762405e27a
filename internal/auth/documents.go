package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// objectStore is the subset of *minio.Client used for profile documents.
type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// DocumentStorage keeps user document scans in an object store bucket.
type DocumentStorage struct {
	store      objectStore
	bucket     string
	maxSize    int64
	presignTTL time.Duration
	nowFunc    func() time.Time
}

// NewDocumentStorage constructs a DocumentStorage backed by store.
func NewDocumentStorage(store objectStore, cfg config.MinIOConfig) *DocumentStorage {
	return &DocumentStorage{
		store:      store,
		bucket:     cfg.Bucket,
		maxSize:    cfg.MaxDocumentSize,
		presignTTL: cfg.PresignTTL,
		nowFunc:    time.Now,
	}
}

// Save uploads a document for the user and returns its metadata.
func (d *DocumentStorage) Save(ctx context.Context, userID uuid.UUID, name string, fileHeader *multipart.FileHeader) (StoredDocument, error) {
	if fileHeader == nil {
		return StoredDocument{}, fmt.Errorf("missing file payload")
	}
	if d.maxSize > 0 && fileHeader.Size > d.maxSize {
		return StoredDocument{}, ErrDocumentTooLarge
	}

	objectName := fmt.Sprintf("users/%s/%s/%s", userID, name, uuid.NewString())

	file, err := fileHeader.Open()
	if err != nil {
		return StoredDocument{}, fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	reader := io.TeeReader(file, hasher)
	contentType := detectContentType(fileHeader)

	info, err := d.store.PutObject(ctx, d.bucket, objectName, reader, fileHeader.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredDocument{}, fmt.Errorf("store object: %w", err)
	}

	size := info.Size
	if size <= 0 {
		size = fileHeader.Size
	}
	if d.maxSize > 0 && size > d.maxSize {
		_ = d.Remove(ctx, objectName)
		return StoredDocument{}, ErrDocumentTooLarge
	}

	return StoredDocument{
		ObjectName:       objectName,
		OriginalFilename: sanitizeFilename(fileHeader.Filename),
		ContentType:      contentType,
		SizeBytes:        size,
		Checksum:         hex.EncodeToString(hasher.Sum(nil)),
		UploadedAt:       d.nowFunc().UTC(),
	}, nil
}

// Remove deletes a stored object.
func (d *DocumentStorage) Remove(ctx context.Context, objectName string) error {
	if err := d.store.RemoveObject(ctx, d.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", objectName, err)
	}
	return nil
}

// URL returns a presigned download URL for objectName and its expiry.
func (d *DocumentStorage) URL(ctx context.Context, doc StoredDocument) (string, time.Time, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))

	u, err := d.store.PresignedGetObject(ctx, d.bucket, doc.ObjectName, d.presignTTL, params)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign object: %w", err)
	}
	return u.String(), d.nowFunc().Add(d.presignTTL), nil
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
