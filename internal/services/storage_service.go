// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archelabs/arche-backend/internal/config"
)

// StorageService keeps generated preview images. S3 when credentials
// are configured, local ./uploads otherwise.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local development runs without S3
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// UploadBytes stores an image blob under generated/ and returns its
// public URL.
func (s *StorageService) UploadBytes(data []byte, ext, contentType string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	key := s.generateKey("generated", ext)

	if s.s3Client != nil {
		return s.uploadToS3(data, key, contentType)
	}

	return s.uploadToLocal(data, key, contentType)
}

func (s *StorageService) uploadToS3(data []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join("uploads", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	url := fmt.Sprintf("http://%s:%s/uploads/%s", s.config.Server.Host, s.config.Server.Port, key)

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client == nil {
		return os.Remove(filepath.Join("uploads", key))
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// KeyFromURL maps a URL produced by UploadBytes back to its storage
// key. Foreign URLs (ipfs://, external hosts) return false.
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	if idx := strings.Index(url, "/uploads/"); idx >= 0 {
		return url[idx+len("/uploads/"):], true
	}
	if idx := strings.Index(url, "/generated/"); idx >= 0 {
		return url[idx+1:], true
	}
	return "", false
}

// RemoveByURL best-effort deletes an object previously returned by
// UploadBytes. URLs that do not point at this store are ignored.
func (s *StorageService) RemoveByURL(url string) {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.DeleteFile(key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to remove stored image")
	}
}

func (s *StorageService) generateKey(folder, ext string) string {
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.NewString()[:8], ext)
	return fmt.Sprintf("%s/%s", folder, filename)
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
