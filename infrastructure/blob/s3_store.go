// Package blob stores the whole-tree snapshot document in S3.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
)

const presignTTL = 15 * time.Minute

// S3Store reads and writes the snapshot document for one session.
// Reads go through a presigned URL, the same access path browser
// clients use, so the bucket policy is exercised identically; writes go
// straight through the S3 API.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	httpc     *http.Client
	bucket    string
	key       string
	logger    *zap.Logger
}

// NewS3Store creates a snapshot store. Documents live under
// entity-files/<session>/amplify-tree.json.
func NewS3Store(client *s3.Client, bucket, sessionID string, logger *zap.Logger) *S3Store {
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		httpc:     &http.Client{Timeout: 30 * time.Second},
		bucket:    bucket,
		key:       fmt.Sprintf("entity-files/%s/amplify-tree.json", sessionID),
		logger:    logger,
	}
}

// GetSnapshot fetches the stored document. A missing document is not an
// error: it returns nil bytes so the caller can start from an empty
// tree.
func (s *S3Store) GetSnapshot(ctx context.Context) ([]byte, error) {
	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, apperrors.NewRemoteError("blob-store", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, presigned.URL, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build snapshot request", err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("fetch snapshot", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.logger.Info("No snapshot document exists yet",
			zap.String("bucket", s.bucket),
			zap.String("key", s.key),
		)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewRemoteError("blob-store", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("read snapshot body", err)
	}
	return data, nil
}

// PutSnapshot overwrites the stored document
func (s *S3Store) PutSnapshot(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return apperrors.NewRemoteError("blob-store", err)
	}

	s.logger.Debug("Snapshot written",
		zap.String("bucket", s.bucket),
		zap.String("key", s.key),
		zap.Int("bytes", len(data)),
	)
	return nil
}
