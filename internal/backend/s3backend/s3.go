// Package s3backend implements the backend.Store over an S3-compatible
// bucket. Groups map to object prefixes:
//
//	{prefix}/{group}/chunk-{n}
//	{prefix}/{group}/metadata.json
//
// The per-object ceiling is effectively unlimited for this tool's
// archives, so pushes are a single chunk in practice.
package s3backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

const metadataObject = "metadata.json"

// maxBlobSize mirrors the single-PUT object limit.
const maxBlobSize = 5 << 30

// Store holds one bucket/prefix pair.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewStore returns a Store writing under bucket/prefix.
func NewStore(client *s3.Client, bucket, prefix string) *Store {
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *Store) objectKey(group, name string) string {
	return path.Join(s.prefix, group, name)
}

func (s *Store) PutBlob(ctx context.Context, group, key string, data []byte) error {
	return s.put(ctx, s.objectKey(group, key), data)
}

func (s *Store) GetBlob(ctx context.Context, group, key string) ([]byte, error) {
	return s.get(ctx, s.objectKey(group, key))
}

func (s *Store) DeleteBlob(ctx context.Context, group, key string) error {
	return s.delete(ctx, s.objectKey(group, key))
}

func (s *Store) PutMetadata(ctx context.Context, group string, md *backend.Metadata) error {
	body, err := json.Marshal(md)
	if err != nil {
		return err
	}
	return s.put(ctx, s.objectKey(group, metadataObject), body)
}

func (s *Store) GetMetadata(ctx context.Context, group string) (*backend.Metadata, error) {
	body, err := s.get(ctx, s.objectKey(group, metadataObject))
	if err != nil {
		return nil, err
	}

	var md backend.Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("%w: malformed metadata object: %v", common.ErrBackendUnavailable, err)
	}
	return &md, nil
}

func (s *Store) DeleteMetadata(ctx context.Context, group string) error {
	return s.delete(ctx, s.objectKey(group, metadataObject))
}

// ListGroups walks the prefix and reports every group with a committed
// metadata object.
func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var groups []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			group, ok := strings.CutSuffix(key, "/"+metadataObject)
			if !ok || strings.Contains(group, "/") {
				continue
			}
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func (s *Store) MaxBlobSize() int { return maxBlobSize }

func (s *Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return mapError(err)
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	return data, nil
}

func (s *Store) delete(ctx context.Context, key string) error {
	// DeleteObject succeeds for absent keys, matching the idempotent
	// delete contract.
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return mapError(err)
}

// mapError translates SDK failures onto the shared taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return common.ErrNotFound
	}

	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		switch re.HTTPStatusCode() {
		case http.StatusNotFound:
			return common.ErrNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return common.ErrUnauthorized
		}
	}

	return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
}
