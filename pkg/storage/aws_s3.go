package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config places objects under Prefix in Bucket. With CDNDomain set, URLs
// point at the CDN instead of the bucket endpoint.
type S3Config struct {
	Region    string
	Bucket    string
	Prefix    string
	CDNDomain string
}

type AWSS3Storage struct {
	client *s3.Client
	cfg    S3Config
}

func NewAWSS3Storage(ctx context.Context, cfg S3Config) (*AWSS3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return &AWSS3Storage{client: s3.NewFromConfig(awsCfg), cfg: cfg}, nil
}

func (a *AWSS3Storage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(a.cfg.Bucket),
		Key:          aws.String(a.objectKey(request.Key)),
		Body:         request.Reader,
		ContentType:  aws.String(request.ContentType),
		CacheControl: aws.String(cacheControl(request)),
	}
	if request.Size > 0 {
		input.ContentLength = aws.Int64(request.Size)
	}
	if len(request.Metadata) > 0 {
		input.Metadata = request.Metadata
	}

	resp, err := a.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to S3: %w", request.Key, err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  a.URL(request.Key),
		Size: request.Size,
		ETag: aws.ToString(resp.ETag),
	}, nil
}

// Delete succeeds when the object is already gone.
func (a *AWSS3Storage) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(a.objectKey(key)),
	})
	var missing *types.NoSuchKey
	if err != nil && !errors.As(err, &missing) {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}

func (a *AWSS3Storage) URL(key string) string {
	if a.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", a.cfg.CDNDomain, a.objectKey(key))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.cfg.Bucket, a.cfg.Region, a.objectKey(key))
}

func (a *AWSS3Storage) objectKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if a.cfg.Prefix == "" {
		return key
	}
	return path.Join(a.cfg.Prefix, key)
}
