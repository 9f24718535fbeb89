// Package s3 keeps each kv item as one object in an S3-compatible bucket
// (AWS S3 or MinIO). Objects are laid out as <prefix>/<namespace>/<key>.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"moneytracker/internal/kv"
)

type Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string
	PathStyle       bool
	HTTPClient      *http.Client // optional
}

type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ kv.Backend = (*Store)(nil)

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *Store) Close() error { return nil }

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	return err
}

func (s *Store) Bucket(namespace string) kv.Bucket {
	p := namespace + "/"
	if s.prefix != "" {
		p = s.prefix + "/" + p
	}
	return &bucket{store: s, prefix: p}
}

type bucket struct {
	store  *Store
	prefix string
}

func (b *bucket) objectKey(key string) string { return b.prefix + key }

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k := b.objectKey(key)
	out, err := b.store.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &b.store.bucket, Key: &k})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get object %s: %w", k, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", k, err)
	}
	return data, true, nil
}

func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	k := b.objectKey(key)
	_, err := b.store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &b.store.bucket,
		Key:           &k,
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", k, err)
	}
	return nil
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	k := b.objectKey(key)
	if _, err := b.store.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &b.store.bucket, Key: &k}); err != nil {
		return fmt.Errorf("delete object %s: %w", k, err)
	}
	return nil
}

func (b *bucket) Clear(ctx context.Context) error {
	keys, err := b.list(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := b.store.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &b.store.bucket, Key: aws.String(k)}); err != nil {
			return fmt.Errorf("delete object %s: %w", k, err)
		}
	}
	return nil
}

func (b *bucket) Keys(ctx context.Context) ([]string, error) {
	objects, err := b.list(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, k := range objects {
		keys = append(keys, strings.TrimPrefix(k, b.prefix))
	}
	return keys, nil
}

// list returns full object keys under the bucket prefix, following continuation tokens.
func (b *bucket) list(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := b.store.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &b.store.bucket,
			Prefix:            &b.prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", b.prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		return keys, nil
	}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
