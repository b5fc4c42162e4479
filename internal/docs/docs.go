// Package docs serves the documentation assets: a configured catalog of
// guide PDFs stored in an S3-compatible bucket, exposed through short-lived
// presigned URLs.
package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/config"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
)

const urlExpiry = 15 * time.Minute

// Store presigns access to the documentation bucket.
type Store struct {
	bucket  string
	presign *s3.PresignClient
	catalog map[string]config.DocCategory
}

// NewStore builds the S3 presign client from configuration. Returns nil
// when no bucket is configured; callers treat a nil store as "documentation
// module disabled".
func NewStore(ctx context.Context, cfg config.DocsConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
		catalog: cfg.Guides,
	}, nil
}

// Catalog returns the guide categories visible to the caller. The
// administration category is held back from non-admins.
func (s *Store) Catalog(admin bool) map[string]config.DocCategory {
	visible := make(map[string]config.DocCategory, len(s.catalog))
	for slug, cat := range s.catalog {
		if cat.AdminOnly && !admin {
			continue
		}
		visible[slug] = cat
	}
	return visible
}

// Lookup resolves a category/item pair, enforcing the admin-only flag.
func (s *Store) Lookup(category, item string, admin bool) (config.DocItem, bool) {
	cat, ok := s.catalog[category]
	if !ok || (cat.AdminOnly && !admin) {
		return config.DocItem{}, false
	}
	it, ok := cat.Items[item]
	return it, ok
}

// ViewURL presigns a GET for the object key.
func (s *Store) ViewURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(urlExpiry))
	if err != nil {
		return "", &remote.UnavailableError{Service: "object storage", Err: err}
	}
	return req.URL, nil
}

// UploadURL presigns a PUT so an admin can replace the object directly.
func (s *Store) UploadURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(urlExpiry))
	if err != nil {
		return "", &remote.UnavailableError{Service: "object storage", Err: err}
	}
	return req.URL, nil
}
