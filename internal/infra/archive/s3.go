package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/imobcrm/erpsync/internal/domain"
	"github.com/imobcrm/erpsync/internal/usecase"
)

var _ usecase.RawArchive = (*S3Archive)(nil)

// S3API is the subset of the S3 client the archive calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes every fetched snapshot to
// s3://bucket/prefix/<license>/<run>.json.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

func NewS3Archive(ctx context.Context, region, bucket, prefix string) (*S3Archive, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	return NewS3ArchiveWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func NewS3ArchiveWithClient(client S3API, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

func (a *S3Archive) Key(licenseID, runID string) string {
	return path.Join(a.prefix, licenseID, runID+".json")
}

func (a *S3Archive) Put(ctx context.Context, licenseID, runID string, records []domain.RawRecord) error {
	if records == nil {
		records = []domain.RawRecord{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(licenseID, runID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return errors.Wrap(err, "put snapshot")
}
