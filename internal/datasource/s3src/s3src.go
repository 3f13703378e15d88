// Package s3src reads source tables from S3 or an S3-compatible store such
// as MinIO.
package s3src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

// Config addresses one object. Credentials come from the default AWS chain
// (environment, shared config, instance role).
type Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // optional, e.g. http://localhost:9000 for MinIO
	PathStyle bool
}

// objectGetter is the subset of *s3.Client used here.
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source streams one object.
type Source struct {
	client objectGetter
	bucket string
	key    string
}

// New loads the AWS configuration and returns a Source for cfg's object.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("s3src: bucket and key are required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3src: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newSource(client, cfg.Bucket, cfg.Key), nil
}

func newSource(c objectGetter, bucket, key string) *Source {
	return &Source{client: c, bucket: bucket, key: strings.TrimPrefix(key, "/")}
}

// Open starts the download; the caller closes the body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return out.Body, nil
}
