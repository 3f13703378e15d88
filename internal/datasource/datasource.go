// Package datasource opens the byte streams behind the pipeline's input
// tables. Each configured source kind maps to one implementation.
package datasource

import (
	"context"
	"fmt"
	"io"

	"co2etl/internal/config"
	"co2etl/internal/datasource/file"
	"co2etl/internal/datasource/httpds"
	"co2etl/internal/datasource/s3src"
)

// Source yields the raw bytes of one input table. The caller closes the
// returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// newS3Fn is a seam for tests; it builds the S3 client from the AWS default
// credential chain.
var newS3Fn = func(ctx context.Context, cfg s3src.Config) (Source, error) {
	return s3src.New(ctx, cfg)
}

// New returns the Source described by cfg.
func New(ctx context.Context, cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case config.KindFile, "":
		return file.NewLocal(cfg.File.Path), nil
	case config.KindHTTP:
		c := httpds.NewClient(httpds.Config{
			MaxRetries:         cfg.HTTP.MaxRetries,
			InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		})
		return httpds.NewSource(c, cfg.HTTP.URL), nil
	case config.KindS3:
		return newS3Fn(ctx, s3src.Config{
			Bucket:    cfg.S3.Bucket,
			Key:       cfg.S3.Key,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("datasource: unknown kind %q", cfg.Kind)
	}
}
