// Package s3 reads registry documents from an S3 or S3-compatible bucket.
// Each chain's document lives at <prefix>/<chain>.json.
package s3

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/registrysource"
)

// Config options for the S3 registry source
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	Prefix          string // Key prefix of the registry documents
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
}

// Source implements contenthub.RegistrySource over S3
type Source struct {
	downloader *manager.Downloader
	bucket     string
	prefix     string
}

// New creates an S3 registry source
func New(ctx context.Context, config Config) (*Source, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3Options...), config.Bucket, config.Prefix), nil
}

// NewWithClient creates a source on an existing client
func NewWithClient(client manager.DownloadAPIClient, bucket, prefix string) *Source {
	return &Source{
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
		bucket: bucket,
		prefix: prefix,
	}
}

// GetContracts returns the records of chain, or of every chain for "all".
func (s *Source) GetContracts(ctx context.Context, chain string) ([]contenthub.ContentRecord, error) {
	return registrysource.Collect(ctx, chain, s.read)
}

// Key returns the object key of a chain's document.
func (s *Source) Key(chain contenthub.Chain) string {
	return path.Join(s.prefix, string(chain)+".json")
}

func (s *Source) read(ctx context.Context, chain contenthub.Chain) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(chain)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, registrysource.ErrNoDocument
		}
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, s.Key(chain), err)
	}
	return buf.Bytes(), nil
}

// isNotFound handles both typed errors and the bare codes some
// S3-compatible services return.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
