package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RemoteConfig describes an optional S3-compatible destination for the
// finished archive. Operators opt in explicitly; leaving Bucket empty
// disables remote upload entirely.
type RemoteConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func (c RemoteConfig) enabled() bool { return c.Bucket != "" }

// Upload ships path to the configured bucket under its base filename. It
// is fire-and-forget from the rig's perspective: failures are returned
// for logging, never fatal to teardown.
func Upload(ctx context.Context, cfg RemoteConfig, path string) error {
	if !cfg.enabled() {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return fmt.Errorf("archive: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("archive: opening %s for upload: %w", path, err)
	}
	defer f.Close()

	uploader := manager.NewUploader(client)
	key := baseName(path)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("archive: uploading %s: %w", path, err)
	}
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
