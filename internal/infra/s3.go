package infra

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"exusiai.dev/stageflow/internal/app/appconfig"
)

// S3Client returns nil when archiving is not configured.
func S3Client(conf *appconfig.Config) (*s3.Client, error) {
	if !conf.ArchiveS3.Enabled() {
		log.Debug().Msg("archive bucket not configured, S3 client disabled")
		return nil, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.ArchiveS3Region),
	}
	if conf.AWSAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AWSAccessKey, conf.AWSSecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return s3.NewFromConfig(cfg), nil
}
