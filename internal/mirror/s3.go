// Package mirror copies finished artifacts to S3 compatible storage so the
// outbox folder is not the only copy.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"story-agent/internal"
	"story-agent/internal/logging"
)

type S3Mirror struct {
	bucket string
	prefix string
	upl    *manager.Uploader
	log    *logging.Logger
}

func NewS3(cfg internal.Config, log *logging.Logger) (*S3Mirror, error) {
	endpoint := cfg.S3Endpoint
	forcePathStyle := true
	if strings.Contains(endpoint, "amazonaws.com") {
		forcePathStyle = false
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.UsePathStyle = forcePathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})

	return &S3Mirror{
		bucket: cfg.S3Bucket,
		prefix: cfg.S3Prefix,
		upl:    manager.NewUploader(client),
		log:    log,
	}, nil
}

// Upload streams a local file to the configured bucket under the mirror
// prefix. The object key is the artifact file name.
func (m *S3Mirror) Upload(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := path.Join(m.prefix, filepath.Base(localPath))
	contentType := "video/mp4"
	_, err = m.upl.Upload(ctx, &awss3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	m.log.Infof("mirror: ✓ uploaded %s", key)
	return nil
}
