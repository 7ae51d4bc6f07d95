package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"retreat/config"
	"retreat/infras/otel"
	"retreat/shared/constant"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrObjectKey = "object_key"
	otelAttrBucket    = "bucket"
)

// S3 stores raw objects in the configured bucket.
type S3 interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) (url string, err error)
}

// objectPutter is the slice of the SDK client this package uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Impl struct {
	client objectPutter
	bucket string
	public string
	otel   otel.Otel
}

func (svc *s3Impl) PutObject(ctx context.Context, key, contentType string, data []byte) (url string, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".PutObject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: key,
		otelAttrBucket:    svc.bucket,
	})

	_, err = svc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(svc.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return constant.Empty, fmt.Errorf("failed to upload object to S3: %w", err)
	}

	return ObjectURL(svc.public, svc.bucket, key), nil
}

// ObjectURL returns the public URL when a public domain is set, otherwise an s3:// URI.
func ObjectURL(publicDomain, bucket, key string) string {
	if publicDomain != "" {
		return strings.TrimSuffix(publicDomain, "/") + "/" + key
	}

	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// NewWithClient wires an existing SDK client, used by tests with a stub.
func NewWithClient(client objectPutter, bucket, publicDomain string, ot otel.Otel) S3 {
	return &s3Impl{
		client: client,
		bucket: bucket,
		public: publicDomain,
		otel:   ot,
	}
}

func New(config *config.Config, ot otel.Otel) S3 {
	staticProvider := credentials.NewStaticCredentialsProvider(
		config.External.S3.AccessKeyID,
		config.External.S3.SecretAccessKey,
		"",
	)

	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithCredentialsProvider(staticProvider),
	)
	if err != nil {
		log.Err(err).Msg("Error loading AWS configuration")
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := config.External.S3.APIEndpoint; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}

		o.UsePathStyle = true
		o.Region = "auto"
	})

	return NewWithClient(s3Client, config.External.S3.BucketName, config.External.S3.PublicDomain, ot)
}
