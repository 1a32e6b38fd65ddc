package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 stores bundles as objects under Prefix in Bucket. Static keys are
// used when configured, the default AWS credential chain otherwise.
type S3 struct {
	config   Config
	client   *s3.Client
	uploader *manager.Uploader
}

func NewS3(cfg Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for S3")
	}
	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, fmt.Errorf("access_key and secret_key must be set together")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &S3{config: cfg}, nil
}

func (s *S3) Connect(ctx context.Context) error {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.config.Region)}
	if s.config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.config.AccessKey, s.config.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.config.Endpoint)
		}
		o.UsePathStyle = s.config.PathStyle
	})
	s.uploader = manager.NewUploader(s.client)
	return nil
}

func (s *S3) Close() error { return nil }

// ObjectKey is the key a message named name is stored under.
func (s *S3) ObjectKey(name string) string {
	if s.config.Prefix == "" {
		return name
	}
	return path.Join(s.config.Prefix, name)
}

func (s *S3) Send(ctx context.Context, msg Message) error {
	if s.uploader == nil {
		return fmt.Errorf("not connected to S3")
	}
	if msg.Name == "" {
		return fmt.Errorf("object name is required for S3")
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(s.ObjectKey(msg.Name)),
		Body:        bytes.NewReader(msg.Body),
		ContentType: aws.String("application/xml"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Receive fetches the object named by Config.Key.
func (s *S3) Receive(ctx context.Context) (Message, error) {
	if s.client == nil {
		return Message{}, fmt.Errorf("not connected to S3")
	}
	if s.config.Key == "" {
		return Message{}, fmt.Errorf("key is required to receive from S3")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.ObjectKey(s.config.Key)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return Message{}, fmt.Errorf("object %s not found", s.ObjectKey(s.config.Key))
		}
		return Message{}, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return Message{}, fmt.Errorf("failed to read object: %w", err)
	}
	return Message{Name: s.config.Key, Body: body}, nil
}

func (s *S3) Ack(context.Context) error { return nil }

func (s *S3) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("not connected to S3")
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.config.Bucket)}); err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", s.config.Bucket, err)
	}
	return nil
}

func (s *S3) Type() string { return "s3" }
