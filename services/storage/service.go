package storage

import (
	"bytes"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"golang.org/x/net/context"

	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/services/storage/aws_client"
)

// resultArchiveService stores raw provider result payloads so completed test
// scores can be audited later
type resultArchiveService struct {
	client     aws_client.S3Client
	bucketName string
}

func NewResultArchiveService(client aws_client.S3Client, bucketName string) interfaces.StorageService {
	return &resultArchiveService{
		client:     client,
		bucketName: bucketName,
	}
}

func NewR2ResultArchiveService(accountID, accessKeyID, accessKeySecret, bucketName string) (interfaces.StorageService, error) {
	client, err := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       accountID,
		AccessKeyID:     accessKeyID,
		AccessKeySecret: accessKeySecret,
		BucketName:      bucketName,
	})
	if err != nil {
		return nil, err
	}
	return NewResultArchiveService(client, bucketName), nil
}

func (s *resultArchiveService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ResultArchiveService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key, "size", len(data))

	uploadInput := s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	return s.client.Upload(ctx, uploadInput)
}

func (s *resultArchiveService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ResultArchiveService.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	return s.client.Download(ctx, s.bucketName, key)
}

func (s *resultArchiveService) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ResultArchiveService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	return s.client.Delete(ctx, s.bucketName, key)
}
