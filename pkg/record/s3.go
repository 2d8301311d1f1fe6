package record

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of *s3.Client S3Sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads each trace to <prefix><session>/<id>.yaml.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "eu-west-1", Credentials: creds})
//	sink := record.NewS3Sink(client, "gesture-traces", "prod/")
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Sink creates an S3Sink.
//
// Parameters:
//   - client: usually an *s3.Client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: key prefix, e.g. "traces/"
func NewS3Sink(client ObjectPutter, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for tr.
func (s *S3Sink) Key(tr *Trace) string {
	session := tr.SessionID
	if session == "" {
		session = "unknown"
	}
	return s.prefix + path.Join(session, tr.ID+".yaml")
}

// Put uploads tr.
func (s *S3Sink) Put(ctx context.Context, tr *Trace) error {
	data, err := Marshal(tr)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(tr)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/yaml"),
		Metadata: map[string]string{
			"direction":   tr.Outcome.Direction,
			"reason":      tr.Outcome.Reason,
			"recorded-at": tr.RecordedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("record: s3 upload failed: %w", err)
	}
	return nil
}
