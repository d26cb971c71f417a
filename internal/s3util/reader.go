// Package s3util reads S3 objects in place for the atom decoder.
//
// The decoder only touches atom headers and the handful of payloads it
// decodes, so an object is read with ranged GetObject calls instead of
// being downloaded first.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ObjectAPI is the subset of *s3.Client used by ReaderAt.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// IsURI reports whether s names an S3 object.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ParseURI splits "s3://bucket/key" into its bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 URI must be s3://bucket/key: %s", uri)
	}
	return bucket, key, nil
}

// ReaderAt serves ReadAt calls with ranged GetObject requests.
type ReaderAt struct {
	ctx    context.Context
	client ObjectAPI
	bucket string
	key    string
	size   int64

	requests int
}

var _ io.ReaderAt = (*ReaderAt)(nil)

// NewReaderAt looks up the object size with HeadObject.
func NewReaderAt(ctx context.Context, client ObjectAPI, bucket, key string) (*ReaderAt, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 HeadObject: %w", err)
	}

	size := aws.ToInt64(head.ContentLength)
	log.Debug().Str("bucket", bucket).Str("key", key).Int64("size", size).Msg("Opened S3 object")

	return &ReaderAt{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		key:    key,
		size:   size,
	}, nil
}

// Size is the object's content length.
func (r *ReaderAt) Size() int64 {
	return r.size
}

// Requests is the number of GetObject calls made so far.
func (r *ReaderAt) Requests() int {
	return r.requests
}

// ReadAt fetches bytes [off, off+len(p)) clamped to the object size.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("s3util: negative offset")
	}
	if off >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := off + int64(len(p))
	if end > r.size {
		end = r.size
	}

	r.requests++
	out, err := r.client.GetObject(r.ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &r.key,
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end-1)),
	})
	if err != nil {
		return 0, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off])
	if err != nil {
		return n, fmt.Errorf("read S3 range: %w", err)
	}
	if end-off < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
