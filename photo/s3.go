package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padraicbc/rungroop/logger"
)

const keyPrefix = "races/"

// ObjectAPI is the subset of the S3 client used by Store.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Recorder receives photo operation outcomes.
type Recorder interface {
	RecordPhotoOperation(op string, ok bool)
}

// Options configures a Store.
type Options struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the AWS endpoint for MinIO and friends.
	Endpoint string
	Bucket   string
	// BaseURL is the public prefix photo URLs are built from.
	BaseURL string
}

// Store uploads and deletes photos in a single bucket.
type Store struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	log     *zap.Logger
	rec     Recorder
}

// NewS3 builds an S3 client from static credentials.
func NewS3(ctx context.Context, opts Options) (*s3.Client, error) {
	creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// New returns a Store writing to bucket and serving URLs under baseURL.
// rec and log may be nil.
func New(client ObjectAPI, bucket, baseURL string, rec Recorder, log *zap.Logger) *Store {
	return &Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.OrNop(log),
		rec:     rec,
	}
}

// Upload stores img under a fresh key.
func (s *Store) Upload(ctx context.Context, img Image) (Uploaded, error) {
	up, err := s.upload(ctx, img)
	s.record("upload", err == nil)
	if err != nil {
		return Uploaded{}, &UploadError{Filename: img.Filename, Err: err}
	}
	s.log.Debug("photo uploaded", zap.String("key", up.PublicID))
	return up, nil
}

func (s *Store) upload(ctx context.Context, img Image) (Uploaded, error) {
	if img.Empty() {
		return Uploaded{}, ErrInvalidImage
	}

	// The SDK needs a seekable body to sign; uploads are bounded by the
	// server's body limit so buffering is acceptable.
	data, err := io.ReadAll(img.Body)
	if err != nil {
		return Uploaded{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return Uploaded{}, ErrInvalidImage
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Uploaded{}, fmt.Errorf("%w: detected %s", ErrInvalidImage, contentType)
	}

	key := keyPrefix + uuid.NewString() + extension(img.Filename, contentType)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return Uploaded{}, err
	}

	return Uploaded{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes the photo identified by ref, a public id or URL.
// Unknown photos fail with ErrUnknownPhoto.
func (s *Store) Delete(ctx context.Context, ref string) error {
	err := s.delete(ctx, ref)
	s.record("delete", err == nil)
	if err != nil {
		return &DeleteError{Ref: ref, Err: err}
	}
	s.log.Debug("photo deleted", zap.String("ref", ref))
	return nil
}

func (s *Store) delete(ctx context.Context, ref string) error {
	key := s.KeyFromRef(ref)
	if key == "" {
		return ErrUnknownPhoto
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return ErrUnknownPhoto
		}
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// KeyFromRef extracts the object key from a public id or URL.
func (s *Store) KeyFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if s.baseURL != "" && strings.HasPrefix(ref, s.baseURL+"/") {
		return strings.TrimPrefix(ref, s.baseURL+"/")
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimPrefix(ref, "/")
	}

	// Path-style URLs carry the bucket as the first segment.
	p := strings.TrimPrefix(u.Path, "/")
	return strings.TrimPrefix(p, s.bucket+"/")
}

func (s *Store) record(op string, ok bool) {
	if s.rec != nil {
		s.rec.RecordPhotoOperation(op, ok)
	}
}

// maxExtLen bounds a client-supplied extension, dot included.
const maxExtLen = 8

func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); len(ext) > 1 && len(ext) <= maxExtLen && isAlnum(ext[1:]) {
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
