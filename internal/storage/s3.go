package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"shortreel/internal/services"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Options configures the bucket store. Empty values fall back to the
// standard AWS configuration chain.
type S3Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	Endpoint     string
	UsePathStyle bool
}

// S3 stores artifacts as s3://<bucket>/<prefix><id>.mp4.
type S3 struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3 loads AWS configuration and builds the store.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "storage", "load aws config", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewS3WithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewS3WithClient builds the store around an existing client.
func NewS3WithClient(client ObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(id string) string { return s.prefix + id + Extension }

// Location returns the object URI.
func (s *S3) Location(id string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key(id))
}

// Put uploads localPath and removes it once the upload succeeded.
func (s *S3) Put(ctx context.Context, id, localPath string) error {
	if err := validID(id); err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "put", id, err)
	}
	defer f.Close()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(id)),
		Body:        f,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "upload", s.Location(id), err)
	}
	_ = f.Close()
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrCleanup, "storage", "remove local copy", localPath, err)
	}
	return nil
}

// Exists reports whether the object is present.
func (s *S3) Exists(ctx context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, services.Wrap(services.ErrTransient, "storage", "head", s.Location(id), err)
}

// Open streams the object body.
func (s *S3) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(id)
		}
		return nil, services.Wrap(services.ErrTransient, "storage", "get", s.Location(id), err)
	}
	return out.Body, nil
}

// Delete removes the object. S3 deletes are idempotent, so presence is checked
// first to report missing artifacts.
func (s *S3) Delete(ctx context.Context, id string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(id)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "storage", "delete", s.Location(id), err)
	}
	return nil
}

// List returns ids of every artifact under the prefix.
func (s *S3) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	var ids []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "storage", "list", s.bucket, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, Extension) {
				continue
			}
			ids = append(ids, strings.TrimSuffix(name, Extension))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func isNotFound(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
