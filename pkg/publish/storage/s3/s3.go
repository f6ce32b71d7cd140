package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/simple-publish/pkg/publish"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	Prefix          string // Optional key prefix, e.g. "sites/"
}

// Backend is an S3 implementation of the publish.ContentStore interface.
// The object ETag is the content-address; updates are conditional on it with
// If-Match and creates use If-None-Match: *.
type Backend struct {
	client ObjectAPI
	bucket string
	prefix string
}

// ObjectAPI is the subset of the S3 client the backend uses
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewWithClient creates an S3 content store on an existing client
func NewWithClient(client ObjectAPI, bucket, prefix string) *Backend {
	return &Backend{client: client, bucket: bucket, prefix: prefix}
}

// New creates a new S3 content store
func New(config Config) (publish.ContentStore, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3Options...), config.Bucket, config.Prefix), nil
}

func (b *Backend) objectKey(target publish.Target) string {
	return b.prefix + strings.Join([]string{target.Owner, target.Repo, target.Branch, strings.TrimPrefix(target.Path, "/")}, "/")
}

// Lookup returns the ETag of the object
func (b *Backend) Lookup(ctx context.Context, target publish.Target) (string, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(target)),
	})
	if err != nil {
		return "", classifyError(http.MethodHead, target.Path, err)
	}
	return aws.ToString(result.ETag), nil
}

// Write puts the object conditionally on req.Address
func (b *Backend) Write(ctx context.Context, target publish.Target, req publish.WriteRequest) (*publish.WriteResult, error) {
	data, err := publish.DecodeContent(http.MethodPut, target.Path, req.Content)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(target)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(target.Path, data)),
		Metadata: map[string]string{
			"publish-message": req.Message,
		},
	}
	if req.Address != "" {
		input.IfMatch = aws.String(req.Address)
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	result, err := b.client.PutObject(ctx, input)
	if err != nil {
		return nil, classifyError(http.MethodPut, target.Path, err)
	}

	return &publish.WriteResult{
		Path:    target.Path,
		Address: aws.ToString(result.ETag),
		Commit:  aws.ToString(result.VersionId),
	}, nil
}

// classifyError maps S3 errors onto the publish error taxonomy
func classifyError(method, key string, err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%s: %w", key, publish.ErrFileNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%s: %w", key, publish.ErrFileNotFound)
		case "PreconditionFailed", "ConditionalRequestConflict":
			return &publish.RemoteAPIError{Method: method, Path: key, StatusCode: http.StatusConflict, Body: apiErr.ErrorMessage()}
		}
	}
	return fmt.Errorf("%s %s: %w", method, key, err)
}

func contentType(p string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
