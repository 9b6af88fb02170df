// Package s3 implements ObjectStorage on Amazon S3 and S3-compatible
// services such as MinIO.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// Client implements the ObjectStorage interface for AWS S3
type Client struct {
	s3Client *s3.Client
	config   *config.S3Config
	logger   types.Logger
	metrics  types.Metrics
}

// NewClient creates a new S3 storage client and makes sure the configured
// bucket exists.
func NewClient(cfg *config.StorageConfig, logger types.Logger, metrics types.Metrics) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 configuration: %w", err)
	}

	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   &cfg.S3,
		logger:   logger.WithFields(types.Fields{"storage": "s3"}),
		metrics:  metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify bucket existence: %w", err)
	}

	return client, nil
}

// Put stores an object in S3
func (c *Client) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata storagetypes.ObjectMetadata) error {
	start := time.Now()
	defer func() {
		c.metrics.RecordDuration("storage.s3.put", time.Since(start).Seconds())
	}()

	bucket, key = c.resolve(bucket, key)

	// Read the content into a buffer so the body is seekable for signing
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, reader); err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	}
	if metadata.ContentType != "" {
		input.ContentType = aws.String(metadata.ContentType)
	}
	if len(metadata.UserMetadata) > 0 {
		input.Metadata = metadata.UserMetadata
	}

	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		c.metrics.RecordError("storage.s3.put", "put_object")
		c.logger.Error(ctx, "failed to put object", err, types.Fields{
			"bucket": bucket,
			"key":    key,
		})
		return fmt.Errorf("failed to put object: %w", err)
	}

	c.logger.Debug(ctx, "object stored successfully", types.Fields{
		"bucket": bucket,
		"key":    key,
		"size":   buf.Len(),
	})
	return nil
}

// Create returns a writer that spools to a temporary file and uploads on
// Close. The upload is conditional, so a concurrent writer of the same key
// makes Close fail with ErrObjectExists.
func (c *Client) Create(ctx context.Context, bucket, key string) (storagetypes.Writer, error) {
	exists, err := c.Exists(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, storagetypes.ErrObjectExists
	}

	spool, err := os.CreateTemp("", "s3-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	bucket, key = c.resolve(bucket, key)
	return &uploadWriter{ctx: ctx, client: c, bucket: bucket, key: key, spool: spool}, nil
}

// Append emulates an append by rewriting the whole object
func (c *Client) Append(ctx context.Context, bucket, key string, data []byte) error {
	var existing []byte

	rc, err := c.Get(ctx, bucket, key)
	switch {
	case err == nil:
		existing, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to read object: %w", err)
		}
	case errors.Is(err, storagetypes.ErrObjectNotFound):
	default:
		return err
	}

	return c.Put(ctx, bucket, key, bytes.NewReader(append(existing, data...)), storagetypes.ObjectMetadata{})
}

// Get retrieves an object from S3
func (c *Client) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	bucket, key = c.resolve(bucket, key)

	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, storagetypes.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return result.Body, nil
}

// Delete removes an object from S3
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	bucket, key = c.resolve(bucket, key)

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.logger.Error(ctx, "failed to delete object", err, types.Fields{
			"bucket": bucket,
			"key":    key,
		})
		return fmt.Errorf("failed to delete object: %w", err)
	}

	c.logger.Debug(ctx, "object deleted successfully", types.Fields{
		"bucket": bucket,
		"key":    key,
	})
	return nil
}

// Exists checks if an object exists in S3
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	bucket, key = c.resolve(bucket, key)

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// List returns the objects under prefix. Keys are reported relative to the
// configured key prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]storagetypes.ObjectInfo, error) {
	bucket, fullPrefix := c.resolve(bucket, prefix)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if fullPrefix != "" {
		input.Prefix = aws.String(fullPrefix)
	}

	var objects []storagetypes.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			c.logger.Error(ctx, "failed to list objects", err, types.Fields{
				"bucket": bucket,
				"prefix": fullPrefix,
			})
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, storagetypes.ObjectInfo{
				Key:          c.relative(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// CreateBucket creates a new S3 bucket
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		bucket = c.config.Bucket
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}

	// Add location constraint for non us-east-1 regions
	if c.config.Region != "" && c.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.config.Region),
		}
	}

	_, err := c.s3Client.CreateBucket(ctx, input)
	if err != nil {
		var bae *s3types.BucketAlreadyExists
		var baoyb *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &bae) || errors.As(err, &baoyb) {
			return nil
		}

		c.logger.Error(ctx, "failed to create bucket", err, types.Fields{
			"bucket": bucket,
		})
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	c.logger.Info(ctx, "bucket created successfully", types.Fields{
		"bucket": bucket,
	})
	return nil
}

// ensureBucketExists checks if the configured bucket exists
func (c *Client) ensureBucketExists(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})

	if err != nil {
		var nse *s3types.NotFound
		if errors.As(err, &nse) {
			c.logger.Info(ctx, "bucket does not exist, attempting to create", types.Fields{
				"bucket": c.config.Bucket,
			})
			return c.CreateBucket(ctx, c.config.Bucket)
		}
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	return nil
}

// resolve applies the default bucket and the configured key prefix
func (c *Client) resolve(bucket, key string) (string, string) {
	if bucket == "" {
		bucket = c.config.Bucket
	}
	key = strings.TrimPrefix(key, "/")
	if c.config.Prefix != "" {
		key = path.Join(c.config.Prefix, key)
		if key == path.Clean(c.config.Prefix) {
			key += "/"
		}
	}
	return bucket, key
}

func (c *Client) relative(key string) string {
	if c.config.Prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, path.Clean(c.config.Prefix)), "/")
}

// uploadWriter spools writes locally and uploads the object on Close.
// Abort drops the spool without sending anything.
type uploadWriter struct {
	ctx    context.Context
	client *Client
	bucket string
	key    string
	spool  *os.File
	closed bool
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.spool.Write(p)
}

func (w *uploadWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer os.Remove(w.spool.Name())
	defer w.spool.Close()

	if _, err := w.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind spool file: %w", err)
	}

	_, err := w.client.s3Client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        w.spool,
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return storagetypes.ErrObjectExists
		}
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (w *uploadWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.spool.Close()
	if err := os.Remove(w.spool.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove spool file: %w", err)
	}
	return nil
}

// buildAWSConfig builds the AWS configuration from the storage config
func buildAWSConfig(storageConfig *config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	s3Config := storageConfig.S3

	if s3Config.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(s3Config.Region))
	}

	// Use static credentials if provided
	if s3Config.AccessKeyID != "" && s3Config.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3Config.AccessKeyID,
				s3Config.SecretAccessKey,
				"",
			),
		))
	}

	// S3-compatible services often reject the newer flexible checksums
	optFns = append(optFns,
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		awsconfig.WithResponseChecksumValidation(aws.ResponseChecksumValidationWhenRequired),
	)

	// Bound the wait for response headers only; artifact uploads can take
	// much longer than the configured timeout. The buildable client keeps
	// AWS_CA_BUNDLE working.
	optFns = append(optFns, awsconfig.WithHTTPClient(
		awshttp.NewBuildableClient().WithTransportOptions(func(t *http.Transport) {
			t.ResponseHeaderTimeout = storageConfig.Timeout
		}),
	))

	return awsconfig.LoadDefaultConfig(context.Background(), optFns...)
}

// isNotFoundError checks if an error is a not found error
func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nse *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nse)
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}
