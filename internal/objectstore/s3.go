package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Args contains fields that are parsed from the query arguments of an
// s3:// store URL.
type S3Args struct {
	// AWS profile to extract credentials from the shared credentials file.
	// If empty, the default credentials are used.
	Profile string `schema:"profile"`
	// Endpoint to connect to. If empty, the default S3 service is used.
	Endpoint string `schema:"endpoint"`
	// Region of the bucket. If empty, the region is determined from Profile
	// or the default configuration.
	Region string `schema:"region"`
	// ACL applied to new objects, e.g. "public-read". By default the
	// bucket's default ACL applies.
	ACL string `schema:"acl"`
	// StorageClass applied to new objects. By default, STANDARD.
	StorageClass string `schema:"storage_class"`
}

// S3Store is a Store over an S3 bucket and key prefix.
type S3Store struct {
	bucket string
	prefix string
	args   S3Args
	client *s3.S3
}

func newS3(ep *url.URL) (Store, error) {
	bucket, prefix, args, err := parseS3URL(ep)
	if err != nil {
		return nil, err
	}

	awsSession, err := session.NewSessionWithOptions(session.Options{
		Profile:           args.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing S3 session: %w", err)
	}
	var awsConfig = s3Config(args)

	// The SDK fails every request without a region, even with an explicit
	// endpoint. Fail fast instead.
	if aws.StringValue(awsConfig.Region) == "" && aws.StringValue(awsSession.Config.Region) == "" {
		return nil, fmt.Errorf("missing AWS region configuration for profile %q", args.Profile)
	}

	slog.Info("constructed S3 store",
		"bucket", bucket,
		"prefix", prefix,
		"endpoint", args.Endpoint,
		"profile", args.Profile,
		"region", aws.StringValue(awsSession.Config.Region))

	return &S3Store{
		bucket: bucket,
		prefix: prefix,
		args:   args,
		client: s3.New(awsSession, awsConfig),
	}, nil
}

// parseS3URL splits an s3:// URL into bucket, key prefix, and arguments.
// A non-empty prefix always ends in "/".
func parseS3URL(ep *url.URL) (bucket, prefix string, args S3Args, err error) {
	if err = parseStoreArgs(ep, &args); err != nil {
		return "", "", args, err
	}
	if ep.Host == "" {
		return "", "", args, fmt.Errorf("s3 store URL %q has no bucket", ep.String())
	}
	prefix = strings.TrimPrefix(ep.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return ep.Host, prefix, args, nil
}

func s3Config(args S3Args) *aws.Config {
	var awsConfig = aws.NewConfig()
	awsConfig.WithCredentialsChainVerboseErrors(true)

	if args.Region != "" {
		awsConfig.WithRegion(args.Region)
	}
	if args.Endpoint != "" {
		awsConfig.WithEndpoint(args.Endpoint)
		// Bucket-named virtual hosts are not compatible with explicit endpoints.
		awsConfig.WithS3ForcePathStyle(true)
	}
	return awsConfig
}

func (s *S3Store) Provider() string { return "s3" }

func (s *S3Store) key(key string) *string {
	return aws.String(s.prefix + key)
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	var headObj = s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(key),
	}
	if _, err := s.client.HeadObjectWithContext(ctx, &headObj); err == nil {
		return true, nil
	} else if isS3NotFound(err) {
		return false, nil
	} else {
		return false, err
	}
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var getObj = s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(key),
	}
	resp, err := s.client.GetObjectWithContext(ctx, &getObj)
	if isS3NotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	} else if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *S3Store) Put(ctx context.Context, key string, content io.ReaderAt, length int64, contentType string) error {
	// The SDK requires an io.ReadSeeker.
	var putObj = s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           s.key(key),
		Body:          io.NewSectionReader(content, 0, length),
		ContentLength: aws.Int64(length),
	}
	if contentType != "" {
		putObj.ContentType = aws.String(contentType)
	}
	if s.args.ACL != "" {
		putObj.ACL = aws.String(s.args.ACL)
	}
	if s.args.StorageClass != "" {
		putObj.StorageClass = aws.String(s.args.StorageClass)
	}

	_, err := s.client.PutObjectWithContext(ctx, &putObj)
	return err
}

func (s *S3Store) List(ctx context.Context, prefix string, callback func(ObjectInfo) error) error {
	var q = s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: s.key(prefix),
	}
	var listErr error
	err := s.client.ListObjectsV2PagesWithContext(ctx, &q, func(objs *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range objs.Contents {
			if strings.HasSuffix(*obj.Key, "/") {
				continue // Directory-like placeholder
			}
			var info = ObjectInfo{
				Key:     strings.TrimPrefix(*obj.Key, s.prefix),
				Size:    aws.Int64Value(obj.Size),
				ModTime: aws.TimeValue(obj.LastModified),
			}
			if err := callback(info); err != nil {
				listErr = err
				return false
			}
		}
		return true
	})
	if listErr != nil {
		return listErr
	}
	return err
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	var deleteObj = s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(key),
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &deleteObj)
	return err
}

// isS3NotFound reports whether err is a missing-object response.
func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
