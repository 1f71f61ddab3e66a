package objectstore

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/require"
)

func TestParseS3URL(t *testing.T) {
	ep, err := url.Parse("s3://my-bucket/exports?region=us-east-1&acl=public-read&endpoint=http://localhost:9000")
	require.NoError(t, err)

	bucket, prefix, args, err := parseS3URL(ep)
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "exports/", prefix)
	require.Equal(t, S3Args{
		Region:   "us-east-1",
		ACL:      "public-read",
		Endpoint: "http://localhost:9000",
	}, args)

	ep, _ = url.Parse("s3://my-bucket/")
	_, prefix, _, err = parseS3URL(ep)
	require.NoError(t, err)
	require.Equal(t, "", prefix)

	ep, _ = url.Parse("s3://my-bucket/?unknown=1")
	_, _, _, err = parseS3URL(ep)
	require.Error(t, err)

	ep, _ = url.Parse("s3:///prefix/")
	_, _, _, err = parseS3URL(ep)
	require.ErrorContains(t, err, "no bucket")
}

func TestS3Config(t *testing.T) {
	var cfg = s3Config(S3Args{Region: "eu-west-2", Endpoint: "http://minio:9000"})
	require.Equal(t, "eu-west-2", aws.StringValue(cfg.Region))
	require.Equal(t, "http://minio:9000", aws.StringValue(cfg.Endpoint))
	require.True(t, aws.BoolValue(cfg.S3ForcePathStyle))

	cfg = s3Config(S3Args{})
	require.Nil(t, cfg.Region)
	require.False(t, aws.BoolValue(cfg.S3ForcePathStyle))
}

func TestS3StoreKeys(t *testing.T) {
	var s = &S3Store{bucket: "b", prefix: "exports/"}
	require.Equal(t, "exports/sha256/text/plain/abc", aws.StringValue(s.key("sha256/text/plain/abc")))
	require.Equal(t, "s3", s.Provider())
}

func TestIsS3NotFound(t *testing.T) {
	var tests = []struct {
		name     string
		err      error
		expected bool
	}{
		{"404 request failure", awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req"), true},
		{"NoSuchKey code", awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil), true},
		{"403 request failure", awserr.NewRequestFailure(awserr.New("Forbidden", "Forbidden", nil), http.StatusForbidden, "req"), false},
		{"generic error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, isS3NotFound(test.err))
		})
	}
}
