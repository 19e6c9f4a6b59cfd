package appconfig

import (
	"fmt"
	"strings"
)

// S3Location is a bucket with an optional key prefix, written as "bucket/prefix".
type S3Location struct {
	Bucket string
	// Prefix has no leading slash and, when non-empty, a trailing slash.
	Prefix string
}

func (l *S3Location) Decode(value string) error {
	value = strings.TrimPrefix(strings.TrimSpace(value), "s3://")
	if value == "" {
		*l = S3Location{}
		return nil
	}
	bucket, prefix, _ := strings.Cut(value, "/")
	if bucket == "" {
		return fmt.Errorf("invalid s3 location: expect `bucket/prefix`, but got: %s", value)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	*l = S3Location{Bucket: bucket, Prefix: prefix}
	return nil
}

func (l S3Location) Enabled() bool {
	return l.Bucket != ""
}

func (l S3Location) String() string {
	return l.Bucket + "/" + l.Prefix
}
