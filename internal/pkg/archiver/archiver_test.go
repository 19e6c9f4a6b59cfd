package archiver

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPuts int
	puts     int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
	}
	return &s3.HeadObjectOutput{LastModified: aws.Time(time.Now())}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		return nil, errors.New("transient failure")
	}
	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) lines(t *testing.T, key string) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	require.True(t, ok, "object %s missing", key)

	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func archive(ctx context.Context, a *Archiver, items ...interface{}) error {
	if err := a.Prepare(ctx); err != nil {
		return err
	}
	go func() {
		ch := a.WriterCh()
		for _, item := range items {
			ch <- item
		}
		close(ch)
	}()
	return a.Collect(ctx)
}

func TestArchiverCollect(t *testing.T) {
	objects := newFakeObjects()
	a := &Archiver{S3Client: objects, S3Bucket: "bucket", S3Prefix: "runs/", RealmName: "events", RunID: "run1"}
	assert.Equal(t, "runs/run1/events.jsonl.gz", a.Key())

	err := archive(context.Background(), a, map[string]int{"a": 1}, map[string]int{"b": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, objects.lines(t, a.Key()))
}

func TestArchiverRefusesExistingObject(t *testing.T) {
	objects := newFakeObjects()
	objects.objects["run1/model.jsonl.gz"] = []byte{}

	a := &Archiver{S3Client: objects, S3Bucket: "bucket", RealmName: "model", RunID: "run1"}
	err := a.Prepare(context.Background())
	assert.ErrorIs(t, err, ErrFileAlreadyExists)
}

func TestArchiverRetriesUpload(t *testing.T) {
	objects := newFakeObjects()
	objects.failPuts = 1

	a := &Archiver{S3Client: objects, S3Bucket: "bucket", RealmName: "model", RunID: "run2"}
	require.NoError(t, archive(context.Background(), a, "x"))
	assert.Equal(t, 2, objects.puts)
	assert.Equal(t, []string{`"x"`}, objects.lines(t, a.Key()))
}

func TestArchiverCleansUpAfterFailedUpload(t *testing.T) {
	delay := uploadRetryDelay
	uploadRetryDelay = time.Millisecond
	t.Cleanup(func() { uploadRetryDelay = delay })

	objects := newFakeObjects()
	objects.failPuts = UploadAttempts

	a := &Archiver{S3Client: objects, S3Bucket: "bucket", RealmName: "events", RunID: "run3"}
	err := archive(context.Background(), a, "x")
	require.Error(t, err)
	assert.Equal(t, UploadAttempts, objects.puts)

	_, statErr := os.Stat(a.localTempDir)
	assert.True(t, os.IsNotExist(statErr), "temp dir %s left behind", a.localTempDir)
}
