package archiver

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FileExt                = ".jsonl.gz"
	LocalTempDirPattern    = "stageflow-archiver-*"
	ArchiverChanBufferSize = 64
	UploadAttempts         = 3
)

var ErrFileAlreadyExists = errors.New("file already exists")

var uploadRetryDelay = time.Second

// ObjectAPI is the part of the S3 client the archiver uses.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver streams items of one realm of one run into a gzip JSONL file and
// uploads it to S3.
type Archiver struct {
	S3Client ObjectAPI
	S3Bucket string

	// S3Prefix is for the files in the bucket with no leading slash but optionally (typically) with trailing slash
	// e.g. "runs/" or simply "" (empty string)
	S3Prefix string

	RealmName string

	// RunID names the archive file of the run.
	RunID string

	localTempDir string
	writerCh     chan interface{}
	logger       *zerolog.Logger
}

func (a *Archiver) initLogger() {
	if a.logger == nil {
		logger := log.With().
			Str("module", "archiver").
			Str("realm", a.RealmName).
			Str("run", a.RunID).
			Logger()
		a.logger = &logger
	}
}

func (a *Archiver) canonicalFilePath() string {
	return a.RunID + "/" + a.RealmName + FileExt
}

// Key is the object key the archive is uploaded to.
func (a *Archiver) Key() string {
	return a.S3Prefix + a.canonicalFilePath()
}

func (a *Archiver) Prepare(ctx context.Context) error {
	a.initLogger()

	a.logger.Info().Msg("preparing archiver")
	a.writerCh = make(chan interface{}, ArchiverChanBufferSize)

	if err := a.assertS3FileNonExistence(ctx); err != nil {
		return errors.Wrap(err, "failed to assertFileNonExistence")
	}
	a.logger.Trace().Msg("asserted S3 file non-existence")

	if err := a.createLocalTempDir(); err != nil {
		return errors.Wrap(err, "failed to createLocalTempDir")
	}
	a.logger.Trace().Str("localTempDir", a.localTempDir).Msg("created local temp dir")

	return nil
}

func (a *Archiver) assertS3FileNonExistence(ctx context.Context) error {
	key := a.Key()
	input := &s3.HeadObjectInput{
		Bucket: aws.String(a.S3Bucket),
		Key:    aws.String(key),
	}
	object, err := a.S3Client.HeadObject(ctx, input)
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			if ae.ErrorCode() == "NotFound" {
				return nil
			}
		}
		return errors.Wrap(err, "failed to invoke HeadObject")
	}
	return errors.Wrap(ErrFileAlreadyExists, fmt.Sprintf("file \"%s\" already exists in s3 with LastModified \"%s\"", key, aws.ToTime(object.LastModified).Format(time.RFC3339)))
}

func (a *Archiver) createLocalTempDir() error {
	dir, err := os.MkdirTemp(os.TempDir(), LocalTempDirPattern)
	if err != nil {
		return errors.Wrap(err, "failed to create temporary directory")
	}

	a.localTempDir = dir
	return nil
}

func (a *Archiver) ensureFileBaseDir(filePath string) error {
	dir := path.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}
	return nil
}

// Caller MUST close the channel when it's done
func (a *Archiver) WriterCh() chan interface{} {
	return a.writerCh
}

// Caller MUST use WriterCh() to get the channel
// and ensure necessary data is sent to the channel
// before calling this function. Moreover, caller should
// ensure that Collect runs only once and runs on a different
// goroutine from the one that sends data to the channel to avoid
// deadlocks.
// The local temp dir is removed whether or not the upload succeeded.
func (a *Archiver) Collect(ctx context.Context) (err error) {
	defer func() {
		if cerr := a.Cleanup(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to Cleanup")
		}
	}()

	if err := a.archiveToLocalFile(ctx); err != nil {
		return errors.Wrap(err, "failed to archiveToLocalFile")
	}
	a.logger.Trace().Msg("archived to local file")

	if err := a.uploadToS3(ctx); err != nil {
		return errors.Wrap(err, "failed to uploadToS3")
	}
	a.logger.Trace().Msg("uploaded to S3")
	return nil
}

func (a *Archiver) archiveToLocalFile(ctx context.Context) error {
	localTempFilePath := path.Join(a.localTempDir, a.canonicalFilePath())
	if err := a.ensureFileBaseDir(localTempFilePath); err != nil {
		return errors.Wrap(err, "failed to ensureFileBaseDir")
	}
	a.logger.Trace().Str("localTempFilePath", localTempFilePath).Msg("ensured file base dir")

	file, err := os.OpenFile(localTempFilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	jsonEncoder := json.NewEncoder(gzipWriter)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-a.writerCh:
			if !ok {
				a.logger.Trace().Msg("writerCh closed, exiting archiveToLocalFile (closing gzipWriter and file)")
				return nil
			}
			if err := jsonEncoder.Encode(item); err != nil {
				return errors.Wrap(err, "failed to encode item")
			}
		}
	}
}

func (a *Archiver) uploadToS3(ctx context.Context) error {
	localTempFilePath := path.Join(a.localTempDir, a.canonicalFilePath())

	return retry.Do(
		func() error {
			file, err := os.Open(localTempFilePath)
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "failed to open file"))
			}
			defer file.Close()

			if _, err := a.S3Client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:            aws.String(a.S3Bucket),
				Key:               aws.String(a.Key()),
				Body:              file,
				ContentType:       aws.String("application/x-ndjson"),
				ContentEncoding:   aws.String("gzip"),
				ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
			}); err != nil {
				return errors.Wrap(err, "failed to invoke PutObject")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(UploadAttempts),
		retry.Delay(uploadRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.logger.Warn().Err(err).Uint("attempt", n+1).Msg("upload failed, retrying")
		}),
	)
}

func (a *Archiver) Cleanup() error {
	if err := os.RemoveAll(a.localTempDir); err != nil {
		return errors.Wrap(err, "failed to remove temporary directory")
	}
	return nil
}
