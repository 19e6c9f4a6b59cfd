package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flog"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string]int
}

func (m *memoryObjects) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(params.Key)]; !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadObjectOutput{LastModified: aws.Time(time.Now())}, nil
}

func (m *memoryObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(params.Key)] = len(b)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveRun(t *testing.T) {
	conf := testConfig()
	conf.ArchiveS3 = appconfig.S3Location{Bucket: "bucket", Prefix: "runs/"}
	objects := &memoryObjects{objects: make(map[string]int)}
	a := &Archive{Config: conf, objects: objects}
	require.True(t, a.Enabled())

	res, err := newTestPipeline().Run(context.Background(), repeatingLog(), model.DefaultPipelineOptions())
	require.NoError(t, err)

	id := xid.New()
	ctx := flog.CtxWithID(context.Background(), id)
	events := "runs/" + id.String() + "/events.jsonl.gz"

	require.NoError(t, a.ArchiveRun(ctx, res))
	assert.Contains(t, objects.objects, events)
	assert.Contains(t, objects.objects, "runs/"+id.String()+"/model.jsonl.gz")
	assert.Greater(t, objects.objects[events], 0)

	// a second archive of the same run leaves the objects alone
	require.NoError(t, a.ArchiveRun(ctx, res))
	assert.Len(t, objects.objects, 2)

	// the run id comes from the context
	err = a.ArchiveRun(context.Background(), res)
	assert.ErrorIs(t, err, flowerr.ErrInternalError)
	assert.Len(t, objects.objects, 2)
}
