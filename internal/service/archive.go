package service

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/pkg/archiver"
	"exusiai.dev/stageflow/internal/pkg/flog"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

const (
	RealmEvents = "events"
	RealmModel  = "model"
)

// Archive uploads the outputs of a run to the configured bucket.
type Archive struct {
	Config *appconfig.Config

	objects archiver.ObjectAPI
}

func NewArchive(conf *appconfig.Config, s3Client *s3.Client) *Archive {
	a := &Archive{Config: conf}
	if s3Client != nil {
		a.objects = s3Client
	}
	return a
}

func (s *Archive) Enabled() bool {
	return s.objects != nil && s.Config.ArchiveS3.Enabled()
}

func (s *Archive) archiver(runID, realm string) *archiver.Archiver {
	return &archiver.Archiver{
		S3Client:  s.objects,
		S3Bucket:  s.Config.ArchiveS3.Bucket,
		S3Prefix:  s.Config.ArchiveS3.Prefix,
		RealmName: realm,
		RunID:     runID,
	}
}

// ArchiveRun writes the enhanced events and the model outputs of a run as two
// gzip JSONL objects under the run id carried by ctx. An existing archive of
// the run is kept.
func (s *Archive) ArchiveRun(ctx context.Context, res *Result) error {
	if !s.Enabled() {
		return nil
	}
	id, ok := flog.IDFromCtx(ctx)
	if !ok {
		return flowerr.ErrInternalError.Msg("archive requires a run id in context")
	}
	runID := id.String()

	eventsArchiver := s.archiver(runID, RealmEvents)
	modelArchiver := s.archiver(runID, RealmModel)
	var prepared []*archiver.Archiver
	for _, a := range []*archiver.Archiver{eventsArchiver, modelArchiver} {
		if err := a.Prepare(ctx); err != nil {
			for _, p := range prepared {
				_ = p.Cleanup()
			}
			if errors.Is(err, archiver.ErrFileAlreadyExists) {
				log.Info().
					Str("evt.name", "archive.run").
					Str("realm", a.RealmName).
					Str("run", runID).
					Msg("already archived")
				return nil
			}
			return errors.Wrapf(err, "failed to prepare %s archiver", a.RealmName)
		}
		prepared = append(prepared, a)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return eventsArchiver.Collect(ctx)
	})
	eg.Go(func() error {
		return modelArchiver.Collect(ctx)
	})

	eg.Go(func() error {
		ch := eventsArchiver.WriterCh()
		defer close(ch)
		for _, ev := range res.Log.Events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	eg.Go(func() error {
		ch := modelArchiver.WriterCh()
		defer close(ch)
		items := []interface{}{res.Options, res.Model, res.Evaluation}
		for i := range res.Activities {
			items = append(items, &res.Activities[i])
		}
		for _, item := range items {
			select {
			case ch <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	err := eg.Wait()
	log.Info().
		Str("evt.name", "archive.finished").
		Str("run", runID).
		Str("events", eventsArchiver.Key()).
		Str("model", modelArchiver.Key()).
		Err(err).
		Msg("finished archiving")
	return err
}
