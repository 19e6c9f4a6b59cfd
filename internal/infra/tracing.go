package infra

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/pkg/bininfo"
)

const TracerName = "stageflow"

// Tracer returns the tracer pipeline steps record spans with. When tracing is
// disabled the global no-op tracer is returned.
func Tracer(lc fx.Lifecycle, conf *appconfig.Config) (trace.Tracer, error) {
	if !conf.TracingEnabled {
		return otel.Tracer(TracerName), nil
	}

	if err := os.MkdirAll(filepath.Dir(conf.TracingOutput), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create tracing output directory")
	}
	f, err := os.OpenFile(conf.TracingOutput, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open tracing output")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to create stdout trace exporter")
	}
	tracerProvider := tracesdk.NewTracerProvider(
		tracesdk.WithSyncer(exporter),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(TracerName),
			semconv.ServiceVersionKey.String(bininfo.Version),
			attribute.Bool("dev", conf.DevMode),
		)),
	)
	otel.SetTracerProvider(tracerProvider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := tracerProvider.Shutdown(ctx)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		},
	})

	log.Info().
		Str("evt.name", "infra.tracing.enabled").
		Str("output", conf.TracingOutput).
		Msg("tracing enabled")

	return tracerProvider.Tracer(TracerName), nil
}
