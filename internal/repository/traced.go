package repository

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sakif/sourcebin/internal/apperror"
)

var tracer = otel.Tracer("sourcebin-repository")

type traced struct {
	next    KVStore
	backend string
}

// Traced wraps store so every call opens a span named after backend. With no
// tracer provider installed the spans are no-ops.
func Traced(store KVStore, backend string) KVStore {
	return &traced{next: store, backend: backend}
}

func (t *traced) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, t.backend+".get",
		trace.WithAttributes(
			attribute.String("kv.backend", t.backend),
			attribute.String("kv.key", key),
		),
	)
	defer span.End()

	data, err := t.next.Get(ctx, key)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		span.SetAttributes(attribute.Bool("kv.hit", false))
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetAttributes(
			attribute.Bool("kv.hit", true),
			attribute.Int("kv.size_bytes", len(data)),
		)
	}
	return data, err
}

func (t *traced) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, t.backend+".set",
		trace.WithAttributes(
			attribute.String("kv.backend", t.backend),
			attribute.String("kv.key", key),
			attribute.Int("kv.size_bytes", len(value)),
		),
	)
	defer span.End()

	if err := t.next.Set(ctx, key, value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *traced) Close() error {
	return t.next.Close()
}
