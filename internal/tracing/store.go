package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/rulebook/internal/store"
)

// Store wraps a store.Store with a span per Load and Save.
type Store struct {
	next   store.Store
	tracer trace.Tracer
	driver string
}

var _ store.Store = (*Store)(nil)

// WrapStore returns next unchanged when tracer is nil.
func WrapStore(next store.Store, tracer trace.Tracer, driver string) store.Store {
	if tracer == nil {
		return next
	}
	return &Store{next: next, tracer: tracer, driver: driver}
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) ([]store.Record, error) {
	ctx, span := s.tracer.Start(ctx, SpanStoreLoad, trace.WithAttributes(attribute.String(AttrStoreDriver, s.driver)))
	defer span.End()

	records, err := s.next.Load(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(AttrRulesCount, len(records)))
	span.SetStatus(codes.Ok, "")
	return records, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, records []store.Record) error {
	ctx, span := s.tracer.Start(ctx, SpanStoreSave, trace.WithAttributes(
		attribute.String(AttrStoreDriver, s.driver),
		attribute.Int(AttrRulesCount, len(records)),
	))
	defer span.End()

	if err := s.next.Save(ctx, records); err != nil {
		recordError(span, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.next.Close()
}

// StartCommand opens the root span of a CLI command.
func StartCommand(ctx context.Context, tracer trace.Tracer, name string, args []string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanCommandPrefix+name, trace.WithAttributes(
		attribute.String(AttrCommandName, name),
		attribute.StringSlice(AttrCommandArgs, args),
	))
}

// EndCommand records the command outcome and ends span.
func EndCommand(span trace.Span, err error) {
	if err != nil {
		recordError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
}
