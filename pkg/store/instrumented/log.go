// Package instrumented decorates a repository log with opentracing spans.
package instrumented

import (
	"context"
	"time"

	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// NewLog creates an instrumented repository log.
func NewLog(name string, tr opentracing.Tracer, w store.Log, options ...opentracing.StartSpanOption) store.Log {
	if tr == nil {
		tr = opentracing.GlobalTracer()
	}
	return &instrumentedLog{
		tr:      tr,
		w:       w,
		name:    name,
		options: options,
	}
}

type instrumentedLog struct {
	tr      opentracing.Tracer
	w       store.Log
	name    string
	options []opentracing.StartSpanOption
}

func (i *instrumentedLog) Close() error { return i.w.Close() }

func (i *instrumentedLog) Append(ctx context.Context, commit model.Commit, records []model.Record) (err error) {
	i.traced(ctx, "append commit "+commit.ID, func(span opentracing.Span) {
		span.SetTag("records", len(records))
		err = i.w.Append(ctx, commit, records)
	}, &err)
	return
}

func (i *instrumentedLog) Latest(ctx context.Context, key model.StringKey, asOf time.Time) (result model.Record, err error) {
	i.traced(ctx, "latest "+key.String(), func(_ opentracing.Span) { result, err = i.w.Latest(ctx, key, asOf) }, &err)
	return
}

func (i *instrumentedLog) Records(ctx context.Context, key model.SetKey, asOf time.Time) (result []model.Record, err error) {
	i.traced(ctx, "records "+key.String(), func(span opentracing.Span) {
		result, err = i.w.Records(ctx, key, asOf)
		span.SetTag("records", len(result))
	}, &err)
	return
}

func (i *instrumentedLog) Distinct(ctx context.Context, dim store.Dimension, filter store.Filter) (result []string, err error) {
	i.traced(ctx, "distinct "+string(dim), func(_ opentracing.Span) { result, err = i.w.Distinct(ctx, dim, filter) }, &err)
	return
}

func (i *instrumentedLog) CountGrouped(ctx context.Context, filter store.Filter, asOf time.Time) (result []store.GroupCount, err error) {
	i.traced(ctx, "count grouped", func(_ opentracing.Span) { result, err = i.w.CountGrouped(ctx, filter, asOf) }, &err)
	return
}

func (i *instrumentedLog) GetCommit(ctx context.Context, id string) (result model.Commit, err error) {
	i.traced(ctx, "get commit "+id, func(_ opentracing.Span) { result, err = i.w.GetCommit(ctx, id) }, &err)
	return
}

func (i *instrumentedLog) traced(ctx context.Context, name string, action func(opentracing.Span), err *error) {
	opts := append([]opentracing.StartSpanOption{}, i.options...)
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := i.tr.StartSpan(i.name+" "+name, opts...)
	defer span.Finish()

	action(span)
	if *err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", (*err).Error())
	}
}
