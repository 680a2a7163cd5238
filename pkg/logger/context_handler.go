package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor returns an attribute carried by ctx, such as the request
// id or the resolved tenant.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds extracted attributes to each record at Handle time, so
// values bound to the context after the logger was built still show up. A
// key the record already carries is not added again: a job that logs
// tenant_id explicitly keeps its own value.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

func newContextHandler(h slog.Handler, extractors []ContextExtractor) slog.Handler {
	var kept []ContextExtractor
	for _, extract := range extractors {
		if extract != nil {
			kept = append(kept, extract)
		}
	}
	if len(kept) == 0 {
		return h
	}
	return &contextHandler{Handler: h, extractors: kept}
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	var seen map[string]struct{}
	for _, extract := range h.extractors {
		attr, ok := extract(ctx)
		if !ok || attr.Key == "" {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, rec.NumAttrs()+len(h.extractors))
			rec.Attrs(func(a slog.Attr) bool {
				seen[a.Key] = struct{}{}
				return true
			})
		}
		if _, dup := seen[attr.Key]; dup {
			continue
		}
		seen[attr.Key] = struct{}{}
		rec.AddAttrs(attr)
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
