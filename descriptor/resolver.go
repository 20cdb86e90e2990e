package descriptor

import (
	"context"
	"fmt"

	"github.com/buildbuildio/cobble/common"
	"github.com/buildbuildio/cobble/metrics"
	"github.com/buildbuildio/cobble/source"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	originWellKnown = "well_known"
	originSource    = "source"
)

// Fetcher loads the content of a reference, source.Loader satisfies it
type Fetcher interface {
	Load(ctx context.Context, ref source.Reference) (*source.Document, error)
}

// Resolver computes the import closure of protobuf files
type Resolver struct {
	fetcher Fetcher
	catalog Catalog
	parser  Parser
	logger  zerolog.Logger
	metrics *metrics.Collector
}

type Option func(*Resolver)

// WithCatalog replaces the well-known catalog
func WithCatalog(c Catalog) Option {
	return func(r *Resolver) {
		r.catalog = c
	}
}

func WithParser(p Parser) Option {
	return func(r *Resolver) {
		r.parser = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) {
		r.metrics = c
	}
}

func NewResolver(fetcher Fetcher, options ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  zerolog.Nop(),
	}

	for _, optionFunc := range options {
		optionFunc(r)
	}

	if r.catalog == nil {
		r.catalog = WellKnown()
	}

	if r.parser == nil {
		r.parser = ProtoParser{}
	}

	return r
}

// Resolve returns root together with everything it transitively imports.
// Imports are keyed by the identifier they are declared with, root is keyed
// by its own path. Any failure aborts the whole traversal.
func (r *Resolver) Resolve(ctx context.Context, root string) (Set, error) {
	rootRecord, err := r.lookup(ctx, root)
	if err != nil {
		return nil, err
	}

	visited := make(Set)
	queue := append([]string(nil), rootRecord.Imports...)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := queue[0]
		queue = queue[1:]

		if _, ok := visited[name]; ok {
			continue
		}

		rec, err := r.lookup(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving imports of %s: %w", root, err)
		}

		visited[name] = rec
		queue = append(queue, rec.Imports...)
	}

	visited[root] = rootRecord

	r.logger.Debug().
		Str("descriptor", root).
		Int("files", len(visited)).
		Msg("descriptor resolved")

	return visited, nil
}

// ResolveAll resolves the distinct roots concurrently and unions the results
// once every root is done
func (r *Resolver) ResolveAll(ctx context.Context, roots []string) (Set, error) {
	sets, err := common.AsyncMap(ctx, lo.Uniq(roots), func(ctx context.Context, _ int, root string) (Set, error) {
		return r.Resolve(ctx, root)
	})
	if err != nil {
		return nil, err
	}

	res := make(Set)
	for _, set := range sets {
		res = res.Union(set)
	}

	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, name string) (*Record, error) {
	if rec, ok := r.catalog.Lookup(name); ok {
		r.metrics.ObserveDescriptorLookup(originWellKnown)
		return rec, nil
	}

	doc, err := r.fetcher.Load(ctx, source.Classify(name))
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", name, err)
	}

	file, err := r.parser.Parse(name, doc.Content)
	if err != nil {
		return nil, err
	}

	r.metrics.ObserveDescriptorLookup(originSource)

	return NewRecord(name, file), nil
}
