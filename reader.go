// Package cobble resolves gateway configuration documents into a single
// ConfigSet: every document is loaded, parsed and extension-resolved
// concurrently, then the results are folded with a right-biased merge.
package cobble

import (
	"context"
	"fmt"
	"time"

	"github.com/buildbuildio/cobble/common"
	"github.com/buildbuildio/cobble/config"
	"github.com/buildbuildio/cobble/descriptor"
	"github.com/buildbuildio/cobble/merger"
	"github.com/buildbuildio/cobble/metrics"
	"github.com/buildbuildio/cobble/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Loader fetches references, source.Loader satisfies it
type Loader interface {
	Load(ctx context.Context, ref source.Reference) (*source.Document, error)
	LoadAll(ctx context.Context, refs []source.Reference) ([]*source.Document, error)
}

// DescriptorResolver resolves the import closure of many proto roots,
// descriptor.Resolver satisfies it
type DescriptorResolver interface {
	ResolveAll(ctx context.Context, roots []string) (descriptor.Set, error)
}

type Reader struct {
	loader      Loader
	parser      config.Parser
	descriptors DescriptorResolver
	transformer ScriptTransformer
	merger      merger.Merger
	logger      zerolog.Logger
	metrics     *metrics.Collector
}

type ReaderOption func(*Reader)

func WithLoader(l Loader) ReaderOption {
	return func(r *Reader) {
		r.loader = l
	}
}

func WithParser(p config.Parser) ReaderOption {
	return func(r *Reader) {
		r.parser = p
	}
}

func WithDescriptorResolver(d DescriptorResolver) ReaderOption {
	return func(r *Reader) {
		r.descriptors = d
	}
}

func WithScriptTransformer(t ScriptTransformer) ReaderOption {
	return func(r *Reader) {
		r.transformer = t
	}
}

func WithMerger(m merger.Merger) ReaderOption {
	return func(r *Reader) {
		r.merger = m
	}
}

func WithLogger(logger zerolog.Logger) ReaderOption {
	return func(r *Reader) {
		r.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) ReaderOption {
	return func(r *Reader) {
		r.metrics = c
	}
}

func NewReader(options ...ReaderOption) *Reader {
	r := &Reader{logger: zerolog.Nop()}

	for _, optionFunc := range options {
		optionFunc(r)
	}

	if r.loader == nil {
		r.loader = source.NewLoader(
			source.WithLogger(r.logger),
			source.WithMetrics(r.metrics),
		)
	}

	if r.parser == nil {
		var p config.FormatParser
		r.parser = p
	}

	if r.descriptors == nil {
		r.descriptors = descriptor.NewResolver(
			r.loader,
			descriptor.WithLogger(r.logger),
			descriptor.WithMetrics(r.metrics),
		)
	}

	if r.transformer == nil {
		var t EsbuildTransformer
		r.transformer = t
	}

	if r.merger == nil {
		var m merger.RightBiasedMergerFunc
		r.merger = m
	}

	return r
}

// Read resolves a single document
func (r *Reader) Read(ctx context.Context, path string) (*config.ConfigSet, error) {
	return r.ReadAll(ctx, path)
}

// ReadAll resolves every document and folds them in the given order, later
// documents take precedence. Any failure aborts the whole call and no set is
// returned.
func (r *Reader) ReadAll(ctx context.Context, paths ...string) (*config.ConfigSet, error) {
	start := time.Now()
	logger := r.logger.With().Str("resolution_id", uuid.NewString()).Logger()

	res, err := r.readAll(ctx, logger, paths)
	elapsed := time.Since(start)

	r.metrics.ObserveResolution(err, elapsed)

	if err != nil {
		logger.Debug().Err(err).Strs("files", paths).Msg("configuration resolution failed")
		return nil, err
	}

	logger.Info().
		Strs("files", paths).
		Int("types", len(res.Config.Types)).
		Int("descriptors", len(res.Extensions.Descriptors)).
		Dur("elapsed", elapsed).
		Msg("configuration resolved")

	return res, nil
}

func (r *Reader) readAll(ctx context.Context, logger zerolog.Logger, paths []string) (*config.ConfigSet, error) {
	refs := lo.Map(paths, func(p string, _ int) source.Reference {
		return source.Classify(p)
	})

	// unsupported documents are rejected before any I/O
	formats := make([]config.Format, len(refs))
	for i, ref := range refs {
		format, err := config.DetectFormat(ref)
		if err != nil {
			return nil, err
		}
		formats[i] = format
	}

	docs, err := r.loader.LoadAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}

	sets, err := common.AsyncMap(ctx, docs, func(ctx context.Context, i int, doc *source.Document) (*config.ConfigSet, error) {
		cfg, err := r.parser.Parse(formats[i], doc.Origin.String(), doc.Content)
		if err != nil {
			return nil, fmt.Errorf("unable to parse %s: %w", doc.Origin, err)
		}

		set, err := r.Resolve(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve %s: %w", doc.Origin, err)
		}

		logger.Debug().
			Str("ref", doc.Origin.String()).
			Int("descriptors", len(set.Extensions.Descriptors)).
			Msg("document resolved")

		return set, nil
	})
	if err != nil {
		return nil, err
	}

	res, err := r.merger.Merge(sets)
	if err != nil {
		return nil, fmt.Errorf("unable to merge configuration: %w", err)
	}

	return res, nil
}
