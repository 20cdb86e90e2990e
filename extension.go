package cobble

import (
	"context"
	"fmt"

	"github.com/buildbuildio/cobble/config"
	"github.com/buildbuildio/cobble/descriptor"
	"github.com/buildbuildio/cobble/source"
	"golang.org/x/sync/errgroup"
)

// Resolve turns a parsed config into a self-contained set: the server script
// is inlined and every proto path used by a field is resolved with its
// imports. Both passes run concurrently, cfg is left untouched.
func (r *Reader) Resolve(ctx context.Context, cfg *config.Config) (*config.ConfigSet, error) {
	var (
		script      *config.Script
		descriptors descriptor.Set
	)

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		script, err = r.inlineScript(egctx, cfg.Server.Script)
		return err
	})

	eg.Go(func() error {
		var err error
		descriptors, err = r.descriptors.ResolveAll(egctx, cfg.ProtoPaths())
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if len(descriptors) == 0 {
		descriptors = nil
	}

	resolved := *cfg
	resolved.Server.Script = script

	return &config.ConfigSet{
		Config:     &resolved,
		Extensions: config.Extensions{Descriptors: descriptors},
	}, nil
}

func (r *Reader) inlineScript(ctx context.Context, script *config.Script) (*config.Script, error) {
	if script == nil || script.IsInline() {
		return script, nil
	}

	ref := source.Classify(script.Path.Src)

	doc, err := r.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("unable to load script: %w", err)
	}

	code, err := r.transformer.Transform(ref, doc.Content)
	if err != nil {
		return nil, err
	}

	return config.InlineScript(code, script.Path.Timeout), nil
}
