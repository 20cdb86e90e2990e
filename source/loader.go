// Package source fetches the raw content of local and remote references.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/buildbuildio/cobble/common"
	"github.com/buildbuildio/cobble/metrics"
	"github.com/rs/zerolog"
)

// Document is the raw content of a reference
type Document struct {
	Content string
	Origin  Reference
}

// Loader fetches references over the injected transports. It never retries.
type Loader struct {
	files   FileTransport
	http    HTTPTransport
	logger  zerolog.Logger
	metrics *metrics.Collector
}

type Option func(*Loader)

func WithFileTransport(t FileTransport) Option {
	return func(l *Loader) {
		l.files = t
	}
}

func WithHTTPTransport(t HTTPTransport) Option {
	return func(l *Loader) {
		l.http = t
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(l *Loader) {
		l.metrics = c
	}
}

func NewLoader(options ...Option) *Loader {
	l := &Loader{logger: zerolog.Nop()}

	for _, optionFunc := range options {
		optionFunc(l)
	}

	if l.files == nil {
		l.files = OSFiles{}
	}

	if l.http == nil {
		l.http = NewHTTPClient()
	}

	return l
}

// Load fetches the content of ref. Failures are *cfgerrors.IOError carrying ref.
func (l *Loader) Load(ctx context.Context, ref Reference) (*Document, error) {
	start := time.Now()

	var (
		content []byte
		err     error
	)
	if ref.IsRemote() {
		content, err = l.fetch(ctx, ref)
	} else {
		content, err = l.read(ctx, ref)
	}

	if err == nil && !utf8.Valid(content) {
		err = &cfgerrors.IOError{
			Kind: cfgerrors.InvalidEncoding,
			Ref:  ref.String(),
			Err:  errors.New("content is not valid UTF-8"),
		}
	}

	l.metrics.ObserveFetch(ref.Kind().String(), err, time.Since(start))

	if err != nil {
		l.logger.Debug().Err(err).Str("ref", ref.String()).Msg("source load failed")
		return nil, err
	}

	l.logger.Debug().
		Str("ref", ref.String()).
		Str("transport", ref.Kind().String()).
		Int("bytes", len(content)).
		Msg("source loaded")

	return &Document{Content: string(content), Origin: ref}, nil
}

// LoadAll fetches every reference concurrently. The output order matches refs.
// The first failure cancels the remaining fetches and nothing is returned.
func (l *Loader) LoadAll(ctx context.Context, refs []Reference) ([]*Document, error) {
	return common.AsyncMap(ctx, refs, func(ctx context.Context, _ int, ref Reference) (*Document, error) {
		return l.Load(ctx, ref)
	})
}

func (l *Loader) read(ctx context.Context, ref Reference) ([]byte, error) {
	content, err := l.files.Read(ctx, ref.String())
	if err != nil {
		return nil, &cfgerrors.IOError{
			Kind: classify(err, cfgerrors.UndefinedIO),
			Ref:  ref.String(),
			Err:  err,
		}
	}
	return content, nil
}

func (l *Loader) fetch(ctx context.Context, ref Reference) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, &cfgerrors.IOError{Kind: cfgerrors.NetworkError, Ref: ref.String(), Err: err}
	}

	resp, err := l.http.Execute(req)
	if err != nil {
		return nil, &cfgerrors.IOError{
			Kind: classify(err, cfgerrors.NetworkError),
			Ref:  ref.String(),
			Err:  err,
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &cfgerrors.IOError{
			Kind: statusKind(resp.Status),
			Ref:  ref.String(),
			Err:  fmt.Errorf("response was not successful with status code: %d", resp.Status),
		}
	}

	return resp.Body, nil
}

func classify(err error, fallback cfgerrors.IOKind) cfgerrors.IOKind {
	var netErr net.Error

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfgerrors.NotFound
	case errors.Is(err, fs.ErrPermission):
		return cfgerrors.PermissionDenied
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return cfgerrors.Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return cfgerrors.Timeout
	}

	return fallback
}

func statusKind(status int) cfgerrors.IOKind {
	switch status {
	case http.StatusNotFound, http.StatusGone:
		return cfgerrors.NotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return cfgerrors.PermissionDenied
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return cfgerrors.Timeout
	}

	return cfgerrors.NetworkError
}
