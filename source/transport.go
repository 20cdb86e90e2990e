package source

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// FileTransport reads local references
type FileTransport interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// HTTPTransport executes requests for remote references. Retries, if any,
// belong to the implementation.
type HTTPTransport interface {
	Execute(req *http.Request) (*Response, error)
}

type Response struct {
	Status int
	Body   []byte
}

// OSFiles reads from the process filesystem
type OSFiles struct{}

var _ FileTransport = OSFiles{}

func (OSFiles) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// FSFiles reads from any fs.FS, paths are cleaned to the fs.FS form
type FSFiles struct {
	FS fs.FS
}

var _ FileTransport = FSFiles{}

func (f FSFiles) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(f.FS, strings.TrimPrefix(path.Clean(name), "/"))
}

// RequestMiddleware are functions can be passed to HTTPClient to affect outgoing requests
type RequestMiddleware func(*http.Request) error

// HTTPClient is the default HTTPTransport
type HTTPClient struct {
	client  *http.Client
	mdwares []RequestMiddleware
}

var _ HTTPTransport = &HTTPClient{}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{client: &http.Client{}}
}

// WithHTTPClient lets the user configure the client to use when making network requests
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.client = client
	return c
}

// WithMiddlewares lets the user assign middlewares to the client
func (c *HTTPClient) WithMiddlewares(mwares []RequestMiddleware) *HTTPClient {
	c.mdwares = mwares
	return c
}

func (c *HTTPClient) Execute(request *http.Request) (*Response, error) {
	// we could have any number of middlewares that we have to go through so
	for _, mdware := range c.mdwares {
		if err := mdware(request); err != nil {
			return nil, err
		}
	}

	client := c.client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{Status: resp.StatusCode, Body: body}, nil
}
