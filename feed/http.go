// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/juju/errors"
	jujuhttp "github.com/juju/http/v2"
	"github.com/juju/loggo"
	"gopkg.in/httprequest.v1"
)

var logger = loggo.GetLogger("feedmigrate.feed")

// MIME represents a MIME type for identifying requests and response bodies.
type MIME = string

const (
	// JSON represents the MIME type for JSON request and response types.
	JSON MIME = "application/json"
)

// Transport defines a type for making the actual request.
type Transport interface {
	// Do performs the *http.Request and returns a *http.Response or an
	// error if it fails to construct the transport.
	Do(*http.Request) (*http.Response, error)
}

// DefaultHTTPTransport creates a new HTTPTransport that records the
// requests it makes at trace level.
func DefaultHTTPTransport() Transport {
	return jujuhttp.NewClient(
		jujuhttp.WithRequestRecorder(loggingRequestRecorder{}),
		jujuhttp.WithLogger(logger.Child("http")),
	)
}

type loggingRequestRecorder struct{}

// Record an outgoing request which produced an http.Response.
func (loggingRequestRecorder) Record(method string, url *url.URL, res *http.Response, rtt time.Duration) {
	if logger.IsTraceEnabled() {
		logger.Tracef("%s %s -> %s in %v", method, url, res.Status, rtt)
	}
}

// RecordError an outgoing request which returned back an error.
func (loggingRequestRecorder) RecordError(method string, url *url.URL, err error) {
	if logger.IsTraceEnabled() {
		logger.Tracef("%s %s -> %v", method, url, err)
	}
}

// Credentials carries the secrets used against one feed. The zero
// value means anonymous access.
type Credentials struct {
	Username string
	Password string
	APIKey   string
}

// IsZero reports whether no credentials were supplied.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// Header returns an HTTP header carrying the credentials. The header
// is empty for anonymous access.
func (c Credentials) Header() http.Header {
	if c.Username == "" && c.Password == "" {
		return make(http.Header)
	}
	return jujuhttp.BasicAuthHeader(c.Username, c.Password)
}

// APIRequester creates a wrapper around the transport to allow for
// better error handling.
type APIRequester struct {
	transport Transport
}

// NewAPIRequester creates a new http.Client for making requests to a
// feed.
func NewAPIRequester(transport Transport) *APIRequester {
	return &APIRequester{
		transport: transport,
	}
}

// Do performs the *http.Request and returns a *http.Response or an
// error if the response is unusable. Responses outside the 2xx range
// and responses whose body is not JSON are rejected here, so callers
// only ever see well formed documents.
func (t *APIRequester) Do(req *http.Request) (*http.Response, error) {
	if logger.IsTraceEnabled() {
		if data, err := httputil.DumpRequest(req, true); err == nil {
			logger.Tracef("%s request %s", req.Method, data)
		} else {
			logger.Tracef("%s request DumpRequest error %s", req.Method, err.Error())
		}
	}

	resp, err := t.transport.Do(req)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if logger.IsTraceEnabled() {
		if data, err := httputil.DumpResponse(resp, true); err == nil {
			logger.Tracef("%s response %s", req.Method, data)
		} else {
			logger.Tracef("%s response DumpResponse error %s", req.Method, err.Error())
		}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode <= http.StatusNoContent {
		return resp, nil
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NotFoundf("feed resource %q", req.URL.String())
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Errorf(`server error %q`, req.URL.String())
	}
	return nil, errors.Errorf("unexpected status %q from %q", resp.Status, req.URL.String())
}

// RESTResponse abstracts away the underlying response from the
// implementation.
type RESTResponse struct {
	StatusCode int
}

// RESTClient defines a type for making requests to a feed.
type RESTClient interface {
	// Get performs GET requests to a given URL, unmarshalling the JSON
	// response into result.
	Get(context.Context, string, interface{}) (RESTResponse, error)
}

// HTTPRESTClient represents a RESTClient that expects to interact with
// an HTTP transport.
type HTTPRESTClient struct {
	transport Transport
	headers   http.Header
}

// NewRESTClient creates a new HTTPRESTClient. The credential headers,
// if any, are attached to every request.
func NewRESTClient(transport Transport, creds Credentials) *HTTPRESTClient {
	return &HTTPRESTClient{
		transport: NewAPIRequester(transport),
		headers:   creds.Header(),
	}
}

// Get makes a GET request to the given URL, parsing the result as JSON
// into the given result value, which should be a pointer to the
// expected data, but may be nil if no result is desired.
func (c *HTTPRESTClient) Get(ctx context.Context, rawURL string, result interface{}) (RESTResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return RESTResponse{}, errors.Annotate(err, "can not make new request")
	}

	headers := make(http.Header)
	headers.Set("Accept", JSON)
	req.Header = c.composeHeaders(headers)

	resp, err := c.transport.Do(req)
	if err != nil {
		return RESTResponse{}, errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httprequest.UnmarshalJSONResponse(resp, result); err != nil {
		return RESTResponse{}, errors.Annotatef(err, "parsing response from %q", rawURL)
	}

	return RESTResponse{
		StatusCode: resp.StatusCode,
	}, nil
}

// composeHeaders creates a new set of headers from scratch.
func (c *HTTPRESTClient) composeHeaders(headers http.Header) http.Header {
	result := make(http.Header)
	for k, vs := range headers {
		for _, v := range vs {
			result.Add(k, v)
		}
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			result.Add(k, v)
		}
	}
	return result
}
