// Package wcs implements a minimal client for OGC Web Coverage Service
// endpoints speaking protocol version 2.0.1. It covers the two read-only
// operations the harvesting subsystem needs: GetCapabilities and
// DescribeCoverage.
package wcs

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/schema"
	"github.com/motemen/go-loghttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every remote read unless overridden via SetTimeout
// or the process-wide configuration.
const DefaultTimeout = 60 * time.Second

// ErrUnreachable is the cause of every error returned when the remote
// endpoint does not respond within the timeout or returns a non-conformant
// capabilities document. Callers are expected to treat it as "service
// unavailable", never as fatal.
var ErrUnreachable = errors.New("wcs: remote endpoint unreachable")

// Client is a WCS 2.0.1 client bound to a single endpoint.
//
// A Client holds no connection state: constructing one is cheap and
// performs no I/O. Every metadata read re-fetches from the remote endpoint,
// trading network cost for always-fresh data.
type Client struct {
	// BaseURL is the canonical endpoint URL with the operation parameters
	// stripped (see CleanURL).
	BaseURL *url.URL

	// Version is the protocol version used on every request.
	Version string

	client  *http.Client
	logger  logrus.FieldLogger
	encoder *schema.Encoder
}

// ClientOpt are options for New.
type ClientOpt func(*Client)

// SetTimeout sets the read timeout applied to every remote request. It has
// no effect when New is given a non-nil http.Client.
func SetTimeout(timeout time.Duration) ClientOpt {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// SetLogger sets the logger used for debug-level HTTP traffic logging.
func SetLogger(logger logrus.FieldLogger) ClientOpt {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a new WCS client given a user supplied endpoint URL. The URL
// is normalized first; a version carried in its query string takes
// precedence over DefaultVersion. If a nil httpClient is provided, a new
// http.Client will be used with DefaultTimeout.
func New(httpClient *http.Client, rawURL string, opts ...ClientOpt) (*Client, error) {
	cleaned, _, version, _, err := CleanURL(rawURL)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "parsing cleaned endpoint URL")
	}

	c := &Client{
		BaseURL: u,
		Version: version,
		client:  httpClient,
		logger:  logrus.StandardLogger(),
		encoder: schema.NewEncoder(),
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client.Transport == nil {
		c.client.Transport = &loghttp.Transport{
			LogRequest: func(req *http.Request) {
				c.logger.WithFields(logrus.Fields{
					"method": req.Method,
					"url":    req.URL.String(),
				}).Debug("WCS request")
			},
			LogResponse: func(resp *http.Response) {
				c.logger.WithFields(logrus.Fields{
					"url":    resp.Request.URL.String(),
					"status": resp.StatusCode,
				}).Debug("WCS response")
			},
		}
	}

	return c, nil
}

// URL returns the canonical endpoint URL.
func (c *Client) URL() string {
	return c.BaseURL.String()
}

type getCapabilitiesRequest struct {
	Service string `schema:"service"`
	Version string `schema:"version"`
	Request string `schema:"request"`
}

type describeCoverageRequest struct {
	Service    string `schema:"service"`
	Version    string `schema:"version"`
	Request    string `schema:"request"`
	CoverageID string `schema:"coverageId"`
}

// GetCapabilities fetches and decodes the endpoint's capabilities document.
// This is a blocking network call bounded by the configured timeout. Errors
// caused by an unresponsive endpoint or a non-conformant document have
// ErrUnreachable as their cause.
func (c *Client) GetCapabilities(ctx context.Context) (*Capabilities, error) {
	body, err := c.get(ctx, &getCapabilitiesRequest{
		Service: "WCS",
		Version: c.Version,
		Request: "GetCapabilities",
	})
	if err != nil {
		return nil, err
	}

	doc := &capabilitiesDoc{}
	if err := xml.Unmarshal(body, doc); err != nil {
		return nil, errors.Wrapf(ErrUnreachable, "non-conformant capabilities document: %v", err)
	}
	caps := doc.toCapabilities()
	if caps.Version == "" {
		caps.Version = c.Version
		caps.Identification.Version = c.Version
	}
	return caps, nil
}

// DescribeCoverage fetches the raw DescribeCoverage document for one
// coverage. The response is returned undecoded so callers can scan it for
// elements the capabilities mapping does not carry.
func (c *Client) DescribeCoverage(ctx context.Context, coverageID string) ([]byte, error) {
	return c.get(ctx, &describeCoverageRequest{
		Service:    "WCS",
		Version:    c.Version,
		Request:    "DescribeCoverage",
		CoverageID: coverageID,
	})
}

// get issues a single GET request with the encoded operation parameters
// merged into the endpoint's remaining query string.
func (c *Client) get(ctx context.Context, params interface{}) ([]byte, error) {
	q := c.BaseURL.Query()
	if err := c.encoder.Encode(params, q); err != nil {
		return nil, errors.Wrap(err, "encoding request parameters")
	}
	u := *c.BaseURL
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreachable, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnreachable, "unexpected response status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrUnreachable, "reading response: %v", err)
	}
	return body, nil
}
