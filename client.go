/* SPDX-License-Identifier: BSD-2-Clause */

package httpwindow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// RangeClient is the transport capability a Stream consumes. Implementations
// issue one metadata probe and ranged fetches; anything HTTP-shaped,
// including cloud storage SDK wrappers, can satisfy it without the stream
// knowing about signing, auth or transport-level retries.
type RangeClient interface {
	// ProbeMetadata performs a metadata-only request and returns the
	// response headers.
	ProbeMetadata(ctx context.Context) (http.Header, error)

	// FetchRange retrieves the inclusive byte span described by r. The
	// body must be exactly r.Len() bytes, or fewer only at end of
	// resource.
	FetchRange(ctx context.Context, r ByteRange) ([]byte, error)
}

// probeLength validates range support and discovers the resource length from
// the probe response headers.
func probeLength(ctx context.Context, client RangeClient) (int64, error) {
	headers, err := client.ProbeMetadata(ctx)
	if err != nil {
		return 0, err
	}

	if headers.Get("Accept-Ranges") != "bytes" {
		return 0, ErrRangesNotSupported
	}

	cl := headers.Get("Content-Length")
	if cl == "" {
		return 0, fmt.Errorf("%w: no Content-Length header", ErrMetadata)
	}
	length, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || length < 0 {
		return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMetadata, cl)
	}

	return length, nil
}

// Client is the default RangeClient over net/http. It probes with HEAD and
// fetches windows with ranged GETs, sending If-Match/If-Unmodified-Since
// validators captured from earlier responses.
type Client struct {
	url  string
	hc   *http.Client
	meta Metadata
}

// NewClient creates a Client for url. If hc is nil, http.DefaultClient is
// used.
func NewClient(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{url: url, hc: hc}
}

// ProbeMetadata sends a HEAD request and returns its headers.
func (c *Client) ProbeMetadata(ctx context.Context) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return nil, err
	}

	logRequest(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httpwindow: HEAD %s returned %s", c.url, resp.Status)
	}

	c.meta = metadataFromHeaders(resp.Header)
	return resp.Header, nil
}

// FetchRange issues a conditional GET with Range: bytes=start-end.
func (c *Client) FetchRange(ctx context.Context, r ByteRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", r.RequestHeader())
	c.meta.ApplyValidators(req.Header)

	logRequest(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logResponse(resp)

	switch resp.StatusCode {
	case http.StatusPartialContent, http.StatusOK:
		// accepted
	case http.StatusPreconditionFailed:
		return nil, fmt.Errorf("httpwindow: resource changed during read (HTTP 412)")
	default:
		return nil, fmt.Errorf("httpwindow: unexpected HTTP status %s", resp.Status)
	}

	if m := metadataFromHeaders(resp.Header); !c.meta.Equal(m) {
		c.meta = m
	}

	body := make([]byte, r.Len())
	n, err := io.ReadFull(resp.Body, body)
	if err == io.ErrUnexpectedEOF {
		// Short body at end of resource.
		return body[:n], nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}
