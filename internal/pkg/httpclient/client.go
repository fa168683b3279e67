package httpclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapsearch/internal/pkg/telemetry"
)

// Request is a single outbound call.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Header      map[string]string
}

// Response holds a copy of the response data, safe to keep after Do returns.
type Response struct {
	Status int
	Body   []byte
	Header map[string]string
}

// Client is a small fasthttp wrapper adding deadlines, basic auth and spans.
type Client struct {
	http    *fasthttp.Client
	timeout time.Duration
	auth    string
	tracer  trace.Tracer
}

// New creates a client. A zero timeout means calls only end when ctx has a
// deadline or the server answers.
func New(name string, timeout time.Duration) *Client {
	return &Client{
		http: &fasthttp.Client{
			Name:            "mapsearch",
			MaxConnsPerHost: 64,
		},
		timeout: timeout,
		tracer:  telemetry.Tracer(name),
	}
}

// WithBasicAuth sets credentials sent on every request.
func (c *Client) WithBasicAuth(user, password string) *Client {
	if user != "" {
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
		c.auth = "Basic " + token
	}
	return c
}

// Do performs the request. Non-2xx statuses are not errors; callers inspect
// Response.Status.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, r.Method+" "+r.URL, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("http.url", r.URL),
	)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.URL)
	req.Header.SetMethod(r.Method)
	req.Header.Set("Accept", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	if r.Body != nil {
		ct := r.ContentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.SetContentType(ct)
		req.SetBody(r.Body)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else if c.timeout > 0 {
		err = c.http.DoTimeout(req, resp, c.timeout)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}

	out := &Response{
		Status: resp.StatusCode(),
		Body:   append([]byte(nil), resp.Body()...),
		Header: make(map[string]string),
	}
	resp.Header.VisitAll(func(key, value []byte) {
		out.Header[string(key)] = string(value)
	})
	span.SetAttributes(attribute.Int("http.status_code", out.Status))
	if out.Status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", out.Status))
	}
	return out, nil
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
