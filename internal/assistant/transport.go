package assistant

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const maxErrorBody = 512

// postJSON sends in as a JSON body and decodes a 200 answer into out. The
// earlier of the context deadline and timeout bounds the call.
func postJSON(ctx context.Context, c *fasthttp.Client, timeout time.Duration, url string, setHeaders func(*fasthttp.RequestHeader), in, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if setHeaders != nil {
		setHeaders(&req.Header)
	}
	req.SetBodyRaw(body)

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	if deadline.IsZero() {
		err = c.Do(req, resp)
	} else {
		err = c.DoDeadline(req, resp, deadline)
	}
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		b := resp.Body()
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		return &StatusError{Status: resp.StatusCode(), Body: string(b)}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
