package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "arcadia-client/1"

// RestyClient implements Doer on top of resty. Every request is attempted
// exactly once.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient builds a client with the given per-request timeout. A zero
// timeout leaves requests bounded only by their context.
func NewRestyClient(timeout time.Duration) *RestyClient {
	c := resty.New().
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &RestyClient{client: c}
}

// Do sends one request. Non-2xx statuses are not errors here; callers decide.
func (r *RestyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := r.client.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) Body() []byte    { return r.resp.Body() }
func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r restyResponse) Status() string  { return r.resp.Status() }
