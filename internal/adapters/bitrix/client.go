// internal/adapters/bitrix/client.go
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"listings_portal/internal/adapters/observability"
	"listings_portal/internal/domain"
)

const (
	service = "bitrix"

	methodItemList = "crm.item.list"
	methodItemGet  = "crm.item.get"

	maxBody  = 8 << 20 // 8MB guard per response
	maxPages = 2000    // 50 items per page
)

// Client talks to a Bitrix24 inbound webhook. The webhook URL embeds the
// access token, so it is never logged.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(webhookURL string, rps int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, &domain.ConfigurationError{Key: "BITRIX_WEBHOOK_URL"}
	}
	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &domain.ConfigurationError{Key: "BITRIX_WEBHOOK_URL", Reason: "not an absolute URL"}
	}
	if rps <= 0 {
		rps = 2
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base: strings.TrimRight(webhookURL, "/") + "/",
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

// ListItems pages through crm.item.list following "next" until the CRM stops returning it.
func (c *Client) ListItems(ctx context.Context, entityTypeID int, selectFields []string) ([]map[string]any, error) {
	var out []map[string]any
	start := 0
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, &domain.TransportError{Method: methodItemList, Description: fmt.Sprintf("more than %d pages", maxPages)}
		}
		env, err := c.call(ctx, methodItemList, map[string]any{
			"entityTypeId": entityTypeID,
			"select":       selectFields,
			"start":        start,
		})
		if err != nil {
			return nil, err
		}

		var res struct {
			Items []map[string]any `json:"items"`
		}
		if err := decodeResult(env.Result, &res); err != nil {
			return nil, &domain.TransportError{Method: methodItemList, Err: err}
		}
		out = append(out, res.Items...)

		if env.Next == nil || *env.Next <= start {
			return out, nil
		}
		start = *env.Next
	}
}

// GetItem returns the "result" object of crm.item.get, normally {"item": {...}}.
func (c *Client) GetItem(ctx context.Context, entityTypeID int, id int64) (map[string]any, error) {
	env, err := c.call(ctx, methodItemGet, map[string]any{
		"entityTypeId": entityTypeID,
		"id":           id,
	})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := decodeResult(env.Result, &out); err != nil {
		return nil, &domain.TransportError{Method: methodItemGet, Err: err}
	}
	return out, nil
}

// ---- Internals ----

type envelope struct {
	Result           json.RawMessage `json:"result"`
	Next             *int            `json:"next"`
	Total            int             `json:"total"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// call performs one rate-limited POST. There is no retry: a failure is reported once.
func (c *Client) call(ctx context.Context, method string, params any) (*envelope, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, &domain.TransportError{Method: method, Err: err}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, &domain.TransportError{Method: method, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+method+".json", bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "listings-portal/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, method, 0, time.Since(start))
		return nil, &domain.TransportError{Method: method, Err: scrubURL(err)}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, method, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, &domain.TransportError{Method: method, Status: resp.StatusCode, Err: err}
	}
	if len(b) > maxBody {
		return nil, &domain.TransportError{Method: method, Status: resp.StatusCode, Description: "payload too large"}
	}

	var env envelope
	decodeErr := json.Unmarshal(b, &env)
	if resp.StatusCode >= 400 || env.Error != "" {
		return nil, statusError(method, resp.StatusCode, env, b)
	}
	if decodeErr != nil {
		return nil, &domain.TransportError{Method: method, Status: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", decodeErr)}
	}
	return &env, nil
}

// statusError classifies a Bitrix error envelope (or a bare HTTP failure).
func statusError(method string, status int, env envelope, body []byte) error {
	te := &domain.TransportError{Method: method, Status: status, Code: env.Error, Description: env.ErrorDescription}
	switch {
	case env.Error == "NOT_FOUND" || status == http.StatusNotFound:
		te.Err = domain.ErrNotFound
	case status == http.StatusUnauthorized || env.Error == "NO_AUTH_FOUND" ||
		env.Error == "INVALID_CREDENTIALS" || env.Error == "expired_token" || env.Error == "invalid_token":
		te.Err = domain.ErrUnauthorized
	case status == http.StatusForbidden || env.Error == "ACCESS_DENIED" || env.Error == "insufficient_scope":
		te.Err = domain.ErrForbidden
	}
	if te.Code == "" && te.Description == "" {
		// not an envelope: keep a short excerpt for diagnostics
		if len(body) > 512 {
			body = body[:512]
		}
		te.Description = strings.TrimSpace(string(body))
	}
	return te
}

// decodeResult keeps numbers as json.Number so ids and enum codes survive untouched.
func decodeResult(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

// scrubURL drops the request URL (and with it the webhook token) from client errors.
func scrubURL(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
