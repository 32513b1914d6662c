package judgeclient

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

	"battle-companion/internal/config"
)

const battlePrefix = "/problem/tracker/battle/"

// Client talks to the judge platform's battle endpoints. Requests carry the
// user's session cookie; every reply is wrapped in a {code,msg,data} envelope.
type Client struct {
	inner   *http.Client
	baseURL string
	cookie  string
}

func New(cfg config.ClientConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		inner:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.JudgeBaseURL, "/"),
		cookie:  cfg.JudgeCookie,
	}
}

type envelope struct {
	Code any             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + battlePrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := c.baseURL + battlePrefix + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s failed with status %d", path, resp.StatusCode)
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", path, err)
	}
	code, err := envelopeCode(env.Code)
	if err != nil {
		return fmt.Errorf("decode %s envelope: %w", path, err)
	}
	if code != 0 {
		return &APIError{Path: path, Code: code, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	dec = json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}
