package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// FetchErrorKind classifies telegraph fetch failures. All of them are
// non-fatal: the poller logs and waits for the next tick.
type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchHTTPStatus
	FetchDecode
	FetchEmpty
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchHTTPStatus:
		return "http_status"
	case FetchDecode:
		return "decode"
	case FetchEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

type FetchError struct {
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("telegraph fetch failed: HTTP %d", e.Status)
	case FetchEmpty:
		return "telegraph fetch returned no items"
	default:
		return fmt.Sprintf("telegraph fetch failed (%s): %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Telegraph response envelope. An application-level status code other than
// zero is a failure regardless of the HTTP status.

type envelope struct {
	Result struct {
		Status struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		} `json:"status"`
	} `json:"result"`
	Data struct {
		Feed struct {
			List     []RawItem       `json:"list"`
			PageInfo json.RawMessage `json:"page_info,omitempty"`
		} `json:"feed"`
	} `json:"data"`
}

// Client fetches pages of telegraph items. It is a pure mapping from
// pagination parameters to a result; retry policy belongs to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	channel    string
	userAgent  string
}

func NewClient(httpClient *http.Client, baseURL, channel, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		channel:    channel,
		userAgent:  userAgent,
	}
}

// FetchPage requests one page of telegraph items. Page numbering starts at 1;
// the page parameter is only sent for pages beyond the first.
func (c *Client) FetchPage(ctx context.Context, pageSize, page int) ([]RawItem, error) {
	req, err := c.buildRequest(ctx, pageSize, page)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FetchHTTPStatus, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &FetchError{Kind: FetchDecode, Err: err}
	}

	if env.Result.Status.Code != 0 {
		return nil, &FetchError{Kind: FetchDecode,
			Err: fmt.Errorf("feed status code %d: %s", env.Result.Status.Code, env.Result.Status.Msg)}
	}

	if len(env.Data.Feed.List) == 0 {
		return nil, &FetchError{Kind: FetchEmpty}
	}

	return env.Data.Feed.List, nil
}

func (c *Client) buildRequest(ctx context.Context, pageSize, page int) (*http.Request, error) {
	params := url.Values{}
	params.Set("chlid", c.channel)
	params.Set("tag", "0")
	params.Set("direction", "0")
	params.Set("pageflag", "1")
	params.Set("pagesize", strconv.Itoa(pageSize))
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}
