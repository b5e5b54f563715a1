package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// TaecelClient talks to the TAECEL carrier over its HTTP/form API. TAECEL
// has no published Go SDK (neither does MST), so this is a direct
// net/http+encoding/json integration — the same hand-rolled shape the
// teacher uses for its own SDK-less carriers (Twilio's REST calls aside,
// which do have an SDK the teacher didn't reach for either).
type TaecelClient struct {
	httpClient *http.Client
	baseURL    string
	key        string
	nip        string
}

// NewTaecelClient builds a TaecelClient. httpClient may be nil, in which
// case http.DefaultClient is used.
func NewTaecelClient(baseURL, key, nip string, httpClient *http.Client) *TaecelClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TaecelClient{httpClient: httpClient, baseURL: baseURL, key: key, nip: nip}
}

func (c *TaecelClient) Balance(ctx context.Context, _ Name) (float64, error) {
	form := url.Values{"key": {c.key}, "nip": {c.nip}}
	body, err := c.post(ctx, "/getBalance", form)
	if err != nil {
		return 0, fmt.Errorf("taecel balance: %w", err)
	}
	var out struct {
		Balance string `json:"saldo"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("taecel balance: decoding response: %w", err)
	}
	bal, err := strconv.ParseFloat(out.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("taecel balance: parsing saldo %q: %w", out.Balance, err)
	}
	return bal, nil
}

func (c *TaecelClient) Purchase(ctx context.Context, _ Name, req PurchaseRequest) (PurchaseResult, error) {
	form := url.Values{
		"key":     {c.key},
		"nip":     {c.nip},
		"sim":     {req.SIM},
		"producto": {req.ProductCode},
	}
	body, err := c.post(ctx, "/Requests", form)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("taecel purchase: %w", err)
	}
	res, err := parseResult(body)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("taecel purchase: decoding response: %w", err)
	}
	return res, nil
}

func (c *TaecelClient) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
