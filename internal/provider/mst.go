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

// MSTClient talks to the MST carrier, the alternate provider the retry
// classifier switches to after a RETRIABLE operation's attempt exceeds 2
// (spec §4.4). Same request shape as TaecelClient, different credentials
// and endpoint paths, so kept as a sibling rather than parameterizing one
// type over both — the teacher keeps per-carrier integrations separate
// too (pkg/slack vs pkg/integration's Twilio handler).
type MSTClient struct {
	httpClient *http.Client
	baseURL    string
	user       string
	password   string
}

// NewMSTClient builds an MSTClient. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewMSTClient(baseURL, user, password string, httpClient *http.Client) *MSTClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MSTClient{httpClient: httpClient, baseURL: baseURL, user: user, password: password}
}

func (c *MSTClient) Balance(ctx context.Context, _ Name) (float64, error) {
	form := url.Values{"usuario": {c.user}, "password": {c.password}}
	body, err := c.post(ctx, "/saldo", form)
	if err != nil {
		return 0, fmt.Errorf("mst balance: %w", err)
	}
	var out struct {
		Balance string `json:"saldo"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("mst balance: decoding response: %w", err)
	}
	bal, err := strconv.ParseFloat(out.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("mst balance: parsing saldo %q: %w", out.Balance, err)
	}
	return bal, nil
}

func (c *MSTClient) Purchase(ctx context.Context, _ Name, req PurchaseRequest) (PurchaseResult, error) {
	form := url.Values{
		"usuario":  {c.user},
		"password": {c.password},
		"sim":      {req.SIM},
		"producto": {req.ProductCode},
	}
	body, err := c.post(ctx, "/recarga", form)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("mst purchase: %w", err)
	}
	res, err := parseResult(body)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("mst purchase: decoding response: %w", err)
	}
	return res, nil
}

func (c *MSTClient) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
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
