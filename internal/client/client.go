package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"provenance_toolbox/internal/parser"
)

// All routes take the same envelope with differing payloads.
type RegistryRequest[D any] struct {
	Event string `json:"event"`
	Data  D      `json:"data"`
}

type SubmitVerdictRequest = RegistryRequest[parser.Report]

// RegistryClient submits scan verdicts to a provenance registry service.
type RegistryClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *RegistryClient) Init() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
}

func (c *RegistryClient) JSONRequest(ctx context.Context, method, route string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+route, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return res, nil
}

// SubmitVerdict posts one analysis report to the registry.
func (c *RegistryClient) SubmitVerdict(ctx context.Context, report parser.Report) error {
	payload := SubmitVerdictRequest{
		Event: "verdictSubmit",
		Data:  report,
	}

	res, err := c.JSONRequest(ctx, http.MethodPost, "/verdicts", payload)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected status: %s, body: %s", res.Status, body)
	}
	return nil
}
