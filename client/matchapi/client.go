package matchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"copymatch/highlight"
	"copymatch/logger"
	"copymatch/types"

	"github.com/andybalholm/brotli"
)

// MatchRequest is the request format of a remote exact-match engine
type MatchRequest struct {
	TextA string `json:"textA"`
	TextB string `json:"textB"`
}

// matchResponse mirrors types.MatchResult with matches left undecoded, so
// malformed records can be skipped one by one
type matchResponse struct {
	LocalScore     float64         `json:"localScore"`
	RabinKarpScore float64         `json:"rabinKarpScore"`
	JaccardScore   float64         `json:"jaccardScore"`
	Matches        json.RawMessage `json:"matches"`
}

// Client is the HTTP client for a remote exact-match engine
type Client struct {
	HTTPClient *http.Client
	URL        string
	AuthToken  string
}

// NewClient creates a new engine client
// timeoutMs is the HTTP client timeout in milliseconds (0 = no timeout)
func NewClient(url, apiKey string, timeoutMs int) *Client {
	timeout := time.Duration(0)
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		URL:       url,
		AuthToken: apiKey,
	}
}

func (c *Client) Name() string { return "remote" }

// Match sends both texts to the engine and decodes its matches
func (c *Client) Match(ctx context.Context, a, b string) (*types.MatchResult, error) {
	defer logger.Trace("matchapi.Match")()

	jsonData, err := json.Marshal(&MatchRequest{TextA: a, TextB: b})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Compress with brotli (quality 1 for speed)
	var compressedBuf bytes.Buffer
	brotliWriter := brotli.NewWriterLevel(&compressedBuf, 1)
	if _, err := brotliWriter.Write(jsonData); err != nil {
		return nil, fmt.Errorf("failed to compress request: %w", err)
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.URL, &compressedBuf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Content-Encoding", "br")
	httpReq.Header.Set("Accept-Encoding", "br")
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "br" {
		reader = brotli.NewReader(resp.Body)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return ParseResponse(body)
}

// ParseResponse decodes an engine response body. A body that is not a JSON
// object, or whose matches are not an array, is an error; single malformed
// match records are dropped and counted.
func ParseResponse(body []byte) (*types.MatchResult, error) {
	var apiResp matchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	res := &types.MatchResult{
		LocalScore:     apiResp.LocalScore,
		RabinKarpScore: apiResp.RabinKarpScore,
		JaccardScore:   apiResp.JaccardScore,
		Matches:        []highlight.RawMatch{},
	}
	if len(apiResp.Matches) == 0 || string(apiResp.Matches) == "null" {
		return res, nil
	}

	matches, dropped, err := highlight.ParseRawMatches(apiResp.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to parse matches: %w", err)
	}
	if dropped > 0 {
		logger.Debug("matchapi: skipped %d malformed matches", dropped)
	}
	res.Matches = matches
	res.Dropped = dropped
	return res, nil
}
