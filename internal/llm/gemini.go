package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 120 * time.Second
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Client communicates with the Gemini REST API. It implements both
// Model (generateContent) and Embedder (batchEmbedContents).
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
}

// Compile-time checks that Client satisfies both capabilities.
var (
	_ Model    = (*Client)(nil)
	_ Embedder = (*Client)(nil)
)

// NewClient creates a Client for the given generation and embedding models.
func NewClient(apiKey, model, embedModel string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      model,
		embedModel: embedModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(apiKey, model, embedModel, baseURL string) *Client {
	c := NewClient(apiKey, model, embedModel)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// part is a single content part in the Gemini wire format.
type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

// thinkingConfig controls the model's reasoning depth.
type thinkingConfig struct {
	ThinkingLevel string `json:"thinkingLevel"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

// generateRequest is the JSON body for POST /models/{model}:generateContent.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// generateResponse mirrors the JSON returned by generateContent.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Generate sends the prompt to the configured generation model. JSON
// format requests set responseMimeType to application/json; the effort
// level maps directly onto the API's thinkingLevel.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	gr := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{},
	}
	if req.Format == FormatJSON {
		gr.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.Effort != "" {
		gr.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingLevel: string(req.Effort)}
	}

	body, err := json.Marshal(gr)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("api error %d (%s): %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// embedRequestItem is one entry in a batchEmbedContents request.
type embedRequestItem struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type batchEmbedRequest struct {
	Requests []embedRequestItem `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *apiError `json:"error,omitempty"`
}

// Embed returns embedding vectors for the given texts in input order,
// using a single batchEmbedContents call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	br := batchEmbedRequest{Requests: make([]embedRequestItem, len(texts))}
	for i, t := range texts {
		br.Requests[i] = embedRequestItem{
			Model:   "models/" + c.embedModel,
			Content: content{Parts: []part{{Text: t}}},
		}
	}

	body, err := json.Marshal(br)
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", c.baseURL, c.embedModel)
	raw, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var resp batchEmbedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("api error %d (%s): %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// post sends a JSON request with retry on rate limiting (exponential backoff).
func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := range maxRetries {
		raw, err := c.doPost(ctx, url, body)
		if err == nil {
			return raw, nil
		}

		if !isRateLimit(err) {
			return nil, err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// statusError carries the HTTP status for retry classification.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func isRateLimit(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusTooManyRequests
}

func (c *Client) doPost(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &statusError{status: resp.StatusCode, body: msg}
	}
	return raw, nil
}
