package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/flora-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	maxErrorBody = 2048
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// HeaderTimeout bounds the wait for the first response byte. The stream
	// itself is bounded only by the request context.
	HeaderTimeout time.Duration
	HTTPClient    *http.Client
}

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Turn is one prior message; Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Request is a single streamed generation: system instruction, prior turns and
// the new user message.
type Request struct {
	System  string
	History []Turn
	Message string
}

// Client talks to the Generative Language API streamGenerateContent endpoint.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	log        *logger.Logger
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.ResponseHeaderTimeout = cfg.HeaderTimeout
		hc = &http.Client{Transport: tr}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		log:        log.With("client", "GeminiClient", "model", model),
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: hc,
	}, nil
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func buildRequest(req Request) generateRequest {
	out := generateRequest{Contents: make([]content, 0, len(req.History)+1)}
	if s := strings.TrimSpace(req.System); s != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: s}}}
	}
	for _, h := range req.History {
		out.Contents = append(out.Contents, content{Role: h.Role, Parts: []part{{Text: h.Text}}})
	}
	out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: req.Message}}})
	return out
}

// OpenStream starts a streamed generation. Errors returned here happen before
// any text is produced.
func (c *Client) OpenStream(ctx context.Context, req Request) (*Stream, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildRequest(req)); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	c.log.Debug("gemini stream opened", "latency_ms", time.Since(start).Milliseconds(), "history_turns", len(req.History))
	return &Stream{body: resp.Body, events: newSSEReader(resp.Body)}, nil
}

// Stream is one in-flight generation. Close releases the connection.
type Stream struct {
	body   io.ReadCloser
	events *sseReader
	done   bool
}

// Next returns the next non-empty piece of text, or io.EOF when the model is done.
func (s *Stream) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		_, data, err := s.events.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("gemini stream error %d %s: %s", chunk.Error.Code, chunk.Error.Status, chunk.Error.Message)
		}
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", chunk.PromptFeedback.BlockReason)
		}

		var text strings.Builder
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				text.WriteString(p.Text)
			}
		}
		if text.Len() > 0 {
			return text.String(), nil
		}
	}
}

func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}
