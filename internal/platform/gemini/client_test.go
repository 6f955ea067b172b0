package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseChunk(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
		}},
	})
	return "data: " + string(b) + "\r\n\r\n"
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(nil, Config{APIKey: "test-key", Model: "gemini-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func drain(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		chunk, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, chunk)
	}
}

func TestOpenStreamSendsSystemHistoryAndMessage(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:streamGenerateContent" || r.URL.Query().Get("alt") != "sse" {
			t.Errorf("unexpected url %s", r.URL.String())
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("AB")+": keepalive\n\n"+sseChunk("CD")+sseChunk("EF"))
	})

	s, err := c.OpenStream(context.Background(), Request{
		System:  "You are LabMate.",
		History: []Turn{{Role: "user", Text: "Hello! Let's get started."}, {Role: "model", Text: "Hi"}},
		Message: "Explain qPCR",
	})
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer s.Close()

	chunks, err := drain(t, s)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if strings.Join(chunks, "|") != "AB|CD|EF" {
		t.Fatalf("chunks = %v", chunks)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "You are LabMate." {
		t.Fatalf("system instruction = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 {
		t.Fatalf("contents = %+v", got.Contents)
	}
	if got.Contents[0].Role != "user" || got.Contents[1].Role != "model" || got.Contents[2].Role != "user" {
		t.Fatalf("roles = %+v", got.Contents)
	}
	if got.Contents[2].Parts[0].Text != "Explain qPCR" {
		t.Fatalf("last content = %+v", got.Contents[2])
	}
}

func TestOpenStreamHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota"}}`)
	})
	_, err := c.OpenStream(context.Background(), Request{Message: "hi"})
	var he *HTTPError
	if !errors.As(err, &he) || he.HTTPStatusCode() != http.StatusTooManyRequests {
		t.Fatalf("err = %v", err)
	}
}

func TestStreamErrorEventStopsStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sseChunk("partial")+`data: {"error":{"code":500,"status":"INTERNAL","message":"boom"}}`+"\n\n")
	})
	s, err := c.OpenStream(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer s.Close()
	chunks, err := drain(t, s)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "partial" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestStreamBlockedPrompt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `data: {"promptFeedback":{"blockReason":"SAFETY"}}`+"\n\n")
	})
	s, err := c.OpenStream(context.Background(), Request{Message: "hi"})
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer s.Close()
	if _, err := drain(t, s); err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("err = %v", err)
	}
}

func TestSSEReaderTrailingEventWithoutBlankLine(t *testing.T) {
	r := newSSEReader(strings.NewReader("event: x\ndata: one\ndata: two"))
	ev, data, err := r.Next()
	if err != nil || ev != "x" || data != "one\ntwo" {
		t.Fatalf("got %q %q %v", ev, data, err)
	}
	if _, _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(nil, Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
