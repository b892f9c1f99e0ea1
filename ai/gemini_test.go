package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(Options{APIKey: "test-key", BaseURL: srv.URL, Model: "gemini-test", Timeout: 2 * time.Second})
}

func TestGenerateSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-goog-api-key"))
		}
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(body, &req); err != nil || len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("unexpected request body %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"summary\":"},{"text":"\"ok\"}"}]}}]}`))
	})

	text, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != `{"summary":"ok"}` {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad creds"}}`, want: KindUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: ``, want: KindUnauthorized},
		{name: "invalid api key", status: http.StatusBadRequest, body: `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`, want: KindUnauthorized},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":{"message":"invalid argument"}}`, want: KindUpstream},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"quota"}}`, want: KindRateLimited},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, body: ``, want: KindTimeout},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, want: KindUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.Generate(context.Background(), "hi")
			if !IsKind(err, tc.want) {
				t.Fatalf("expected kind %s, got %v", tc.want, err)
			}
			var aiErr *Error
			if e, ok := err.(*Error); ok {
				aiErr = e
			}
			if aiErr == nil || aiErr.Status != tc.status {
				t.Fatalf("expected status %d on error, got %v", tc.status, err)
			}
		})
	}
}

func TestGenerateMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>`,
		"no candidates": `{"candidates":[]}`,
		"blocked":       `{"promptFeedback":{"blockReason":"SAFETY"}}`,
		"empty text":    `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.Generate(context.Background(), "hi")
			if !IsKind(err, KindMalformedResponse) {
				t.Fatalf("expected malformed response, got %v", err)
			}
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewGeminiClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})

	_, err := client.Generate(context.Background(), "hi")
	if !IsKind(err, KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestGenerateContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the server only sees the client leave once the body is consumed
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	client := NewGeminiClient(Options{APIKey: "k", BaseURL: srv.URL, Model: "m"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, "hi")
	if !IsKind(err, KindTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	client := NewGeminiClient(Options{APIKey: "k", BaseURL: url, Model: "m", Timeout: time.Second})

	_, err := client.Generate(context.Background(), "hi")
	if !IsKind(err, KindUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	client := NewGeminiClient(Options{APIKey: "  ", BaseURL: "http://127.0.0.1:1", Model: "m"})
	if client.Configured() {
		t.Fatalf("expected blank key to be unconfigured")
	}
	_, err := client.Generate(context.Background(), "hi")
	if !IsKind(err, KindUnconfigured) {
		t.Fatalf("expected unconfigured, got %v", err)
	}
}

func TestErrorMessageIncludesStatusAndCause(t *testing.T) {
	err := statusError(http.StatusTooManyRequests, []byte(`{"error":{"message":"quota exceeded"}}`))
	msg := err.Error()
	if !strings.Contains(msg, "rate limit") || !strings.Contains(msg, "429") || !strings.Contains(msg, "quota exceeded") {
		t.Fatalf("unexpected message %q", msg)
	}
}
