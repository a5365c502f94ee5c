package openrouter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-chat/internal/domain"
	"voice-chat/internal/infra/openrouter"
)

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer or-key" {
			t.Errorf("Authorization: got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type: got %q", got)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "deepseek/deepseek-chat" {
			t.Errorf("model: got %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "Neue Nachricht: Hallo" {
			t.Errorf("messages: got %+v", req.Messages)
		}

		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hallo! Wie geht's?"}}]}`)
	}))
	defer server.Close()

	client := openrouter.NewClient("", openrouter.WithBaseURL(server.URL))

	reply, err := client.Complete(context.Background(), "or-key", "Neue Nachricht: Hallo")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if reply != "Hallo! Wie geht's?" {
		t.Errorf("reply: got %q", reply)
	}
}

func TestClient_CompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":""}}]}`)
	}))
	defer server.Close()

	reply, err := openrouter.NewClient("", openrouter.WithBaseURL(server.URL)).Complete(context.Background(), "k", "p")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if reply != "" {
		t.Errorf("reply: got %q, want empty", reply)
	}
}

func TestClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`},
		{name: "payment required", status: http.StatusPaymentRequired, body: `{}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, malformed: true},
		{name: "missing content", status: http.StatusOK, body: `{"choices":[{"message":{}}]}`, malformed: true},
		{name: "invalid json", status: http.StatusOK, body: `{"choices":`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := openrouter.NewClient("", openrouter.WithBaseURL(server.URL)).Complete(context.Background(), "k", "p")
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.malformed {
				var me *domain.MalformedResponseError
				if !errors.As(err, &me) {
					t.Errorf("expected MalformedResponseError, got %v", err)
				}
				return
			}

			var re *domain.RemoteError
			if !errors.As(err, &re) {
				t.Fatalf("expected RemoteError, got %v", err)
			}
			if re.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", re.StatusCode, tt.status)
			}
		})
	}
}
