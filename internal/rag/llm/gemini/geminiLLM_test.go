package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), config.LLMConfig{APIKey: "k", Model: "gemini-test"}, srv.Client(), WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func candidate(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"index":0}]}`, text)
}

func TestGenerate(t *testing.T) {
	requests := make(chan *http.Request, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, candidate("Alpha is a compound."))
	})

	ans, err := c.Generate(context.Background(), llm.BuildPrompt("Alpha is a compound.", "What is Alpha?"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if ans != "Alpha is a compound." {
		t.Errorf("Generate() = %q", ans)
	}
	r := <-requests
	if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
		t.Errorf("unexpected request path %q", r.URL.Path)
	}
	if key := r.Header.Get("x-goog-api-key"); key != "k" {
		t.Errorf("api key header = %q; want k", key)
	}
}

func TestGenerate_BackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"bad prompt","status":"INVALID_ARGUMENT"}}`)
	})

	if _, err := c.Generate(context.Background(), llm.BuildPrompt("ctx", "q")); err == nil {
		t.Error("expected an error for a 400 from the backend")
	}
}

func TestGenerateStream(t *testing.T) {
	parts := []string{"Alpha ", "is a ", "compound."}
	queries := make(chan string, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range parts {
			fmt.Fprintf(w, "data: %s\n\n", candidate(p))
		}
	})

	frags, err := llm.Collect(c.GenerateStream(context.Background(), llm.BuildPrompt("ctx", "q")))
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(frags) != len(parts) {
		t.Fatalf("got %d fragments %q; want %d", len(frags), frags, len(parts))
	}
	for i := range parts {
		if frags[i] != parts[i] {
			t.Errorf("fragment %d = %q; want %q", i, frags[i], parts[i])
		}
	}
	if q := <-queries; q != "alt=sse" {
		t.Errorf("stream query = %q; want alt=sse", q)
	}
}

func TestGenerateStream_BackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"bad prompt","status":"INVALID_ARGUMENT"}}`)
	})

	frags, err := llm.Collect(c.GenerateStream(context.Background(), llm.BuildPrompt("ctx", "q")))
	if err == nil {
		t.Fatal("expected the stream to end with an error")
	}
	if len(frags) != 0 {
		t.Errorf("got fragments %q before the error", frags)
	}
}

func TestGenerateStream_EarlyBreakReleasesBackend(t *testing.T) {
	released := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", candidate("Alpha "))
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
			close(released)
		case <-time.After(5 * time.Second):
		}
	})

	var got []string
	for frag, err := range c.GenerateStream(context.Background(), llm.BuildPrompt("ctx", "q")) {
		if err != nil {
			t.Fatalf("stream failed: %v", err)
		}
		got = append(got, frag)
		break
	}
	if len(got) != 1 || got[0] != "Alpha " {
		t.Fatalf("got %q; want the first fragment only", got)
	}

	select {
	case <-released:
	case <-time.After(3 * time.Second):
		t.Error("backend connection still open after the consumer stopped ranging")
	}
}

func TestNew_NoKey(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{}, nil); err == nil {
		t.Error("expected an error without an api key")
	}
}
