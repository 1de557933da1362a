package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiGenerator_Generate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, DefaultGeminiModel+":generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Graphene has the most works."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiGenerator(context.Background(), Config{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiGenerator failed: %v", err)
	}
	answer, err := gen.Generate(context.Background(), "use the context", "top topic?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "Graphene has the most works." {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(body, "use the context") || !strings.Contains(body, "top topic?") {
		t.Errorf("request body missing prompt parts: %s", body)
	}
	if !strings.Contains(body, "systemInstruction") {
		t.Errorf("system text should be sent as the system instruction: %s", body)
	}
}
