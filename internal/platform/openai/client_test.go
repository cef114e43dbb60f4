package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type fakeRoundTripper struct {
	fn func(req *http.Request) (*http.Response, error)
}

func (f *fakeRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func jsonResponse(status int, body any) *http.Response {
	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func newTestClient(t *testing.T, rt http.RoundTripper) *client {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	temp := 0.2
	return &client{
		log:         log,
		baseURL:     "https://api.test",
		apiKey:      "test-key",
		model:       "gpt-test",
		embedModel:  "embed-test",
		httpClient:  &http.Client{Transport: rt, Timeout: 5 * time.Second},
		maxRetries:  2,
		temperature: &temp,
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/embeddings" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("missing auth header, got %q", got)
		}
		return jsonResponse(200, map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0.5, 0.6}},
				{"index": 0, "embedding": []float64{0.1, 0.2}},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.5 {
		t.Fatalf("vectors not ordered by index: %v", vecs)
	}
}

func TestEmbedMissingIndexFails(t *testing.T) {
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float64{0.1}},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error for missing embedding index")
	}
}

func TestGenerateTextExtractsOutput(t *testing.T) {
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/responses" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != "gpt-test" {
			t.Fatalf("unexpected model %v", body["model"])
		}
		return jsonResponse(200, map[string]any{
			"output": []map[string]any{
				{
					"type": "message",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "output_text", "text": "hello "},
						{"type": "output_text", "text": "world"},
					},
				},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	text, err := c.GenerateText(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestGenerateJSONParsesObject(t *testing.T) {
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		text, _ := body["text"].(map[string]any)
		format, _ := text["format"].(map[string]any)
		if format["type"] != "json_schema" || format["name"] != "answer" {
			t.Fatalf("unexpected format %v", format)
		}
		return jsonResponse(200, map[string]any{
			"output": []map[string]any{
				{
					"type": "message",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "output_text", "text": `{"answer":"42"}`},
					},
				},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	obj, err := c.GenerateJSON(context.Background(), "sys", "usr", "answer", map[string]any{
		"type": "object",
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["answer"] != "42" {
		t.Fatalf("unexpected object %v", obj)
	}
}

func TestRetryOn429ThenSuccess(t *testing.T) {
	calls := 0
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(429, map[string]any{"error": map[string]any{"message": "rate limited"}}), nil
		}
		return jsonResponse(200, map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float64{0.1}},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	if _, err := c.Embed(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Embed after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestTemperatureFallbackRetriesWithout(t *testing.T) {
	sawTemp := []bool{}
	rt := &fakeRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, hasTemp := body["temperature"]
		sawTemp = append(sawTemp, hasTemp)
		if hasTemp {
			return jsonResponse(400, map[string]any{
				"error": map[string]any{"message": "Unsupported parameter: 'temperature' is not supported with this model."},
			}), nil
		}
		return jsonResponse(200, map[string]any{
			"output": []map[string]any{
				{
					"type": "message",
					"role": "assistant",
					"content": []map[string]any{
						{"type": "output_text", "text": "ok"},
					},
				},
			},
		}), nil
	}}

	c := newTestClient(t, rt)
	text, err := c.GenerateText(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "ok" {
		t.Fatalf("unexpected text %q", text)
	}
	if len(sawTemp) != 2 || !sawTemp[0] || sawTemp[1] {
		t.Fatalf("expected temperature then no temperature, got %v", sawTemp)
	}
}
