package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/model"
)

type fakeKeySource struct {
	provider string
	key      string
	err      error
}

func (f *fakeKeySource) GetBestAvailableProvider(context.Context, string) (string, string, error) {
	return f.provider, f.key, f.err
}

func TestAIVisionNoProviderConfigured(t *testing.T) {
	e := NewAIVisionExtractor(&fakeKeySource{}, nil, zap.NewNop(), time.Second)
	res := e.Extract(context.Background(), File{Name: "r.jpg", TenantID: "t1"})
	if !errors.Is(res.Err, model.ErrProviderNotSet) {
		t.Fatalf("expected ErrProviderNotSet, got %v", res.Err)
	}
}

func TestAIVisionOpenAIRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization header: %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != "gpt-4o-mini" {
			t.Errorf("model: %v", req["model"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"content": `{"products":[{"name":"Widget","quantity":2,"unit_price":100},{"name":"Gadget","unit_price":"$50"}],"document_type":"receipt"}`,
				}},
			},
			"usage": map[string]int{"prompt_tokens": 900, "completion_tokens": 60},
		})
	}))
	defer srv.Close()

	meter := &capturingMeter{}
	e := NewAIVisionExtractor(
		&fakeKeySource{provider: "openai", key: "sk-test"},
		meter, zap.NewNop(), 5*time.Second,
		NewOpenAIVision(srv.URL, "gpt-4o-mini"),
	)

	res := e.Extract(context.Background(), File{Name: "shelf.jpg", TenantID: "t1", Data: []byte{0xff, 0xd8}})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}

	first := res.Rows[0]
	if first.Name != "Widget" || *first.Quantity != 2 || *first.UnitPrice != 100 {
		t.Fatalf("got %+v", first)
	}
	if first.Source != model.SourceAIVision || first.Confidence != model.ConfidenceHigh {
		t.Fatalf("source/confidence: %s/%s", first.Source, first.Confidence)
	}
	if *res.Rows[1].UnitPrice != 50 {
		t.Fatalf("decorated price: got %v", *res.Rows[1].UnitPrice)
	}

	if len(meter.records) != 1 {
		t.Fatalf("expected 1 usage record, got %d", len(meter.records))
	}
	rec := meter.records[0]
	if rec.Provider != "openai" || rec.Operation != "ai_vision" || !rec.Success {
		t.Fatalf("usage record: %+v", rec)
	}
	if rec.InputTokens != 900 || rec.OutputTokens != 60 {
		t.Fatalf("token counts: %+v", rec)
	}
	if rec.CostUSD <= 0 {
		t.Fatalf("cost should be estimated for a known model, got %v", rec.CostUSD)
	}
}

func TestAIVisionGeminiFencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "g-test" {
			t.Errorf("api key header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "```json\n{\"items\":[{\"name\":\"Lamp\",\"unit_price\":19.99}]}\n```"},
				}}},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 500, "candidatesTokenCount": 20},
		})
	}))
	defer srv.Close()

	e := NewAIVisionExtractor(
		&fakeKeySource{provider: "gemini", key: "g-test"},
		nil, zap.NewNop(), 5*time.Second,
		NewGeminiVision(srv.URL, "gemini-1.5-flash"),
	)

	res := e.Extract(context.Background(), File{Name: "shelf.png", TenantID: "t1"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Name != "Lamp" || *res.Rows[0].UnitPrice != 19.99 {
		t.Fatalf("got %+v", res.Rows)
	}
}

func TestAIVisionProviderFailureIsMeteredAndReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "rate limited"}})
	}))
	defer srv.Close()

	meter := &capturingMeter{}
	e := NewAIVisionExtractor(
		&fakeKeySource{provider: "openai", key: "sk-test"},
		meter, zap.NewNop(), 5*time.Second,
		NewOpenAIVision(srv.URL, "gpt-4o-mini"),
	)

	res := e.Extract(context.Background(), File{Name: "shelf.jpg", TenantID: "t1"})
	if res.Err == nil {
		t.Fatal("expected an error")
	}
	if len(meter.records) != 1 || meter.records[0].Success {
		t.Fatalf("failure must still be metered: %+v", meter.records)
	}
	if meter.records[0].Error == nil {
		t.Fatal("usage record should carry the error message")
	}
}

func TestParseVisionItemsBareArray(t *testing.T) {
	ext, err := parseVisionItems(`[{"name":"Desk","quantity":1},{"quantity":3}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The nameless item is dropped rather than committed blank.
	if len(ext.Rows) != 1 || ext.Rows[0].Name != "Desk" {
		t.Fatalf("got %+v", ext.Rows)
	}
}

func TestParseVisionItemsProductsEnvelope(t *testing.T) {
	ext, err := parseVisionItems(`{
		"products": [{"name":"Widget","quantity":2,"unit_price":100}],
		"document_type": "invoice",
		"currency_detected": "USD",
		"extraction_notes": "bottom of receipt torn"
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.Rows) != 1 || ext.Rows[0].Name != "Widget" {
		t.Fatalf("got %+v", ext.Rows)
	}
	if ext.Notes != "bottom of receipt torn" {
		t.Fatalf("notes: %q", ext.Notes)
	}
}

type stubVisionProvider struct {
	ext   VisionExtraction
	usage VisionUsage
}

func (s *stubVisionProvider) Name() string { return "openai" }

func (s *stubVisionProvider) ExtractRows(context.Context, string, File) (VisionExtraction, VisionUsage, error) {
	return s.ext, s.usage, nil
}

func TestAIVisionExtractionNotesBecomeWarnings(t *testing.T) {
	qty := 1.0
	e := NewAIVisionExtractor(
		&fakeKeySource{provider: "openai", key: "sk-test"},
		nil, zap.NewNop(), time.Second,
		&stubVisionProvider{ext: VisionExtraction{
			Rows:  []model.CandidateRow{{Name: "Widget", Quantity: &qty}},
			Notes: "two lines were illegible",
		}},
	)

	res := e.Extract(context.Background(), File{Name: "scan.jpg", TenantID: "t1"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != "scan.jpg: two lines were illegible" {
		t.Fatalf("warnings: %v", res.Warnings)
	}
}
