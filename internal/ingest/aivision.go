package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/model"
)

// visionPrompt instructs multimodal models to answer with structured JSON so
// the rows can be normalized like any other tabular source.
const visionPrompt = `Extract every product line item visible in this image.
Respond with JSON only, shaped as {"products": [...]} where each product has:
name (string, required), sku, barcode, category, description (strings),
cost_price, unit_price, tax_rate, quantity (numbers). Omit fields you cannot
read. Do not invent values. You may add document_type, currency_detected and
extraction_notes (strings) at the top level.`

// KeySource resolves tenant-supplied provider credentials.
type KeySource interface {
	GetBestAvailableProvider(ctx context.Context, tenantID string) (provider, key string, err error)
}

// VisionUsage is what a provider call consumed, for metering.
type VisionUsage struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// VisionExtraction is a decoded provider answer: the rows plus any free-text
// caveats the model attached.
type VisionExtraction struct {
	Rows  []model.CandidateRow
	Notes string
}

// VisionProvider is one multimodal backend (OpenAI, Gemini).
type VisionProvider interface {
	Name() string
	ExtractRows(ctx context.Context, apiKey string, f File) (VisionExtraction, VisionUsage, error)
}

// perMTokenUSD holds rough input/output prices per million tokens, keyed by
// model name. Unknown models meter at zero cost.
var perMTokenUSD = map[string][2]float64{
	"gpt-4o-mini":      {0.15, 0.60},
	"gpt-4o":           {2.50, 10.00},
	"gemini-1.5-flash": {0.075, 0.30},
	"gemini-1.5-pro":   {1.25, 5.00},
}

// AIVisionExtractor sends an image to the best provider the tenant has a key
// for. There is no silent fallback to local OCR: when the tenant asked for AI
// extraction and it cannot run, the failure is reported as such.
type AIVisionExtractor struct {
	keys      KeySource
	providers map[string]VisionProvider
	meter     UsageRecorder
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAIVisionExtractor(keys KeySource, meter UsageRecorder, logger *zap.Logger, timeout time.Duration, providers ...VisionProvider) *AIVisionExtractor {
	byName := make(map[string]VisionProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &AIVisionExtractor{
		keys:      keys,
		providers: byName,
		meter:     meter,
		timeout:   timeout,
		logger:    logger,
	}
}

func (e *AIVisionExtractor) Extract(ctx context.Context, f File) Result {
	providerName, apiKey, err := e.keys.GetBestAvailableProvider(ctx, f.TenantID)
	if err != nil {
		return Result{Err: fmt.Errorf("resolve ai credentials: %w", err)}
	}
	if providerName == "" {
		return Result{Err: model.ErrProviderNotSet}
	}
	provider, ok := e.providers[providerName]
	if !ok {
		return Result{Err: fmt.Errorf("no extractor wired for provider %q", providerName)}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	ext, usage, err := provider.ExtractRows(callCtx, apiKey, f)
	elapsed := time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", model.ErrExtractionTimedOut, e.timeout)
	}

	if e.meter != nil {
		rec := &model.AIUsageRecord{
			TenantID:     f.TenantID,
			Provider:     providerName,
			Operation:    "ai_vision",
			DurationMS:   elapsed.Milliseconds(),
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			CostUSD:      tokenCost(usage),
			Success:      err == nil,
		}
		if usage.Model != "" {
			rec.Model = &usage.Model
		}
		if err != nil {
			msg := err.Error()
			rec.Error = &msg
		}
		e.meter.Record(ctx, rec)
	}

	if err != nil {
		return Result{Err: err}
	}

	var warnings []string
	if ext.Notes != "" {
		warnings = append(warnings, fmt.Sprintf("%s: %s", f.Name, ext.Notes))
	}
	if len(ext.Rows) == 0 {
		warnings = append(warnings, fmt.Sprintf("%s: model found no product lines", f.Name))
	}
	return Result{Rows: ext.Rows, Warnings: warnings}
}

func tokenCost(u VisionUsage) float64 {
	prices, ok := perMTokenUSD[u.Model]
	if !ok {
		return 0
	}
	return (float64(u.InputTokens)*prices[0] + float64(u.OutputTokens)*prices[1]) / 1e6
}

// parseVisionItems decodes a model response into rows. The canonical shape is
// {"products": [...], "extraction_notes": "..."}, but models also answer with
// an "items" key or a bare array, and Gemini tends to wrap JSON in markdown
// fences even when asked not to, so fences are stripped.
func parseVisionItems(content string) (VisionExtraction, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var envelope struct {
		Products        []map[string]any `json:"products"`
		Items           []map[string]any `json:"items"`
		ExtractionNotes string           `json:"extraction_notes"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		var items []map[string]any
		if err2 := json.Unmarshal([]byte(content), &items); err2 != nil {
			return VisionExtraction{}, fmt.Errorf("decode model response: %w", err)
		}
		envelope.Items = items
	}

	items := envelope.Products
	if len(items) == 0 {
		items = envelope.Items
	}

	rows := make([]model.CandidateRow, 0, len(items))
	for _, item := range items {
		row := NormalizeRow(item)
		if row.Name == "" {
			continue
		}
		row.Source = model.SourceAIVision
		row.Confidence = model.ConfidenceHigh
		rows = append(rows, row)
	}
	return VisionExtraction{Rows: rows, Notes: envelope.ExtractionNotes}, nil
}

// --- OpenAI ---

type openaiProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOpenAIVision(baseURL, modelName string) VisionProvider {
	return &openaiProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      modelName,
		httpClient: &http.Client{},
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) ExtractRows(ctx context.Context, apiKey string, f File) (VisionExtraction, VisionUsage, error) {
	usage := VisionUsage{Model: p.model}

	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMime(f), base64.StdEncoding.EncodeToString(f.Data))
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": visionPrompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"max_tokens":      4096,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return VisionExtraction{}, usage, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return VisionExtraction{}, usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return VisionExtraction{}, usage, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return VisionExtraction{}, usage, fmt.Errorf("openai returned %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return VisionExtraction{}, usage, fmt.Errorf("decode openai response: %w", err)
	}
	usage.InputTokens = out.Usage.PromptTokens
	usage.OutputTokens = out.Usage.CompletionTokens

	if len(out.Choices) == 0 {
		return VisionExtraction{}, usage, fmt.Errorf("openai returned no choices")
	}
	ext, err := parseVisionItems(out.Choices[0].Message.Content)
	return ext, usage, err
}

// --- Gemini ---

type geminiProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGeminiVision(baseURL, modelName string) VisionProvider {
	return &geminiProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      modelName,
		httpClient: &http.Client{},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) ExtractRows(ctx context.Context, apiKey string, f File) (VisionExtraction, VisionUsage, error) {
	usage := VisionUsage{Model: p.model}

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": visionPrompt},
					{"inline_data": map[string]string{
						"mime_type": imageMime(f),
						"data":      base64.StdEncoding.EncodeToString(f.Data),
					}},
				},
			},
		},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return VisionExtraction{}, usage, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return VisionExtraction{}, usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return VisionExtraction{}, usage, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return VisionExtraction{}, usage, fmt.Errorf("gemini returned %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int64 `json:"promptTokenCount"`
			CandidatesTokenCount int64 `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return VisionExtraction{}, usage, fmt.Errorf("decode gemini response: %w", err)
	}
	usage.InputTokens = out.UsageMetadata.PromptTokenCount
	usage.OutputTokens = out.UsageMetadata.CandidatesTokenCount

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return VisionExtraction{}, usage, fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	ext, err := parseVisionItems(text.String())
	return ext, usage, err
}

func imageMime(f File) string {
	if f.Mime != "" {
		return f.Mime
	}
	switch {
	case strings.HasSuffix(strings.ToLower(f.Name), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(f.Name), ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
