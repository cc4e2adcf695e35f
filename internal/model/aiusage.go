package model

import "time"

// AIUsageRecord captures one extraction call, local OCR or cloud. Local calls
// carry zero token cost; the record still tracks duration and outcome.
type AIUsageRecord struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	Provider     string    `db:"provider" json:"provider"`
	Operation    string    `db:"operation" json:"operation"`
	Model        *string   `db:"model" json:"model"`
	DurationMS   int64     `db:"duration_ms" json:"duration_ms"`
	InputTokens  int64     `db:"input_tokens" json:"input_tokens"`
	OutputTokens int64     `db:"output_tokens" json:"output_tokens"`
	CostUSD      float64   `db:"cost_usd" json:"cost_usd"`
	Success      bool      `db:"success" json:"success"`
	Error        *string   `db:"error" json:"error"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
