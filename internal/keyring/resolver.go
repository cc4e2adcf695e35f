package keyring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// defaultOrder is the provider preference when the caller does not ask for a
// specific one.
var defaultOrder = []string{ProviderOpenAI, ProviderGemini}

// Resolver fetches tenant-supplied API keys (BYOK) from the credential
// service. A missing key is a normal "not configured" outcome, reported as an
// empty key with a nil error.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedKey
}

type cachedKey struct {
	key       string
	fetchedAt time.Time
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func NewResolver(cfg *Config, logger *zap.Logger) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Resolver{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cacheTTL,
		logger:     logger,
		cache:      make(map[string]cachedKey),
	}
}

// GetAPIKey returns the tenant's key for a provider, or "" when none is
// configured. Only transport failures produce an error.
func (r *Resolver) GetAPIKey(ctx context.Context, tenantID, provider string) (string, error) {
	cacheKey := tenantID + ":" + provider

	r.mu.Lock()
	if entry, ok := r.cache[cacheKey]; ok && time.Since(entry.fetchedAt) < r.cacheTTL {
		r.mu.Unlock()
		return entry.key, nil
	}
	r.mu.Unlock()

	key, err := r.fetch(ctx, tenantID, provider)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[cacheKey] = cachedKey{key: key, fetchedAt: time.Now()}
	r.mu.Unlock()

	return key, nil
}

// GetBestAvailableProvider walks the preference order and returns the first
// provider the tenant has a key for. Empty provider means none configured.
func (r *Resolver) GetBestAvailableProvider(ctx context.Context, tenantID string) (provider, key string, err error) {
	for _, p := range defaultOrder {
		k, err := r.GetAPIKey(ctx, tenantID, p)
		if err != nil {
			r.logger.Warn("credential lookup failed",
				zap.String("provider", p),
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
			continue
		}
		if k != "" {
			return p, k, nil
		}
	}
	return "", "", nil
}

func (r *Resolver) fetch(ctx context.Context, tenantID, provider string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/credentials/%s?tenant_id=%s",
		r.baseURL, url.PathEscape(provider), url.QueryEscape(tenantID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("credential service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("credential service returned %d", resp.StatusCode)
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode credential response: %w", err)
	}
	return body.APIKey, nil
}
