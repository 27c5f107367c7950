package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Source is the raw upstream signal API. Calls may fail; the Gateway is the
// layer that turns failures into fallback data.
type Source interface {
	GetProducts(ctx context.Context, clientId string) ([]ProductSignal, error)
	GetStock(ctx context.Context, clientId string) ([]StockSignal, error)
	GetOrderHistory(ctx context.Context, clientId string) ([]OrderHistorySignal, error)
}

type httpSource struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

// NewHTTPSource builds the production Source from env:
// - SIGNAL_API_BASE_URL (default https://api.repository1.com)
// - SIGNAL_API_KEY / SIGNAL_API_KEY_HEADER (default X-API-Key)
// - SIGNAL_API_TIMEOUT_SECONDS (default 10)
func NewHTTPSource() Source {
	baseURL := strings.TrimSpace(os.Getenv("SIGNAL_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.repository1.com"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("SIGNAL_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	timeout := 10 * time.Second
	if v := strings.TrimSpace(os.Getenv("SIGNAL_API_TIMEOUT_SECONDS")); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	return &httpSource{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("SIGNAL_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: timeout},
	}
}

func (s *httpSource) GetProducts(ctx context.Context, clientId string) ([]ProductSignal, error) {
	var out []ProductSignal
	if err := s.getList(ctx, "/api/products", clientId, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *httpSource) GetStock(ctx context.Context, clientId string) ([]StockSignal, error) {
	var out []StockSignal
	if err := s.getList(ctx, "/api/stock", clientId, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *httpSource) GetOrderHistory(ctx context.Context, clientId string) ([]OrderHistorySignal, error) {
	var out []OrderHistorySignal
	if err := s.getList(ctx, "/api/orders/history", clientId, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *httpSource) getList(ctx context.Context, path string, clientId string, dest interface{}) error {
	params := url.Values{}
	params.Set("clientId", clientId)
	endpoint := s.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set(s.apiKeyHdr, s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("signal api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return err
	}
	return nil
}
