package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/port-douala/meteomarine-api/internal/models"
)

// Client pulls observation rows from the remote weather/tide API.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates the upstream client.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads the full observation table. The upstream emits a JSON
// array of objects with mixed value types; every value is normalized to a
// string so downstream code decides how to interpret it.
func (c *Client) Fetch(ctx context.Context) ([]models.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch observations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream API error: status %d: %s", resp.StatusCode, body)
	}

	var raw []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	rows := make([]models.Observation, 0, len(raw))
	for _, entry := range raw {
		obs := make(models.Observation, len(entry))
		for key, value := range entry {
			obs[key] = stringify(value)
		}
		rows = append(rows, obs)
	}

	c.logger.Debug("observations fetched", zap.Int("rows", len(rows)))
	return rows, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
