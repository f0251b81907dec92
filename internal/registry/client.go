package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"qrd/internal/providers"
	"qrd/internal/structures"
)

// Client looks up asset details in the external asset registry. Enrichment is
// optional: callers degrade gracefully when a lookup fails.
type Client interface {
	FetchAssetDetails(ctx context.Context, assetID, authToken string) (map[string]interface{}, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) Client {
	if !conf.Registry.Enabled || conf.Registry.BaseURL == "" {
		logger.Infof(providers.TypeApp, "Asset registry lookups disabled")
		return &noopClient{}
	}
	timeout := conf.Registry.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		baseURL: conf.Registry.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *httpClient) FetchAssetDetails(ctx context.Context, assetID, authToken string) (map[string]interface{}, error) {
	endpoint := c.baseURL + "/components/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("registry response decode: %w", err)
	}
	return body.Data, nil
}

type noopClient struct{}

func (n *noopClient) FetchAssetDetails(_ context.Context, _, _ string) (map[string]interface{}, error) {
	return nil, nil
}
