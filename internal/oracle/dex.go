package oracle

import (
	"context"
	"fmt"
	"net/url"
)

// DexClient implements SpotSource against an exchange price router's
// JSON API: GET {endpoint}/v1/spot/{pair}. Spot prices carry no
// timestamp and are assumed fresh at call time.
type DexClient struct {
	http *HTTPClient
}

// NewDexClient creates a new exchange price router client.
func NewDexClient(endpoint string, opts ...ClientOption) *DexClient {
	return &DexClient{http: NewHTTPClient(endpoint, opts...)}
}

// spotResponse is the router's spot-price payload.
type spotResponse struct {
	Pair  string `json:"pair"`
	Price int64  `json:"price"` // 8-decimal fixed point
}

// GetSpotPrice fetches the current spot price for pair.
func (c *DexClient) GetSpotPrice(ctx context.Context, pair string) (int64, error) {
	var resp spotResponse
	u := fmt.Sprintf("%s/v1/spot/%s", c.http.endpoint, url.PathEscape(pair))
	if err := c.http.get(ctx, u, &resp); err != nil {
		return 0, err
	}
	return resp.Price, nil
}

// Compile-time interface check.
var _ SpotSource = (*DexClient)(nil)
