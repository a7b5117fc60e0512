package off

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/campuswell/nutriscan/internal/types"
)

// Fields is the fixed projection requested from the API. We never pull the
// full record; this keeps payloads small on mobile networks.
const Fields = "product_name,nutrition_grades,nutriments,allergens,ingredients_text,additives_tags,brands,image_url,serving_size"

// DefaultTimeout is the hard ceiling on a single product request.
const DefaultTimeout = 8 * time.Second

// Admitter gates outbound requests. Satisfied by ratelimit.Limiter.
type Admitter interface {
	Admit(ctx context.Context) error
}

// Fetcher retrieves a single raw product record by barcode.
// A nil product with a nil error means the barcode has no record upstream.
type Fetcher interface {
	Lookup(ctx context.Context, barcode string) (*types.Product, error)
}

// Client is the HTTP implementation of Fetcher against the Open Food Facts
// product API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    Admitter
	log        *slog.Logger
}

// Ensure Client implements Fetcher interface
var _ Fetcher = (*Client)(nil)

// NewClient creates a product fetcher. The limiter is consulted before every
// network call.
func NewClient(baseURL, userAgent string, timeout time.Duration, limiter Admitter, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        logger,
	}
}

// lookupResponse is the API envelope: status 1 carries a product payload,
// status 0 is a valid "no such barcode" business response.
type lookupResponse struct {
	Status  int            `json:"status"`
	Product *types.Product `json:"product"`
}

// Lookup fetches one barcode. It admits through the rate limiter, issues a
// time-bounded GET with the fixed field projection, and maps failures to
// typed errors. Not-found returns (nil, nil).
func (c *Client) Lookup(ctx context.Context, barcode string) (*types.Product, error) {
	if err := c.limiter.Admit(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	requestURL := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, url.PathEscape(barcode), url.QueryEscape(Fields))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.log.Debug("Fetching product", "barcode", barcode)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			c.log.Warn("Product fetch timed out", "barcode", barcode, "duration", time.Since(start))
			return nil, &TimeoutError{Err: err}
		}
		c.log.Warn("Product fetch failed", "barcode", barcode, "error", err)
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Product fetch returned non-2xx", "barcode", barcode, "status", resp.StatusCode)
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("Product response body malformed", "barcode", barcode, "error", err)
		return nil, &TransportError{Err: fmt.Errorf("malformed response body: %w", err)}
	}

	if body.Status == 0 || body.Product == nil {
		c.log.Info("Product not found upstream", "barcode", barcode, "duration", time.Since(start))
		return nil, nil
	}

	product := body.Product
	if product.Code == "" {
		product.Code = barcode
	}

	c.log.Info("Product fetched", "barcode", barcode, "name", product.ProductName, "duration", time.Since(start))
	return product, nil
}

// isClientTimeout catches net/http's own timeout error, which is a
// url.Error wrapping a net.Error with Timeout() == true.
func isClientTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
