// Package shopify reads orders from the Shopify Admin GraphQL API and maps
// them to invoice input.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrOrderNotFound is returned when Shopify has no order with the given ID.
var ErrOrderNotFound = errors.New("order not found in Shopify")

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2025-01"

const orderQuery = `query GetOrder($id: ID!) {
  order(id: $id) {
    id
    name
    createdAt
    displayFinancialStatus
    customer { firstName lastName email }
    shippingAddress { firstName lastName address1 address2 city zip countryCode province }
    billingAddress { firstName lastName address1 address2 city zip countryCode province }
    lineItems(first: 100) {
      nodes {
        id
        title
        variantTitle
        sku
        quantity
        originalUnitPriceSet { shopMoney { amount currencyCode } }
        taxLines { rate title }
      }
    }
    totalPriceSet { shopMoney { amount currencyCode } }
    totalTaxSet { shopMoney { amount currencyCode } }
  }
}`

// TokenFunc returns the Admin API access token of a shop.
type TokenFunc func(ctx context.Context, shop string) (string, error)

// StaticToken uses the same token for every shop.
func StaticToken(token string) TokenFunc {
	return func(context.Context, string) (string, error) {
		if token == "" {
			return "", errors.New("no Shopify access token configured")
		}
		return token, nil
	}
}

// Client calls the Admin GraphQL API of the shop named in each request.
type Client struct {
	apiVersion string
	token      TokenFunc
	client     *http.Client
	endpoint   string // overrides the per-shop URL, used in tests
}

// NewClient creates a Client.
func NewClient(apiVersion string, token TokenFunc) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		apiVersion: apiVersion,
		token:      token,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) url(shop string) string {
	if c.endpoint != "" {
		return c.endpoint
	}
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, c.apiVersion)
}

// OrderGID turns a numeric order ID into its global ID. Global IDs are
// returned unchanged.
func OrderGID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return "gid://shopify/Order/" + id
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type orderResponse struct {
	Data struct {
		Order *Order `json:"order"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchOrder loads one order of shop.
func (c *Client) FetchOrder(ctx context.Context, shop, orderID string) (Order, error) {
	token, err := c.token(ctx, shop)
	if err != nil {
		return Order{}, fmt.Errorf("getting access token for %s: %w", shop, err)
	}

	payload, err := json.Marshal(graphQLRequest{
		Query:     orderQuery,
		Variables: map[string]any{"id": OrderGID(orderID)},
	})
	if err != nil {
		return Order{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(shop), bytes.NewReader(payload))
	if err != nil {
		return Order{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("shopify request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Order{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Order{}, fmt.Errorf("shopify API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out orderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Order{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return Order{}, fmt.Errorf("shopify GraphQL errors: %s", strings.Join(msgs, "; "))
	}
	if out.Data.Order == nil {
		return Order{}, ErrOrderNotFound
	}
	return *out.Data.Order, nil
}
