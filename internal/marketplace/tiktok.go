package marketplace

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Listing is the marketplace-facing view of a product variant.
type Listing struct {
	SKU         string
	ProductName string
	Scent       string
	SizeOz      int32
	PriceCents  int64
	Stock       int32
}

// Shop pushes listings to an external marketplace.
type Shop interface {
	PushProduct(ctx context.Context, l Listing) (externalID string, err error)
}

// TikTok implements Shop against the TikTok Shop open API. Requests carry
// app_key/shop_id/timestamp query params plus an HMAC-SHA256 signature over
// path, sorted params and body.
type TikTok struct {
	AppKey     string
	AppSecret  string
	ShopID     string
	BaseURL    string
	HTTPClient Doer
	Now        func() time.Time
}

// Doer issues outbound HTTP requests. Both *http.Client and the retrying
// breaker-backed client satisfy it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

func (t TikTok) apiHost() string {
	host := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if host == "" {
		return "https://open-api.tiktokglobalshop.com"
	}
	return host
}

func (t TikTok) client() Doer {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (t TikTok) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// PushProduct creates or updates the product on TikTok Shop and returns the
// marketplace product id.
func (t TikTok) PushProduct(ctx context.Context, l Listing) (string, error) {
	if l.SKU == "" {
		return "", errors.New("listing sku is required")
	}
	body, err := json.Marshal(map[string]any{
		"product_name": fmt.Sprintf("%s - %s %doz Candle", l.ProductName, l.Scent, l.SizeOz),
		"skus": []map[string]any{
			{
				"seller_sku": l.SKU,
				"original_price": map[string]any{
					"amount":   strconv.FormatFloat(float64(l.PriceCents)/100, 'f', 2, 64),
					"currency": "USD",
				},
				"stock_infos": []map[string]any{
					{"available_stock": l.Stock},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	const path = "/api/products/save"
	params := url.Values{}
	params.Set("app_key", t.AppKey)
	params.Set("shop_id", t.ShopID)
	params.Set("timestamp", strconv.FormatInt(t.now().Unix(), 10))
	params.Set("sign", t.sign(path, params, body))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiHost()+path+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client().Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("tiktok: push product: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("tiktok: push product: status %d", resp.StatusCode)
	}
	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			ProductID string `json:"product_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("tiktok: decode response: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("tiktok: push product rejected: code %d: %s", result.Code, result.Message)
	}
	if result.Data.ProductID == "" {
		return "", errors.New("tiktok: response missing product id")
	}
	return result.Data.ProductID, nil
}

// sign builds the request signature: HMAC-SHA256 keyed with the app secret
// over secret + path + sorted key/value params + body + secret.
func (t TikTok) sign(path string, params url.Values, body []byte) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mac := hmac.New(sha256.New, []byte(t.AppSecret))
	mac.Write([]byte(t.AppSecret))
	mac.Write([]byte(path))
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte(params.Get(k)))
	}
	mac.Write(body)
	mac.Write([]byte(t.AppSecret))
	return hex.EncodeToString(mac.Sum(nil))
}
