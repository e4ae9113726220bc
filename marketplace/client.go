package marketplace

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx answer from the marketplace API.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d | %s | %s", e.StatusCode, e.URL, e.Body)
}

type PurchaseOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PurchaseInfo struct {
	InvoiceID int64            `json:"inv"`
	ProductID int64            `json:"id_goods"`
	Name      string           `json:"name_goods"`
	Amount    float64          `json:"amount"`
	Currency  string           `json:"type_curr"`
	Email     string           `json:"email"`
	Date      string           `json:"date_pay"`
	Options   []PurchaseOption `json:"options"`
}

// FirstOptionValue is what the buyer typed into the first purchase form field.
func (p PurchaseInfo) FirstOptionValue() string {
	if len(p.Options) == 0 {
		return ""
	}
	return p.Options[0].Value
}

type ProductInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Info string `json:"info"`
}

type Client interface {
	GetPurchaseByCode(ctx context.Context, code string) (PurchaseInfo, error)
	GetProduct(ctx context.Context, productID int64) (ProductInfo, error)
}

type token struct {
	Value     string `json:"token"`
	ValidThru string `json:"valid_thru"`
	expires   time.Time
}

type client struct {
	endpoint   string
	sellerID   int64
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time

	mu    sync.Mutex
	token *token
}

func NewClient(endpoint string, sellerID int64, apiKey string, rps int, timeout time.Duration) Client {
	if rps <= 0 {
		rps = 1
	}
	return &client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		sellerID:   sellerID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		now:        time.Now,
	}
}

type purchaseEnvelope struct {
	Retval  int    `json:"retval"`
	RetDesc string `json:"retdesc"`
	PurchaseInfo
}

func (c *client) GetPurchaseByCode(ctx context.Context, code string) (PurchaseInfo, error) {
	var env purchaseEnvelope
	err := c.get(ctx, "/purchases/unique-code/"+url.PathEscape(code), nil, &env)
	if err != nil {
		return PurchaseInfo{}, err
	}
	if env.Retval != 0 {
		return PurchaseInfo{}, fmt.Errorf("purchase %s: %s: %w", code, env.RetDesc, ErrNotFound)
	}
	return env.PurchaseInfo, nil
}

func (c *client) GetProduct(ctx context.Context, productID int64) (ProductInfo, error) {
	var products []ProductInfo
	params := url.Values{"ids": {strconv.FormatInt(productID, 10)}}
	if err := c.get(ctx, "/products/list", params, &products); err != nil {
		return ProductInfo{}, err
	}
	if len(products) == 0 {
		return ProductInfo{}, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return products[0], nil
}

func (c *client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	tok, err := c.rotateToken(ctx)
	if err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", tok)
	return c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, out)
}

// rotateToken returns a cached token, logging in again once it expires.
func (c *client) rotateToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.now().Before(c.token.expires) {
		return c.token.Value, nil
	}

	timestamp := c.now().Unix()
	sum := sha256.Sum256([]byte(c.apiKey + strconv.FormatInt(timestamp, 10)))
	body := map[string]interface{}{
		"seller_id": c.sellerID,
		"timestamp": timestamp,
		"sign":      hex.EncodeToString(sum[:]),
	}

	var t token
	if err := c.do(ctx, http.MethodPost, "/apilogin", body, &t); err != nil {
		return "", fmt.Errorf("marketplace login: %w", err)
	}
	if t.Value == "" {
		return "", errors.New("marketplace login: empty token")
	}
	t.expires = parseValidThru(t.ValidThru, c.now())
	c.token = &t
	return t.Value, nil
}

// parseValidThru understands timestamps with arbitrary fractional seconds;
// unparsable values expire the token after a minute.
func parseValidThru(s string, now time.Time) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts
	}
	return now.Add(time.Minute)
}

func (c *client) do(ctx context.Context, method, pathAndQuery string, in, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+pathAndQuery, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.Path, Body: strings.TrimSpace(string(text))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
