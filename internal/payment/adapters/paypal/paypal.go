package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/jobboard/internal/config"
	paymentdomain "github.com/smallbiznis/jobboard/internal/payment/domain"
	pricingdomain "github.com/smallbiznis/jobboard/internal/pricing/domain"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath        = "/v1/oauth2/token"
	ordersPath       = "/v2/checkout/orders"
	headerRequestID  = "PayPal-Request-Id"
	defaultTimeout   = 15 * time.Second
	maxErrorBodySize = 4 << 10
)

// Client talks to the PayPal Orders v2 API with a client-credentials token.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns nil when PayPal credentials are not configured.
func New(cfg config.PayPalConfig, log *zap.Logger) *Client {
	if !cfg.Enabled() {
		return nil
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	transport := &oauth2.Transport{
		Source: cc.TokenSource(context.Background()),
		Base:   http.DefaultTransport,
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: transport, Timeout: defaultTimeout},
		log:     log.Named("payment.paypal"),
	}
}

// Provide adapts New to the provider interface for fx.
func Provide(cfg config.Config, log *zap.Logger) paymentdomain.Provider {
	client := New(cfg.PayPal, log)
	if client == nil {
		return nil
	}
	return client
}

func (c *Client) Name() string {
	return paymentdomain.ProviderPayPal
}

type orderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

func (c *Client) CreateOrder(ctx context.Context, order paymentdomain.ProviderOrder) (*paymentdomain.ProviderResult, error) {
	if order.AmountCents <= 0 {
		return nil, paymentdomain.ErrInvalidAmount
	}
	body := orderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			ReferenceID: order.ReferenceID,
			Description: order.Description,
			Amount: amount{
				CurrencyCode: strings.ToUpper(order.Currency),
				Value:        pricingdomain.FormatAmount(order.AmountCents),
			},
		}},
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, ordersPath, body, &resp); err != nil {
		return nil, err
	}
	return toResult(resp), nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*paymentdomain.ProviderResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, paymentdomain.ErrInvalidOrderID
	}

	var resp orderResponse
	path := ordersPath + "/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return toResult(resp), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrProviderRequest, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return paymentdomain.ErrOrderNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBodySize))
		c.log.Warn("paypal request failed",
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.ByteString("body", snippet),
		)
		return fmt.Errorf("%w: status %d", paymentdomain.ErrProviderRequest, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", paymentdomain.ErrProviderRequest, err)
	}
	return nil
}

func toResult(resp orderResponse) *paymentdomain.ProviderResult {
	result := &paymentdomain.ProviderResult{ID: resp.ID, Status: resp.Status}
	for _, link := range resp.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			result.ApproveURL = link.Href
			break
		}
	}
	return result
}
