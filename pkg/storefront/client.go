package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	routeCurrentUser     = "/api/auth/user"
	routeSignIn          = "/api/auth/signin"
	routeSignUp          = "/api/auth/signup"
	routeSignOut         = "/api/auth/signout"
	routeProducts        = "/api/products"
	routeDeliveryOptions = "/api/delivery-options"
	routeCouponValidate  = "/api/coupons/validate"
	routeOrders          = "/api/orders"
	routeUserOrders      = "/api/orders/user"

	errorBodyLimit            = 4096
	defaultBreakerMaxFailures = 5
)

// Client talks to the retailer's remote commerce API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	metrics    *metrics.Storefront
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records per-route call outcomes.
func WithMetrics(m *metrics.Storefront) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(cfg config.StorefrontConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("storefront api base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing storefront api base url: %w", err)
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    base,
		timeout:    cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    "storefront-api",
			Timeout: cfg.BreakerOpenInterval,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BreakerState reports the circuit breaker state for readiness checks.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// CurrentUser returns the user behind token, or nil when the API reports none.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var body struct {
		User *User `json:"user"`
	}
	err := c.send(ctx, request{route: routeCurrentUser, method: http.MethodGet, path: routeCurrentUser, token: token}, &body)
	if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return body.User, nil
}

// SignIn exchanges credentials for a user and token. Wrong credentials come
// back as a CodeRejected error carrying the remote message.
func (c *Client) SignIn(ctx context.Context, in SignInRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.send(ctx, request{route: routeSignIn, method: http.MethodPost, path: routeSignIn, body: in, rejectable: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.send(ctx, request{route: routeSignUp, method: http.MethodPost, path: routeSignUp, body: in, rejectable: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.send(ctx, request{route: routeSignOut, method: http.MethodPost, path: routeSignOut, token: token}, nil)
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]Product, error) {
	params := url.Values{}
	if v := strings.TrimSpace(q.Category); v != "" {
		params.Set("category", v)
	}
	if v := strings.TrimSpace(q.Search); v != "" {
		params.Set("search", v)
	}
	var out []Product
	if err := c.send(ctx, request{route: routeProducts, method: http.MethodGet, path: routeProducts, query: params}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var out Product
	path := routeProducts + "/" + url.PathEscape(id)
	if err := c.send(ctx, request{route: routeProducts + "/:id", method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeliveryOptions returns the full delivery catalog, unfiltered.
func (c *Client) DeliveryOptions(ctx context.Context) ([]DeliveryOption, error) {
	var out []DeliveryOption
	if err := c.send(ctx, request{route: routeDeliveryOptions, method: http.MethodGet, path: routeDeliveryOptions}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateCoupon asks the remote API to price a coupon against a cart. A 4xx
// with a message, or a 2xx with valid=false, is a rejected verdict.
func (c *Client) ValidateCoupon(ctx context.Context, in CouponRequest) (CouponVerdict, error) {
	var body struct {
		Valid          *bool           `json:"valid"`
		DiscountAmount decimal.Decimal `json:"discountAmount"`
		Description    string          `json:"description"`
		Message        string          `json:"message"`
	}
	err := c.send(ctx, request{route: routeCouponValidate, method: http.MethodPost, path: routeCouponValidate, body: in, rejectable: true}, &body)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeRejected {
			return CouponVerdict{Valid: false, Message: typed.Message()}, nil
		}
		return CouponVerdict{}, err
	}
	if body.Valid != nil && !*body.Valid {
		return CouponVerdict{Valid: false, Message: body.Message}, nil
	}
	return CouponVerdict{
		Valid:          true,
		DiscountAmount: body.DiscountAmount,
		Description:    body.Description,
	}, nil
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var out Order
	path := routeOrders + "/" + url.PathEscape(id)
	if err := c.send(ctx, request{route: routeOrders + "/:id", method: http.MethodGet, path: path, token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUserOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	if err := c.send(ctx, request{route: routeUserOrders, method: http.MethodGet, path: routeUserOrders, token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type request struct {
	route      string
	method     string
	path       string
	query      url.Values
	token      string
	body       any
	rejectable bool
}

// serverError marks a 5xx so the breaker counts it as a failure.
type serverError struct {
	status int
	body   string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var payload []byte
	if r.body != nil {
		encoded, err := json.Marshal(r.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		payload = encoded
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := strings.TrimSpace(r.token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			return nil, &serverError{status: resp.StatusCode, body: readLimited(resp.Body)}
		}
		return resp, nil
	})
	if err != nil {
		c.metrics.IncRemoteCall(r.route, "error")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", r.method, r.route))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw := readLimited(resp.Body)
		failure := classifyStatus(r, resp.StatusCode, raw)
		if failure.Code() == pkgerrors.CodeRejected {
			c.metrics.IncRemoteCall(r.route, "rejected")
		} else {
			c.metrics.IncRemoteCall(r.route, "error")
		}
		return failure
	}
	c.metrics.IncRemoteCall(r.route, "ok")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", r.route))
	}
	return nil
}

func classifyStatus(r request, status int, raw string) *pkgerrors.Error {
	var body errorBody
	_ = json.Unmarshal([]byte(raw), &body)
	message := strings.TrimSpace(body.Message)

	switch {
	case r.rejectable && status >= 400 && status < 500 && message != "":
		return pkgerrors.New(pkgerrors.CodeRejected, message)
	case status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "remote api rejected credentials")
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", r.route))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", status, raw),
			fmt.Sprintf("%s %s failed", r.method, r.route))
	}
}

func readLimited(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
	return strings.TrimSpace(string(raw))
}
