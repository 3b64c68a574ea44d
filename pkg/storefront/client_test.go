package storefront

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, cfg config.StorefrontConfig, rt roundTripFunc) *Client {
	t.Helper()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://api.test/"
	}
	client, err := NewClient(cfg, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestListProductsSendsFilters(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
		captured = req
		return respond(http.StatusOK, `[{"id":"p1","name":"Red Roses","price":1500,"category":"roses","imageUrl":"/r.jpg","inStock":true}]`), nil
	})

	products, err := client.ListProducts(context.Background(), ProductQuery{Category: " roses ", Search: ""})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if got := captured.URL.String(); got != "http://api.test/api/products?category=roses" {
		t.Fatalf("unexpected url %q", got)
	}
	if captured.Header.Get("Authorization") != "" {
		t.Fatalf("anonymous call must not send authorization")
	}
	if len(products) != 1 || !products[0].Price.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestOrdersForwardBearerToken(t *testing.T) {
	var auth string
	client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
		auth = req.Header.Get("Authorization")
		if req.URL.Path != "/api/orders/user" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		return respond(http.StatusOK, `[{"id":"o1","status":"delivered","total":"1650"}]`), nil
	})

	orders, err := client.ListUserOrders(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if auth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/orders/o%2F1" && req.URL.RawPath != "/api/orders/o%2F1" {
			t.Fatalf("expected escaped id, got %q", req.URL.String())
		}
		return respond(http.StatusNotFound, `{"message":"no such order"}`), nil
	})

	_, err := client.GetOrder(context.Background(), "tok", "o/1")
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServerErrorsAreDependencyFailures(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, `upstream down`), nil
	})

	_, err := client.DeliveryOptions(context.Background())
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, config.StorefrontConfig{BreakerMaxFailures: 2, BreakerOpenInterval: time.Minute}, func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusInternalServerError, `boom`), nil
	})

	for i := 0; i < 2; i++ {
		if _, err := client.ListProducts(context.Background(), ProductQuery{}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := client.ListProducts(context.Background(), ProductQuery{})
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error while open, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open breaker to short-circuit, transport saw %d calls", calls.Load())
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open state, got %s", client.BreakerState())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, config.StorefrontConfig{BreakerMaxFailures: 1}, func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusNotFound, `{}`), nil
	})

	for i := 0; i < 3; i++ {
		_, _ = client.GetProduct(context.Background(), "missing")
	}
	if calls.Load() != 3 {
		t.Fatalf("4xx must not open the breaker, transport saw %d calls", calls.Load())
	}
}

func TestRequestTimeout(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{Timeout: 20 * time.Millisecond}, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	start := time.Now()
	_, err := client.DeliveryOptions(context.Background())
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout was not applied")
	}
}

func TestValidateCouponVerdicts(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantValid  bool
		wantMsg    string
		wantAmount string
		wantErr    pkgerrors.Code
	}{
		{name: "accepted", status: 200, body: `{"valid":true,"discountAmount":150,"description":"10% off"}`, wantValid: true, wantAmount: "150"},
		{name: "accepted without flag", status: 200, body: `{"discountAmount":"99.5"}`, wantValid: true, wantAmount: "99.5"},
		{name: "rejected in body", status: 200, body: `{"valid":false,"message":"expired"}`, wantMsg: "expired"},
		{name: "rejected by status", status: 422, body: `{"message":"minimum order not met"}`, wantMsg: "minimum order not met"},
		{name: "4xx without message", status: 400, body: `{}`, wantErr: pkgerrors.CodeDependency},
		{name: "server error", status: 503, body: `{"message":"maintenance"}`, wantErr: pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sent map[string]any
			client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
				if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				return respond(tc.status, tc.body), nil
			})

			verdict, err := client.ValidateCoupon(context.Background(), CouponRequest{
				Code:     "SAVE10",
				Subtotal: decimal.NewFromInt(1500),
				Items:    []CouponItem{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(1500)}},
			})
			if sent["code"] != "SAVE10" {
				t.Fatalf("expected code in request, got %v", sent["code"])
			}
			if tc.wantErr != "" {
				if !pkgerrors.Is(err, tc.wantErr) {
					t.Fatalf("expected %s, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Valid != tc.wantValid || verdict.Message != tc.wantMsg {
				t.Fatalf("unexpected verdict %+v", verdict)
			}
			if tc.wantAmount != "" && !verdict.DiscountAmount.Equal(decimal.RequireFromString(tc.wantAmount)) {
				t.Fatalf("expected discount %s, got %s", tc.wantAmount, verdict.DiscountAmount)
			}
		})
	}
}

func TestSignInRejectionCarriesMessage(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"message":"Invalid email or password"}`), nil
	})

	_, err := client.SignIn(context.Background(), SignInRequest{Email: "a@b.in", Password: "wrongpass"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRejected {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if typed.Message() != "Invalid email or password" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestSignInSuccess(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected request %s %q", req.Method, req.Header.Get("Content-Type"))
		}
		return respond(http.StatusOK, `{"user":{"id":"u1","email":"asha@example.in","name":"Asha"},"token":"tok"}`), nil
	})

	res, err := client.SignIn(context.Background(), SignInRequest{Email: "asha@example.in", Password: "password1"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.User.ID != "u1" || res.Token != "tok" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCurrentUserUnauthorizedIsAnonymous(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"message":"no session"}`), nil
	})

	user, err := client.CurrentUser(context.Background(), "stale")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected anonymous, got %+v", user)
	}
}

func TestSignOutNoContent(t *testing.T) {
	client := newTestClient(t, config.StorefrontConfig{}, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("expected bearer token on sign-out")
		}
		return respond(http.StatusNoContent, ``), nil
	})
	if err := client.SignOut(context.Background(), "tok"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.StorefrontConfig{BaseURL: "  "}); err == nil {
		t.Fatalf("expected base url error")
	}
}
