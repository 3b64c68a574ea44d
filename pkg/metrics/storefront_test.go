package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStorefrontMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)

	m.IncSessionEvent("logout")
	m.IncSessionEvent("logout")
	m.IncCouponResult("")
	m.IncRemoteCall("/api/products", "ok")
	m.ObserveHTTP("GET", "/api/cart", 200, 15*time.Millisecond)
	m.SetOpenCarts(3)

	if got := testutil.ToFloat64(m.sessionEvents.WithLabelValues("logout")); got != 2 {
		t.Fatalf("expected 2 logout events, got %v", got)
	}
	if got := testutil.ToFloat64(m.couponResults.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty label to normalize to unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.openCarts); got != 3 {
		t.Fatalf("expected 3 open carts, got %v", got)
	}
	if n := testutil.CollectAndCount(m.httpDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestNilStorefrontIsNoop(t *testing.T) {
	var m *Storefront
	m.IncSessionEvent("login")
	m.IncRemoteCall("x", "y")
	m.IncCouponResult("accepted")
	m.ObserveHTTP("GET", "/", 200, time.Second)
	m.SetOpenCarts(1)

	empty := NewStorefront(nil)
	empty.IncSessionEvent("login")
}
