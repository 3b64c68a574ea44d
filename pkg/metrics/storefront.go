package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront holds the service's prometheus collectors. A nil *Storefront is a no-op.
type Storefront struct {
	httpDuration  *prometheus.HistogramVec
	remoteCalls   *prometheus.CounterVec
	couponResults *prometheus.CounterVec
	sessionEvents *prometheus.CounterVec
	openCarts     prometheus.Gauge
}

// NewStorefront registers the storefront collectors on reg.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	s := &Storefront{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the storefront.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_remote_calls_total",
			Help: "Calls made to the remote commerce API by route and outcome.",
		}, []string{"route", "outcome"}),
		couponResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_coupon_evaluations_total",
			Help: "Coupon evaluations by result.",
		}, []string{"result"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_session_events_total",
			Help: "Session broadcasts consumed, by event type.",
		}, []string{"type"}),
		openCarts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_open_carts",
			Help: "Carts currently held in memory.",
		}),
	}
	reg.MustRegister(s.httpDuration, s.remoteCalls, s.couponResults, s.sessionEvents, s.openCarts)
	return s
}

func (s *Storefront) ObserveHTTP(method, route string, status int, d time.Duration) {
	if s == nil || s.httpDuration == nil {
		return
	}
	s.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func (s *Storefront) IncRemoteCall(route, outcome string) {
	if s == nil || s.remoteCalls == nil {
		return
	}
	s.remoteCalls.WithLabelValues(normalizeLabel(route), normalizeLabel(outcome)).Inc()
}

func (s *Storefront) IncCouponResult(result string) {
	if s == nil || s.couponResults == nil {
		return
	}
	s.couponResults.WithLabelValues(normalizeLabel(result)).Inc()
}

func (s *Storefront) IncSessionEvent(eventType string) {
	if s == nil || s.sessionEvents == nil {
		return
	}
	s.sessionEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (s *Storefront) SetOpenCarts(n int) {
	if s == nil || s.openCarts == nil {
		return
	}
	s.openCarts.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
