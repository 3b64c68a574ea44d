package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/floret-storefront/internal/coupon"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// CouponEvaluator checks a code against the cart subtotal.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, items []coupon.Item) (coupon.Result, error)
}

// DeliveryCatalog loads the delivery options offered by the shop.
type DeliveryCatalog interface {
	DeliveryOptions(ctx context.Context) ([]delivery.Option, error)
}

// Listener observes every mutation. It runs on the mutating goroutine after
// the store lock is released.
type Listener func(Snapshot)

// Store holds the cart of one session. Every operation is serialized by a
// mutex, so the next read after a mutation always reflects it.
type Store struct {
	mu sync.Mutex

	sessionID   string
	lines       []Line
	coupon      *AppliedCoupon
	couponError string
	selected    string
	distanceKm  *float64
	catalog     []delivery.Option

	listeners    map[int]Listener
	nextListener int

	coupons    CouponEvaluator
	deliveries DeliveryCatalog
}

// NewStore builds an empty cart for sessionID.
func NewStore(sessionID string, coupons CouponEvaluator, deliveries DeliveryCatalog) (*Store, error) {
	if coupons == nil {
		return nil, errors.New("coupon evaluator required")
	}
	if deliveries == nil {
		return nil, errors.New("delivery catalog required")
	}
	return newStore(sessionID, coupons, deliveries), nil
}

func newStore(sessionID string, coupons CouponEvaluator, deliveries DeliveryCatalog) *Store {
	return &Store{
		sessionID:  sessionID,
		listeners:  map[int]Listener{},
		coupons:    coupons,
		deliveries: deliveries,
	}
}

func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// AddItem inserts product or increments its existing line by qty.
func (s *Store) AddItem(p Product, qty int) error {
	if p.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required").
			WithDetails(map[string]string{"productId": "required"})
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer").
			WithDetails(map[string]string{"quantity": "must be at least 1"})
	}

	s.mutate(func() {
		if i := s.indexOf(p.ID); i >= 0 {
			s.lines[i].Quantity += qty
			return
		}
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  qty,
			Category:  p.Category,
			ImageRef:  p.ImageRef,
		})
	})
	return nil
}

// UpdateQuantity replaces a line's quantity; qty <= 0 removes the line.
// Unknown products are ignored.
func (s *Store) UpdateQuantity(productID string, qty int) {
	s.mutate(func() {
		i := s.indexOf(productID)
		if i < 0 {
			return
		}
		if qty <= 0 {
			s.removeAt(i)
			return
		}
		s.lines[i].Quantity = qty
	})
}

// RemoveItem deletes the line for productID if present.
func (s *Store) RemoveItem(productID string) {
	s.mutate(func() {
		if i := s.indexOf(productID); i >= 0 {
			s.removeAt(i)
		}
	})
}

// TotalItems is the sum of line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems()
}

// TotalPrice is recomputed from the lines on every call.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPrice()
}

// FinalAmount is the total less any discount, floored at zero.
func (s *Store) FinalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalAmount()
}

// ApplyCoupon evaluates code against the current total. A business rejection
// is reported through the outcome and CouponError with a nil error. Blank
// codes and transport failures return an error and leave the coupon as is.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (CouponOutcome, error) {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return CouponOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	subtotal := s.totalPrice()
	items := make([]coupon.Item, 0, len(s.lines))
	for _, l := range s.lines {
		items = append(items, coupon.Item{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	s.mu.Unlock()

	// the remote call runs unlocked; a cart emptied meanwhile drops the result
	res, err := s.coupons.Evaluate(ctx, code, subtotal, items)
	if err != nil {
		return CouponOutcome{}, err
	}

	var outcome CouponOutcome
	emptied := false
	s.mutate(func() {
		if len(s.lines) == 0 {
			emptied = true
			return
		}
		if !res.Accepted {
			s.couponError = res.Reason
			outcome = CouponOutcome{Reason: res.Reason}
			return
		}
		s.coupon = &AppliedCoupon{
			Code:           res.Code,
			Description:    res.Description,
			DiscountAmount: res.DiscountAmount,
		}
		s.couponError = ""
		outcome = CouponOutcome{Success: true, DiscountAmount: res.DiscountAmount}
	})
	if emptied {
		return CouponOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return outcome, nil
}

// RemoveCoupon clears the coupon and any coupon error.
func (s *Store) RemoveCoupon() {
	s.mutate(func() {
		s.coupon = nil
		s.couponError = ""
	})
}

// LoadDeliveryOptions returns the unfiltered catalog. It is fetched once and
// reused for the lifetime of the cart.
func (s *Store) LoadDeliveryOptions(ctx context.Context) ([]delivery.Option, error) {
	s.mu.Lock()
	cached := s.catalog
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	options, err := s.deliveries.DeliveryOptions(ctx)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []delivery.Option{}
	}

	s.mu.Lock()
	if s.catalog == nil {
		s.catalog = options
	}
	cached = s.catalog
	s.mu.Unlock()
	return cached, nil
}

// ApplyEligibility filters all by distanceKm and moves the selection to the
// policy default when the current one is no longer eligible. Listeners are
// only notified when the selection changes.
func (s *Store) ApplyEligibility(policy delivery.Policy, all []delivery.Option, distanceKm *float64) []delivery.Option {
	eligible := policy.Filter(all, distanceKm)

	s.mutateIf(func() bool {
		s.distanceKm = copyDistance(distanceKm)
		next, changed := policy.SelectDefault(all, eligible, distanceKm, s.selected)
		if changed {
			s.selected = next
		}
		return changed
	})
	return eligible
}

// SelectDelivery picks an option from the loaded catalog. The option must be
// eligible at the last known distance or be the policy default for it.
func (s *Store) SelectDelivery(ctx context.Context, policy delivery.Policy, optionID string) (delivery.Option, error) {
	all, err := s.LoadDeliveryOptions(ctx)
	if err != nil {
		return delivery.Option{}, err
	}
	option, ok := delivery.Find(all, optionID)
	if !ok {
		return delivery.Option{}, pkgerrors.New(pkgerrors.CodeNotFound, "delivery option not found")
	}

	s.mu.Lock()
	distance := copyDistance(s.distanceKm)
	s.mu.Unlock()
	eligible := policy.Filter(all, distance)
	if _, ok := delivery.Find(eligible, optionID); !ok && !isDefault(policy, all, eligible, distance, optionID) {
		return delivery.Option{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery option not available for this address").
			WithDetails(map[string]string{"optionId": "not eligible"})
	}

	s.mutate(func() { s.selected = optionID })
	return option, nil
}

// SelectedDelivery returns the selected option when the catalog is loaded.
func (s *Store) SelectedDelivery() (delivery.Option, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedOption()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for change notifications. The returned func cancels it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close drops every listener. The cart contents stay readable.
func (s *Store) Close() {
	s.mu.Lock()
	s.listeners = map[int]Listener{}
	s.mu.Unlock()
}

// mutate runs fn under the lock, clears the coupon when the cart ends up
// empty, then notifies listeners with the resulting snapshot.
func (s *Store) mutate(fn func()) {
	s.mutateIf(func() bool {
		fn()
		return true
	})
}

// mutateIf is mutate for changes decided under the lock. Listeners are
// skipped when fn reports no change.
func (s *Store) mutateIf(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	if len(s.lines) == 0 {
		s.coupon = nil
		s.couponError = ""
	}
	snap := s.snapshot()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) snapshot() Snapshot {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)

	snap := Snapshot{
		SessionID:   s.sessionID,
		Lines:       lines,
		TotalItems:  s.totalItems(),
		TotalPrice:  s.totalPrice(),
		Discount:    s.discount(),
		FinalAmount: s.finalAmount(),
		CouponError: s.couponError,
		DistanceKm:  copyDistance(s.distanceKm),
	}
	snap.Payable = snap.FinalAmount
	if s.coupon != nil {
		c := *s.coupon
		snap.Coupon = &c
	}
	if option, ok := s.selectedOption(); ok {
		snap.Delivery = &option
		snap.Payable = snap.Payable.Add(option.Price)
	}
	return snap
}

func (s *Store) selectedOption() (delivery.Option, bool) {
	if s.selected == "" {
		return delivery.Option{}, false
	}
	return delivery.Find(s.catalog, s.selected)
}

func (s *Store) totalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

func (s *Store) totalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) discount() decimal.Decimal {
	if s.coupon == nil {
		return decimal.Zero
	}
	return s.coupon.DiscountAmount
}

func (s *Store) finalAmount() decimal.Decimal {
	return decimal.Max(s.totalPrice().Sub(s.discount()), decimal.Zero)
}

func (s *Store) indexOf(productID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func isDefault(policy delivery.Policy, all, eligible []delivery.Option, distanceKm *float64, optionID string) bool {
	id, _ := policy.SelectDefault(all, eligible, distanceKm, "")
	return id == optionID
}

func copyDistance(d *float64) *float64 {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
