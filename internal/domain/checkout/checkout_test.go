package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodgrove/furnish/internal/domain/account"
	"github.com/woodgrove/furnish/internal/domain/cart"
	"github.com/woodgrove/furnish/internal/domain/catalog"
	"github.com/woodgrove/furnish/internal/domain/coupon"
	"github.com/woodgrove/furnish/internal/domain/inventory"
	"github.com/woodgrove/furnish/internal/domain/order"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// memCatalog is an in-memory catalog.Repository keyed by variant.
type memCatalog struct {
	rows map[catalog.Variant]*catalog.Row
}

var _ catalog.Repository = (*memCatalog)(nil)

func (m *memCatalog) FindByVariant(_ context.Context, v catalog.Variant) (*catalog.Row, error) {
	row, ok := m.rows[v]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memCatalog) ListByPriceRange(context.Context, decimal.Decimal, decimal.Decimal) ([]catalog.Row, error) {
	return nil, nil
}

func (m *memCatalog) FirstInStock(context.Context, []int64) (*catalog.Row, error) {
	return nil, catalog.ErrNotFound
}

func (m *memCatalog) AdjustQuantity(_ context.Context, id int64, delta int) error {
	for _, row := range m.rows {
		if row.ID == id {
			if row.Quantity+delta < 0 {
				return catalog.ErrInsufficientQuantity
			}
			row.Quantity += delta
			return nil
		}
	}
	return catalog.ErrNotFound
}

func (m *memCatalog) Upsert(context.Context, catalog.Row) error { return nil }

// memAccounts serves a single user.
type memAccounts struct {
	account.Repository
	user *account.User
}

func (m *memAccounts) GetUser(_ context.Context, email string) (*account.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, account.ErrNotFound
	}
	cp := *m.user
	return &cp, nil
}

// memCoupons serves a fixed code set.
type memCoupons struct {
	byCode map[string]coupon.Coupon
}

var _ coupon.Repository = (*memCoupons)(nil)

func (m *memCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &c, nil
}

func (m *memCoupons) Upsert(context.Context, coupon.Coupon) error { return nil }

// memStore records the commit it receives.
type memStore struct {
	committed *CommitParams
	err       error
}

var _ Store = (*memStore)(nil)

func (m *memStore) Commit(_ context.Context, p CommitParams) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.committed = &p
	return &order.Order{
		ID:        "order-1",
		UserEmail: p.UserEmail,
		Status:    order.StatusPending,
		Items:     p.Items,
		CouponID:  p.CouponID,
		Total:     p.Total,
	}, nil
}

type fixture struct {
	catalog *memCatalog
	store   *memStore
	svc     *Service
	cart    *cart.Cart
	ledger  *inventory.Ledger
}

func newFixture(t *testing.T, credit string) *fixture {
	t.Helper()

	cat := &memCatalog{rows: map[catalog.Variant]*catalog.Row{}}
	for i, spec := range []struct {
		color, material, price string
	}{
		{"brown", "wood", "1500"},
		{"gray", "metal", "500"},
	} {
		v, err := catalog.NewTableVariant(catalog.KindDiningTable, spec.color, spec.material)
		require.NoError(t, err)
		cat.rows[v] = &catalog.Row{
			ID:       int64(i + 1),
			Kind:     v.Kind,
			Color:    v.Color,
			Material: v.Material,
			Price:    d(spec.price),
			Quantity: 10,
		}
	}

	ledger := inventory.NewLedger(cat)
	store := &memStore{}
	sc, err := coupon.New("SAVE10", 10)
	require.NoError(t, err)

	svc := NewService(
		&memCoupons{byCode: map[string]coupon.Coupon{"SAVE10": sc}},
		ledger,
		&memAccounts{user: &account.User{Email: "buyer@shop.com", Credit: d(credit)}},
		CardValidator{},
		store,
	)

	return &fixture{catalog: cat, store: store, svc: svc, cart: cart.New(), ledger: ledger}
}

func (f *fixture) addToCart(t *testing.T, color, material string, qty int) {
	t.Helper()
	v, err := catalog.NewTableVariant(catalog.KindDiningTable, color, material)
	require.NoError(t, err)
	row, err := f.catalog.FindByVariant(context.Background(), v)
	require.NoError(t, err)
	added, err := f.cart.Add(context.Background(), f.ledger, *row, qty)
	require.NoError(t, err)
	require.True(t, added)
}

const validCard = "4111111111111111"

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, "0")
	_, err := f.svc.Checkout(context.Background(), f.cart, Request{UserEmail: "buyer@shop.com", CardNumber: validCard})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.EqualError(t, err, "there are no items in the cart")
}

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "brown", "wood", 1)
	f.addToCart(t, "gray", "metal", 2)

	o, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
	})
	require.NoError(t, err)

	assert.True(t, d("2500").Equal(o.Total), "got %s", o.Total)
	assert.Equal(t, order.StatusPending, o.Status)
	require.NotNil(t, f.store.committed)
	assert.True(t, f.store.committed.CreditUsed.IsZero())
	assert.Len(t, f.store.committed.Items, 2)
	assert.Equal(t, 0, f.cart.Len(), "cart cleared after success")
}

func TestCheckoutCouponDiscount(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "brown", "wood", 1)
	f.addToCart(t, "gray", "metal", 1)

	o, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
		CouponCode: "SAVE10",
	})
	require.NoError(t, err)

	assert.True(t, d("1800").Equal(o.Total), "got %s", o.Total)
	require.NotNil(t, f.store.committed.CouponID)
}

func TestCheckoutInvalidCoupon(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "brown", "wood", 1)

	_, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
		CouponCode: "BOGUS",
	})
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, f.store.committed)
	assert.Equal(t, 1, f.cart.Len())
}

func TestCheckoutCreditApplied(t *testing.T) {
	f := newFixture(t, "50")
	f.addToCart(t, "gray", "metal", 1)

	o, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
	})
	require.NoError(t, err)

	assert.True(t, d("450").Equal(o.Total), "got %s", o.Total)
	assert.True(t, d("50").Equal(f.store.committed.CreditUsed))
}

func TestCheckoutCreditCoversEverything(t *testing.T) {
	f := newFixture(t, "10000")
	f.addToCart(t, "gray", "metal", 1)

	// Nothing is charged, so no card is needed.
	o, err := f.svc.Checkout(context.Background(), f.cart, Request{UserEmail: "buyer@shop.com"})
	require.NoError(t, err)

	assert.True(t, o.Total.IsZero(), "got %s", o.Total)
	assert.True(t, d("500").Equal(f.store.committed.CreditUsed))
}

func TestCheckoutInvalidCard(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "gray", "metal", 1)

	_, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: "1234",
	})
	require.ErrorIs(t, err, ErrInvalidCard)
	assert.EqualError(t, err, "invalid credit card number")

	// Validation happens before any mutation: nothing committed, cart intact.
	assert.Nil(t, f.store.committed)
	assert.Equal(t, 1, f.cart.Len())
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "gray", "metal", 5)

	// Stock drains between add-to-cart and checkout.
	v, err := catalog.NewTableVariant(catalog.KindDiningTable, "gray", "metal")
	require.NoError(t, err)
	f.catalog.rows[v].Quantity = 2

	_, err = f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
	})
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Wanted)
	assert.Nil(t, f.store.committed)
}

func TestCheckoutCommitFailureKeepsCart(t *testing.T) {
	f := newFixture(t, "0")
	f.addToCart(t, "gray", "metal", 1)
	f.store.err = account.ErrInsufficientCredit

	_, err := f.svc.Checkout(context.Background(), f.cart, Request{
		UserEmail:  "buyer@shop.com",
		CardNumber: validCard,
	})
	require.ErrorIs(t, err, account.ErrInsufficientCredit)
	assert.Equal(t, 1, f.cart.Len())
}

func TestCardValidator(t *testing.T) {
	tests := []struct {
		name    string
		total   decimal.Decimal
		card    string
		wantErr bool
	}{
		{name: "valid 16 digits", total: d("10"), card: "4111111111111111"},
		{name: "spaces and dashes stripped", total: d("10"), card: "4111 1111-1111 1111"},
		{name: "minimum 12 digits", total: d("10"), card: "411111111111"},
		{name: "too short", total: d("10"), card: "41111111111", wantErr: true},
		{name: "too long", total: d("10"), card: "41111111111111111111", wantErr: true},
		{name: "letters rejected", total: d("10"), card: "4111x1111111111", wantErr: true},
		{name: "empty rejected when charged", total: d("10"), card: "", wantErr: true},
		{name: "zero total skips validation", total: d("0"), card: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CardValidator{}.Validate(tt.total, tt.card)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCard)
				return
			}
			require.NoError(t, err)
		})
	}
}
