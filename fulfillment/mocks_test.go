package fulfillment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/marketplace"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/profile"
	"github.com/dilshat/gift-courier/session"
	"github.com/stretchr/testify/require"
)

const (
	CODE1     = "AAAA1111"
	CODE2     = "BBBB2222"
	PROFILE   = "https://steamcommunity.com/id/recipient/"
	ID64      = "76561197960265738"
	ID3       = "10"
	LINK      = "https://store.steampowered.com/app/620/"
	PRODUCTID = int64(42)
)

var T0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var errBoom = errors.New("boom")

type mockMarket struct {
	mu            sync.Mutex
	purchaseCalls int
	purchaseErr   error
	productInfo   string
	block         chan struct{}
}

func (m *mockMarket) GetPurchaseByCode(ctx context.Context, code string) (marketplace.PurchaseInfo, error) {
	m.mu.Lock()
	m.purchaseCalls++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	if m.purchaseErr != nil {
		return marketplace.PurchaseInfo{}, m.purchaseErr
	}
	return marketplace.PurchaseInfo{ProductID: PRODUCTID}, nil
}

func (m *mockMarket) GetProduct(ctx context.Context, productID int64) (marketplace.ProductInfo, error) {
	info := m.productInfo
	if info == "" {
		info = marketplace.DefaultLinkMarker + LINK
	}
	return marketplace.ProductInfo{ID: productID, Info: info}, nil
}

func (m *mockMarket) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purchaseCalls
}

type mockResolver struct {
	private bool
	err     error
}

func (m *mockResolver) Lookup(ctx context.Context, profileURL string) (profile.Profile, error) {
	if m.err != nil {
		return profile.Profile{}, m.err
	}
	return profile.Profile{URL: profileURL, ID64: ID64, Public: !m.private}, nil
}

type giftCall struct {
	link, recipient, payment string
	start, end               time.Time
}

type mockSession struct {
	mu          sync.Mutex
	invites     []session.InviteResult
	inviteCalls int
	removed     []string
	gifts       []giftCall
	giftResult  session.GiftResult
	giftErr     error
	giftDelay   time.Duration
	calls       []string
}

func (m *mockSession) SendFriendInvite(ctx context.Context, profileRef string) (session.InviteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "invite")
	result := session.InviteSent
	if m.inviteCalls < len(m.invites) {
		result = m.invites[m.inviteCalls]
	}
	m.inviteCalls++
	return result, nil
}

func (m *mockSession) RemoveFriend(ctx context.Context, profileRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "remove")
	m.removed = append(m.removed, profileRef)
	return nil
}

func (m *mockSession) ListFriends(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockSession) GiftProduct(ctx context.Context, targetLink, recipientRef, paymentDetail string) (session.GiftResult, error) {
	start := time.Now()
	time.Sleep(m.giftDelay)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "gift")
	m.gifts = append(m.gifts, giftCall{
		link:      targetLink,
		recipient: recipientRef,
		payment:   paymentDetail,
		start:     start,
		end:       time.Now(),
	})
	return m.giftResult, m.giftErr
}

func (m *mockSession) SelfProfile(ctx context.Context) (string, error) {
	return "https://steamcommunity.com/id/courier/", nil
}

func (m *mockSession) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockWaiter struct {
	mu     sync.Mutex
	accept bool
	asked  []string
}

func (m *mockWaiter) WaitFor(ctx context.Context, id string, poll, timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asked = append(m.asked, id)
	return m.accept
}

type fixture struct {
	deliveries dao.DeliveryDao
	market     *mockMarket
	resolver   *mockResolver
	session    *mockSession
	waiter     *mockWaiter
	gate       *Gate
}

func prepare(t *testing.T, codes ...string) *fixture {
	dir, err := os.MkdirTemp("", "fulfillment")
	require.NoError(t, err)
	db, err := dao.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
		_ = os.RemoveAll(dir)
	})

	deliveries := dao.NewDeliveryDao(db, dao.WithClock(func() time.Time { return T0 }))
	for _, code := range codes {
		_, err := deliveries.Create(code, 0)
		require.NoError(t, err)
		_, err = deliveries.Mutate(code, func(d *model.Delivery) error {
			d.RecipientRef = PROFILE
			return nil
		})
		require.NoError(t, err)
	}

	return &fixture{
		deliveries: deliveries,
		market:     &mockMarket{},
		resolver:   &mockResolver{},
		session:    &mockSession{giftResult: session.GiftDelivered},
		waiter:     &mockWaiter{accept: true},
		gate:       NewGate(),
	}
}

func (f *fixture) worker(cfg Config) *Worker {
	w := NewWorker(f.deliveries, f.market, f.resolver, f.session, f.waiter, f.gate, cfg)
	w.now = func() time.Time { return T0 }
	return w
}

func (f *fixture) get(t *testing.T, code string) model.Delivery {
	d, err := f.deliveries.Get(code)
	require.NoError(t, err)
	return d
}
