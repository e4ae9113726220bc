package config

import (
	"testing"
	"time"

	"github.com/dilshat/gift-courier/fulfillment"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "courier.db", cfg.DbPath)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 2*time.Minute, cfg.DeliveryDelay)
	require.Equal(t, time.Second, cfg.PollInterval)
	require.Equal(t, 10*time.Second, cfg.FriendsRefresh)
	require.Equal(t, 10*time.Minute, cfg.AcceptTimeout)
	require.Equal(t, fulfillment.ScopePurchase, cfg.GateScope)
	require.True(t, cfg.ResetOnStart)
	require.Equal(t, "513", cfg.PaymentDetail)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DELIVERY_DELAY_SEC", "30")
	t.Setenv("POLL_INTERVAL_MS", "250")
	t.Setenv("GATE_SCOPE", "worker")
	t.Setenv("RESET_ON_START", "false")
	t.Setenv("MARKET_SELLER_ID", "12345")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.DeliveryDelay)
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.Equal(t, fulfillment.ScopeWorker, cfg.GateScope)
	require.False(t, cfg.ResetOnStart)
	require.Equal(t, int64(12345), cfg.MarketSellerID)
	require.Equal(t, fulfillment.ScopeWorker, cfg.FulfillmentConfig().GateScope)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GATE_SCOPE", "everything")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("GATE_SCOPE", "purchase")
	t.Setenv("MARKET_SELLER_ID", "seller")
	_, err = Load()
	require.Error(t, err)
}
