package config

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/dilshat/gift-courier/friends"
	"github.com/dilshat/gift-courier/fulfillment"
	"github.com/dilshat/gift-courier/marketplace"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/util"
)

type Config struct {
	DbPath   string
	HTTPPort string
	LogLevel string

	DeliveryDelay   time.Duration
	PollInterval    time.Duration
	FriendsRefresh  time.Duration
	AcceptTimeout   time.Duration
	AcceptPoll      time.Duration
	GateScope       fulfillment.GateScope
	ResetOnStart    bool
	PaymentDetail   string
	ProductLinkMark string

	AutomationURL string
	AutomationRPS int

	MarketURL      string
	MarketSellerID int64
	MarketAPIKey   string
	MarketRPS      int
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	scope, err := fulfillment.ParseGateScope(util.GetEnv("GATE_SCOPE", string(fulfillment.ScopePurchase)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DbPath:   util.GetEnv("DB_PATH", "courier.db"),
		HTTPPort: util.GetEnv("HTTP_PORT", "8080"),
		LogLevel: util.GetEnv("LOG_LEVEL", "info"),

		DeliveryDelay:   util.GetEnvAsDuration("DELIVERY_DELAY_SEC", time.Second, model.DefaultDeliveryDelay),
		PollInterval:    util.GetEnvAsDuration("POLL_INTERVAL_MS", time.Millisecond, fulfillment.DefaultPollInterval),
		FriendsRefresh:  util.GetEnvAsDuration("FRIENDS_REFRESH_SEC", time.Second, friends.DefaultRefreshInterval),
		AcceptTimeout:   util.GetEnvAsDuration("ACCEPT_TIMEOUT_SEC", time.Second, friends.DefaultAcceptTimeout),
		AcceptPoll:      util.GetEnvAsDuration("ACCEPT_POLL_MS", time.Millisecond, friends.DefaultPollInterval),
		GateScope:       scope,
		ResetOnStart:    util.GetEnvAsBool("RESET_ON_START", true),
		PaymentDetail:   util.GetEnv("GIFT_PAYMENT_METHOD", fulfillment.DefaultPaymentDetail),
		ProductLinkMark: util.GetEnv("PRODUCT_LINK_MARKER", marketplace.DefaultLinkMarker),

		AutomationURL: util.GetEnv("AUTOMATION_URL", "http://127.0.0.1:9222"),
		AutomationRPS: util.GetEnvAsInt("AUTOMATION_RPS", 5),

		MarketURL:    util.GetEnv("MARKET_URL", "https://api.digiseller.ru/api"),
		MarketAPIKey: util.GetEnv("MARKET_API_KEY", ""),
		MarketRPS:    util.GetEnvAsInt("MARKET_RPS", 5),
	}

	if id := util.GetEnv("MARKET_SELLER_ID", ""); id != "" {
		if cfg.MarketSellerID, err = strconv.ParseInt(id, 10, 64); err != nil {
			return Config{}, errors.New("MARKET_SELLER_ID must be a number")
		}
	}
	for _, u := range []string{cfg.AutomationURL, cfg.MarketURL} {
		if _, err := url.ParseRequestURI(u); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// FulfillmentConfig is the worker part of the configuration.
func (c Config) FulfillmentConfig() fulfillment.Config {
	return fulfillment.Config{
		ProductLinkMarker: c.ProductLinkMark,
		PaymentDetail:     c.PaymentDetail,
		AcceptPoll:        c.AcceptPoll,
		AcceptTimeout:     c.AcceptTimeout,
		GateScope:         c.GateScope,
	}
}
