package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	// Wait blocks until the limiter permits an event to happen.
	Wait(ctx context.Context) error
}

// Remote drives an automation agent over its JSON HTTP API.
type Remote struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter RateLimiter
}

func NewRemote(baseURL string, rps int, timeout time.Duration) *Remote {
	if rps <= 0 {
		rps = 1
	}
	return &Remote{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type profileRequest struct {
	ProfileRef string `json:"profile_ref"`
}

type giftRequest struct {
	TargetLink    string `json:"target_link"`
	RecipientRef  string `json:"recipient_ref"`
	PaymentDetail string `json:"payment_detail"`
}

type resultResponse struct {
	Result string `json:"result"`
	Detail string `json:"detail,omitempty"`
}

type friendsResponse struct {
	Friends []string `json:"friends"`
}

type selfResponse struct {
	ProfileRef string `json:"profile_ref"`
}

func (r *Remote) SendFriendInvite(ctx context.Context, profileRef string) (InviteResult, error) {
	var resp resultResponse
	if err := r.call(ctx, http.MethodPost, "/friends/invite", profileRequest{ProfileRef: profileRef}, &resp); err != nil {
		return InviteFailed, err
	}
	if resp.Detail != "" {
		zap.L().Info("Friend invite answered", zap.String("result", resp.Result), zap.String("detail", resp.Detail))
	}
	return parseInviteResult(resp.Result)
}

func (r *Remote) RemoveFriend(ctx context.Context, profileRef string) error {
	return r.call(ctx, http.MethodPost, "/friends/remove", profileRequest{ProfileRef: profileRef}, nil)
}

func (r *Remote) ListFriends(ctx context.Context) ([]string, error) {
	var resp friendsResponse
	if err := r.call(ctx, http.MethodGet, "/friends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Friends, nil
}

func (r *Remote) GiftProduct(ctx context.Context, targetLink, recipientRef, paymentDetail string) (GiftResult, error) {
	var resp resultResponse
	req := giftRequest{TargetLink: targetLink, RecipientRef: recipientRef, PaymentDetail: paymentDetail}
	if err := r.call(ctx, http.MethodPost, "/gifts", req, &resp); err != nil {
		return GiftFailed, err
	}
	if resp.Detail != "" {
		zap.L().Info("Gift answered", zap.String("result", resp.Result), zap.String("detail", resp.Detail))
	}
	return parseGiftResult(resp.Result)
}

func (r *Remote) SelfProfile(ctx context.Context) (string, error) {
	var resp selfResponse
	if err := r.call(ctx, http.MethodGet, "/self", nil, &resp); err != nil {
		return "", err
	}
	return resp.ProfileRef, nil
}

func (r *Remote) call(ctx context.Context, method, path string, in, out interface{}) error {
	//impose rps limit
	if err := r.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("automation %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(text)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
