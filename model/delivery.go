package model

import (
	"errors"
	"fmt"
	"time"
)

const DefaultDeliveryDelay = 2 * time.Minute

var ErrIllegalTransition = errors.New("illegal status transition")

type Status int

const (
	WaitingUntilDelivery Status = iota
	GettingPurchaseInfo
	SendingFriendInvite
	AwaitingFriendAcceptance
	SendingGift
	Delivered
)

var statusNames = map[Status]string{
	WaitingUntilDelivery:     "WAITING_UNTIL_DELIVERY",
	GettingPurchaseInfo:      "GETTING_PURCHASE_INFO",
	SendingFriendInvite:      "SENDING_FRIEND_INVITE",
	AwaitingFriendAcceptance: "AWAITING_FRIEND_ACCEPTANCE",
	SendingGift:              "SENDING_GIFT",
	Delivered:                "DELIVERED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Valid() bool {
	return s >= WaitingUntilDelivery && s <= Delivered
}

// InFlight reports whether the status belongs to a running worker.
func (s Status) InFlight() bool {
	return s > WaitingUntilDelivery && s < Delivered
}

// ErrorCode classifies the failure that halted a delivery.
// The numeric values are part of the public read interface.
type ErrorCode int

const (
	ErrAlreadyOwnsGame      ErrorCode = 0
	ErrUnclassified         ErrorCode = 1
	ErrFriendRequestTimeout ErrorCode = 2
	ErrProfileNotPublic     ErrorCode = 3
	ErrFriendInviteRejected ErrorCode = 4
	ErrProductLinkNotFound  ErrorCode = 5
	ErrLookupFailed         ErrorCode = 6
)

var errorCodeNames = map[ErrorCode]string{
	ErrAlreadyOwnsGame:      "already-owns-game",
	ErrUnclassified:         "unclassified-failure",
	ErrFriendRequestTimeout: "friend-request-timeout",
	ErrProfileNotPublic:     "profile-not-public",
	ErrFriendInviteRejected: "friend-invite-rejected",
	ErrProductLinkNotFound:  "product-link-not-found",
	ErrLookupFailed:         "lookup-failure",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

type Delivery struct {
	Code         string `storm:"id"`
	Status       Status `storm:"index"`
	ErrorCode    *ErrorCode
	ScheduledAt  time.Time
	TimeLeft     *time.Duration
	Paused       bool
	RecipientRef string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewDelivery(code string, now time.Time, delay time.Duration) Delivery {
	return Delivery{
		Code:        code,
		Status:      WaitingUntilDelivery,
		ScheduledAt: now.Add(delay),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (d *Delivery) HasError() bool {
	return d.ErrorCode != nil
}

func (d *Delivery) IsDelivered() bool {
	return d.Status == Delivered
}

// TimeUntilDelivery is the remaining wait. While paused it is the frozen
// remainder, otherwise scheduledAt - now (negative once overdue).
func (d *Delivery) TimeUntilDelivery(now time.Time) time.Duration {
	if d.Paused && d.TimeLeft != nil {
		return *d.TimeLeft
	}
	return d.ScheduledAt.Sub(now)
}

// IsDue reports whether the scheduler may dispatch the delivery.
func (d *Delivery) IsDue(now time.Time) bool {
	return d.Status == WaitingUntilDelivery &&
		!d.Paused &&
		!d.HasError() &&
		!now.Before(d.ScheduledAt)
}

// Advance moves the delivery one or more steps forward.
func (d *Delivery) Advance(to Status) error {
	if err := CheckTransition(d.Status, to); err != nil {
		return err
	}
	if d.HasError() {
		return fmt.Errorf("%w: %s carries error %s", ErrIllegalTransition, d.Code, d.ErrorCode)
	}
	d.Status = to
	return nil
}

// Fail records a terminal failure without touching the status.
func (d *Delivery) Fail(code ErrorCode) error {
	if d.Status == Delivered {
		return fmt.Errorf("%w: %s is delivered", ErrIllegalTransition, d.Code)
	}
	c := code
	d.ErrorCode = &c
	return nil
}

// CheckTransition allows forward moves only; Delivered is final.
func CheckTransition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	if from == Delivered || to <= from {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

func (d *Delivery) Pause(now time.Time) {
	if d.Paused {
		return
	}
	left := d.ScheduledAt.Sub(now)
	d.TimeLeft = &left
	d.Paused = true
}

func (d *Delivery) Resume(now time.Time) {
	if !d.Paused {
		return
	}
	if d.TimeLeft != nil {
		d.ScheduledAt = now.Add(*d.TimeLeft)
	}
	d.TimeLeft = nil
	d.Paused = false
}

// StartNow makes the delivery eligible immediately.
func (d *Delivery) StartNow(now time.Time) {
	d.ScheduledAt = now
	d.Paused = false
	d.TimeLeft = nil
}

// Reset returns a non-delivered record to the initial state. Sub-steps are
// not resumable, so in-progress state is discarded. The error code is kept.
func (d *Delivery) Reset() bool {
	if d.Status == Delivered || d.Status == WaitingUntilDelivery {
		return false
	}
	d.Status = WaitingUntilDelivery
	return true
}

// ClearError re-enters the pipeline after operator intervention.
func (d *Delivery) ClearError(now time.Time) error {
	if !d.HasError() {
		return fmt.Errorf("%w: %s has no error", ErrIllegalTransition, d.Code)
	}
	d.ErrorCode = nil
	d.Status = WaitingUntilDelivery
	d.StartNow(now)
	return nil
}
