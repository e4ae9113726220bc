package session

import (
	"context"
	"fmt"
)

// InviteResult is the outcome of a friend invite. Infrastructure failures are
// reported through the error return instead.
type InviteResult int

const (
	InviteSent InviteResult = iota
	InviteAlreadyFriend
	InviteAlreadyPending
	InviteProfileNotPublic
	InviteFailed
)

var inviteNames = map[InviteResult]string{
	InviteSent:             "sent",
	InviteAlreadyFriend:    "already_friend",
	InviteAlreadyPending:   "already_pending",
	InviteProfileNotPublic: "profile_not_public",
	InviteFailed:           "failed",
}

func (r InviteResult) String() string {
	if name, ok := inviteNames[r]; ok {
		return name
	}
	return fmt.Sprintf("InviteResult(%d)", int(r))
}

type GiftResult int

const (
	GiftDelivered GiftResult = iota
	GiftAlreadyOwns
	GiftFailed
)

var giftNames = map[GiftResult]string{
	GiftDelivered:   "delivered",
	GiftAlreadyOwns: "already_owns",
	GiftFailed:      "failed",
}

func (r GiftResult) String() string {
	if name, ok := giftNames[r]; ok {
		return name
	}
	return fmt.Sprintf("GiftResult(%d)", int(r))
}

func parseInviteResult(s string) (InviteResult, error) {
	for r, name := range inviteNames {
		if name == s {
			return r, nil
		}
	}
	return InviteFailed, fmt.Errorf("unknown invite result %q", s)
}

func parseGiftResult(s string) (GiftResult, error) {
	for r, name := range giftNames {
		if name == s {
			return r, nil
		}
	}
	return GiftFailed, fmt.Errorf("unknown gift result %q", s)
}

// AutomationSession is the remotely controlled web session acting on behalf of
// the courier account.
type AutomationSession interface {
	SendFriendInvite(ctx context.Context, profileRef string) (InviteResult, error)
	RemoveFriend(ctx context.Context, profileRef string) error
	ListFriends(ctx context.Context) ([]string, error)
	GiftProduct(ctx context.Context, targetLink, recipientRef, paymentDetail string) (GiftResult, error)
	SelfProfile(ctx context.Context) (string, error)
}
