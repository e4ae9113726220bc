package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/friends"
	"github.com/dilshat/gift-courier/marketplace"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/profile"
	"github.com/dilshat/gift-courier/session"
	"go.uber.org/zap"
)

const DefaultPaymentDetail = "513"

// FriendWaiter blocks until a profile shows up in the friend list.
type FriendWaiter interface {
	WaitFor(ctx context.Context, id string, poll, timeout time.Duration) bool
}

type Config struct {
	ProductLinkMarker string
	PaymentDetail     string
	AcceptPoll        time.Duration
	AcceptTimeout     time.Duration
	GateScope         GateScope
}

func (c Config) withDefaults() Config {
	if c.ProductLinkMarker == "" {
		c.ProductLinkMarker = marketplace.DefaultLinkMarker
	}
	if c.PaymentDetail == "" {
		c.PaymentDetail = DefaultPaymentDetail
	}
	if c.AcceptPoll <= 0 {
		c.AcceptPoll = friends.DefaultPollInterval
	}
	if c.AcceptTimeout <= 0 {
		c.AcceptTimeout = friends.DefaultAcceptTimeout
	}
	if c.GateScope == "" {
		c.GateScope = ScopePurchase
	}
	return c
}

// Worker drives one delivery from purchase lookup to the gift purchase.
type Worker struct {
	deliveries dao.DeliveryDao
	market     marketplace.Client
	profiles   profile.Resolver
	session    session.AutomationSession
	friends    FriendWaiter
	gate       *Gate
	cfg        Config
	now        func() time.Time
}

func NewWorker(deliveries dao.DeliveryDao, market marketplace.Client, profiles profile.Resolver,
	sess session.AutomationSession, waiter FriendWaiter, gate *Gate, cfg Config) *Worker {
	return &Worker{
		deliveries: deliveries,
		market:     market,
		profiles:   profiles,
		session:    sess,
		friends:    waiter,
		gate:       gate,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// failure is a classified outcome that halts the delivery.
type failure struct {
	code  model.ErrorCode
	cause error
}

func (f *failure) Error() string {
	if f.cause == nil {
		return f.code.String()
	}
	return f.code.String() + ": " + f.cause.Error()
}

func fail(code model.ErrorCode, cause error) error {
	return &failure{code: code, cause: cause}
}

// Claim moves a due delivery out of the waiting state. Exactly one caller can
// win the claim for a given record.
func (w *Worker) Claim(code string) (model.Delivery, error) {
	return w.deliveries.Mutate(code, func(d *model.Delivery) error {
		if d.Status != model.WaitingUntilDelivery {
			return dao.Precondition(code, "not waiting")
		}
		if !d.IsDue(w.now()) {
			return dao.Precondition(code, "not due")
		}
		if d.RecipientRef == "" {
			return dao.Precondition(code, "recipient not set")
		}
		return d.Advance(model.GettingPurchaseInfo)
	})
}

// Process claims the delivery and runs the workflow. A lost claim is not an
// error.
func (w *Worker) Process(ctx context.Context, code string) error {
	delivery, err := w.Claim(code)
	var pre *dao.PreconditionErr
	if errors.As(err, &pre) {
		zap.L().Debug("Claim skipped", zap.String("code", code), zap.String("reason", pre.Reason))
		return nil
	}
	if err != nil {
		return err
	}
	return w.Run(ctx, delivery)
}

// Run executes the steps of a claimed delivery. Classified failures are
// recorded on the record and do not surface as errors.
func (w *Worker) Run(ctx context.Context, delivery model.Delivery) error {
	logger := zap.L().With(zap.String("code", delivery.Code))
	logger.Info("Fulfillment started", zap.String("recipient", delivery.RecipientRef))

	if w.cfg.GateScope == ScopeWorker {
		if err := w.gate.Acquire(ctx); err != nil {
			return w.record(logger, delivery.Code, fail(model.ErrUnclassified, err))
		}
		defer w.gate.Release()
	}

	err := w.run(ctx, logger, delivery)
	return w.record(logger, delivery.Code, err)
}

func (w *Worker) run(ctx context.Context, logger *zap.Logger, delivery model.Delivery) error {
	code := delivery.Code

	link, err := w.productLink(ctx, code)
	if err != nil {
		return err
	}
	recipient, err := w.profiles.Lookup(ctx, delivery.RecipientRef)
	if err != nil {
		return fail(model.ErrLookupFailed, err)
	}
	if recipient.ID3 == "" {
		if recipient.ID3, err = profile.AccountID(recipient.ID64); err != nil {
			return fail(model.ErrLookupFailed, err)
		}
	}
	logger.Info("Purchase resolved", zap.String("link", link), zap.String("id64", recipient.ID64))

	if err := w.advance(code, model.SendingFriendInvite); err != nil {
		return err
	}
	if !recipient.Public {
		return fail(model.ErrProfileNotPublic, nil)
	}
	if err := w.invite(ctx, logger, recipient.URL); err != nil {
		return err
	}

	if err := w.advance(code, model.AwaitingFriendAcceptance); err != nil {
		return err
	}
	if !w.friends.WaitFor(ctx, recipient.ID64, w.cfg.AcceptPoll, w.cfg.AcceptTimeout) {
		return fail(model.ErrFriendRequestTimeout, nil)
	}
	logger.Info("Friend request accepted", zap.String("id64", recipient.ID64))

	if err := w.advance(code, model.SendingGift); err != nil {
		return err
	}
	return w.gift(ctx, logger, code, link, recipient)
}

func (w *Worker) productLink(ctx context.Context, code string) (string, error) {
	purchase, err := w.market.GetPurchaseByCode(ctx, code)
	if err != nil {
		return "", fail(model.ErrLookupFailed, err)
	}
	product, err := w.market.GetProduct(ctx, purchase.ProductID)
	if err != nil {
		return "", fail(model.ErrLookupFailed, err)
	}
	link := marketplace.FindProductLink(product.Info, w.cfg.ProductLinkMarker)
	if link == "" {
		return "", fail(model.ErrProductLinkNotFound, nil)
	}
	return link, nil
}

func (w *Worker) invite(ctx context.Context, logger *zap.Logger, ref string) error {
	result, err := w.session.SendFriendInvite(ctx, ref)
	if err != nil {
		return fail(model.ErrFriendInviteRejected, err)
	}

	if result == session.InviteAlreadyFriend {
		logger.Info("Recipient is already a friend, re-inviting")
		if err := w.session.RemoveFriend(ctx, ref); err != nil {
			return fail(model.ErrFriendInviteRejected, err)
		}
		if result, err = w.session.SendFriendInvite(ctx, ref); err != nil {
			return fail(model.ErrFriendInviteRejected, err)
		}
	}

	switch result {
	case session.InviteSent, session.InviteAlreadyPending, session.InviteAlreadyFriend:
		return nil
	case session.InviteProfileNotPublic:
		return fail(model.ErrProfileNotPublic, nil)
	default:
		return fail(model.ErrFriendInviteRejected, errors.New(result.String()))
	}
}

func (w *Worker) gift(ctx context.Context, logger *zap.Logger, code, link string, recipient profile.Profile) error {
	if w.cfg.GateScope == ScopePurchase {
		if err := w.gate.Acquire(ctx); err != nil {
			return fail(model.ErrUnclassified, err)
		}
		defer w.gate.Release()
	}

	result, err := w.session.GiftProduct(ctx, link, recipient.ID3, w.cfg.PaymentDetail)

	//the friendship only exists for the gift
	if rmErr := w.session.RemoveFriend(ctx, recipient.URL); rmErr != nil {
		logger.Warn("Failed to remove friend", zap.String("id64", recipient.ID64), zap.Error(rmErr))
	}

	if err != nil {
		return fail(model.ErrUnclassified, err)
	}
	switch result {
	case session.GiftDelivered:
		return w.advance(code, model.Delivered)
	case session.GiftAlreadyOwns:
		return fail(model.ErrAlreadyOwnsGame, nil)
	default:
		return fail(model.ErrUnclassified, errors.New(result.String()))
	}
}

func (w *Worker) advance(code string, to model.Status) error {
	_, err := w.deliveries.Mutate(code, func(d *model.Delivery) error {
		return d.Advance(to)
	})
	return err
}

// record stores a classified failure. Anything else is returned as is.
func (w *Worker) record(logger *zap.Logger, code string, err error) error {
	if err == nil {
		logger.Info("Delivered")
		return nil
	}
	var f *failure
	if !errors.As(err, &f) {
		logger.Error("Fulfillment aborted", zap.Error(err))
		return err
	}
	logger.Warn("Fulfillment failed", zap.Stringer("error_code", f.code), zap.NamedError("cause", f.cause))
	return w.Fail(code, f.code)
}

// Fail marks the delivery as halted with the given code.
func (w *Worker) Fail(code string, errCode model.ErrorCode) error {
	_, err := w.deliveries.Mutate(code, func(d *model.Delivery) error {
		return d.Fail(errCode)
	})
	return err
}
