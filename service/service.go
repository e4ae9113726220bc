package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/fulfillment"
	"github.com/dilshat/gift-courier/marketplace"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/profile"
	"github.com/dilshat/gift-courier/service/dto"
	"github.com/dilshat/gift-courier/session"
	"github.com/dilshat/gift-courier/util"
	"go.uber.org/zap"
)

const MaxStatusWait = time.Minute

type InvalidPayloadErr struct {
	message string
}

func (e *InvalidPayloadErr) Error() string {
	return e.message
}

func NewInvalidPayloadError(msg string) *InvalidPayloadErr {
	return &InvalidPayloadErr{message: msg}
}

// ConflictErr means the delivery is in a state that does not allow the operation.
type ConflictErr struct {
	message string
}

func (e *ConflictErr) Error() string {
	return e.message
}

func NewConflictError(msg string) *ConflictErr {
	return &ConflictErr{message: msg}
}

// StatusWaiter blocks until a delivery event matching fn is published.
type StatusWaiter interface {
	Wait(ctx context.Context, code string, match func(model.Delivery) bool) (model.Delivery, bool)
}

type WorkerLister interface {
	InFlight() []fulfillment.Handle
}

type Service interface {
	Get(code string) (dto.Delivery, error)
	Open(ctx context.Context, code string) (dto.Order, error)
	TimeUntilDelivery(code string) (dto.Remaining, error)
	ForceStart(code string) (dto.Delivery, error)
	Pause(code string) (dto.Delivery, error)
	Unpause(code string) (dto.Delivery, error)
	SetRecipient(ctx context.Context, code, link string) (dto.Delivery, error)
	CheckForNewStatus(ctx context.Context, code string, known int, wait time.Duration) (dto.StatusChange, error)
	ClearError(code string) (dto.Delivery, error)
	CheckProfile(ctx context.Context, text string) (dto.Profile, error)
	CourierProfile(ctx context.Context) (dto.Profile, error)
	Workers() []dto.Worker
}

type service struct {
	deliveryDao dao.DeliveryDao
	market      marketplace.Client
	profiles    profile.Resolver
	session     session.AutomationSession
	statuses    StatusWaiter
	workers     WorkerLister
	delay       time.Duration
	now         func() time.Time
}

func NewService(deliveryDao dao.DeliveryDao, market marketplace.Client, profiles profile.Resolver,
	sess session.AutomationSession, statuses StatusWaiter, workers WorkerLister, delay time.Duration) Service {
	return &service{
		deliveryDao: deliveryDao,
		market:      market,
		profiles:    profiles,
		session:     sess,
		statuses:    statuses,
		workers:     workers,
		delay:       delay,
		now:         time.Now,
	}
}

func (s service) Get(code string) (dto.Delivery, error) {
	d, err := s.deliveryDao.Get(code)
	if err != nil {
		return dto.Delivery{}, err
	}
	return s.toDto(d), nil
}

// Open returns the delivery for an order code, creating it on first sight.
func (s service) Open(ctx context.Context, code string) (dto.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return dto.Order{}, NewInvalidPayloadError("Invalid order code")
	}

	purchase, err := s.market.GetPurchaseByCode(ctx, code)
	if errors.Is(err, marketplace.ErrNotFound) {
		return dto.Order{}, NewInvalidPayloadError("Unknown order code " + code)
	}
	if err != nil {
		return dto.Order{}, err
	}

	d, err := s.deliveryDao.Get(code)
	if errors.Is(err, dao.ErrNotFound) {
		d, err = s.create(code, purchase)
	}
	if err != nil {
		return dto.Order{}, err
	}

	return dto.Order{
		Delivery: s.toDto(d),
		Purchase: dto.Purchase{
			InvoiceID: purchase.InvoiceID,
			ProductID: purchase.ProductID,
			Name:      purchase.Name,
			Amount:    purchase.Amount,
			Currency:  purchase.Currency,
		},
	}, nil
}

func (s service) create(code string, purchase marketplace.PurchaseInfo) (model.Delivery, error) {
	d, err := s.deliveryDao.Create(code, s.delay)
	if errors.Is(err, dao.ErrAlreadyExists) {
		return s.deliveryDao.Get(code)
	}
	if err != nil {
		return model.Delivery{}, err
	}
	zap.L().Info("Delivery created", zap.String("code", code), zap.Int64("invoice", purchase.InvoiceID))

	//buyers usually leave their profile link in the purchase form
	ref := profile.FindURL(purchase.FirstOptionValue())
	if ref == "" {
		return d, nil
	}
	return s.deliveryDao.Mutate(code, func(d *model.Delivery) error {
		if d.RecipientRef == "" {
			d.RecipientRef = ref
		}
		return nil
	})
}

func (s service) TimeUntilDelivery(code string) (dto.Remaining, error) {
	d, err := s.deliveryDao.Get(code)
	if err != nil {
		return dto.Remaining{}, err
	}
	left := d.TimeUntilDelivery(s.now())
	seconds := int64(left / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return dto.Remaining{Remaining: util.FormatRemaining(left), Seconds: seconds}, nil
}

func (s service) ForceStart(code string) (dto.Delivery, error) {
	return s.mutateWaiting(code, func(d *model.Delivery) error {
		if d.HasError() {
			return dao.Precondition(code, "delivery failed, clear the error first")
		}
		d.StartNow(s.now())
		return nil
	})
}

func (s service) Pause(code string) (dto.Delivery, error) {
	return s.mutateWaiting(code, func(d *model.Delivery) error {
		d.Pause(s.now())
		return nil
	})
}

func (s service) Unpause(code string) (dto.Delivery, error) {
	return s.mutateWaiting(code, func(d *model.Delivery) error {
		d.Resume(s.now())
		return nil
	})
}

func (s service) SetRecipient(ctx context.Context, code, link string) (dto.Delivery, error) {
	if util.IsBlank(link) {
		return dto.Delivery{}, NewInvalidPayloadError("Profile link is required")
	}

	current, err := s.deliveryDao.Get(code)
	if err != nil {
		return dto.Delivery{}, err
	}
	if err := s.checkEditable(&current); err != nil {
		return dto.Delivery{}, conflict(err)
	}

	p, err := s.lookup(ctx, link)
	if err != nil {
		return dto.Delivery{}, err
	}

	return s.mutateWaiting(code, func(d *model.Delivery) error {
		if err := s.checkEditable(d); err != nil {
			return err
		}
		d.RecipientRef = p.URL
		return nil
	})
}

func (s service) checkEditable(d *model.Delivery) error {
	if d.Status != model.WaitingUntilDelivery || d.TimeUntilDelivery(s.now()) < 0 {
		return dao.Precondition(d.Code, "delivery already started")
	}
	return nil
}

func (s service) CheckForNewStatus(ctx context.Context, code string, known int, wait time.Duration) (dto.StatusChange, error) {
	d, err := s.deliveryDao.Get(code)
	if err != nil {
		return dto.StatusChange{}, err
	}
	if change, ok := statusChange(d, known); ok || wait <= 0 {
		return change, nil
	}

	if wait > MaxStatusWait {
		wait = MaxStatusWait
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	if next, ok := s.statuses.Wait(ctx, code, func(d model.Delivery) bool {
		_, changed := statusChange(d, known)
		return changed
	}); ok {
		change, _ := statusChange(next, known)
		return change, nil
	}

	//the change may have landed before the subscription
	if d, err = s.deliveryDao.Get(code); err != nil {
		return dto.StatusChange{}, err
	}
	change, _ := statusChange(d, known)
	return change, nil
}

func statusChange(d model.Delivery, known int) (dto.StatusChange, bool) {
	if d.HasError() {
		code := int(*d.ErrorCode)
		return dto.StatusChange{NewStatus: -1, Error: &code}, true
	}
	if int(d.Status) != known {
		return dto.StatusChange{NewStatus: int(d.Status)}, true
	}
	return dto.StatusChange{NewStatus: -1}, false
}

func (s service) ClearError(code string) (dto.Delivery, error) {
	d, err := s.deliveryDao.Mutate(code, func(d *model.Delivery) error {
		if !d.HasError() {
			return dao.Precondition(code, "delivery has no error")
		}
		return d.ClearError(s.now())
	})
	if err != nil {
		return dto.Delivery{}, conflict(err)
	}
	zap.L().Info("Delivery error cleared", zap.String("code", code))
	return s.toDto(d), nil
}

func (s service) CheckProfile(ctx context.Context, text string) (dto.Profile, error) {
	if util.IsBlank(text) {
		return dto.Profile{}, NewInvalidPayloadError("Profile link is required")
	}
	p, err := s.lookup(ctx, text)
	if err != nil {
		return dto.Profile{}, err
	}
	return dto.Profile{URL: p.URL, ID64: p.ID64, ID3: p.ID3, Name: p.Name, Public: p.Public}, nil
}

// lookup resolves a public profile from text containing its link.
func (s service) lookup(ctx context.Context, text string) (profile.Profile, error) {
	link := profile.FindURL(text)
	if link == "" {
		return profile.Profile{}, NewInvalidPayloadError("Invalid profile link")
	}
	p, err := s.profiles.Lookup(ctx, link)
	if errors.Is(err, profile.ErrNotFound) || errors.Is(err, profile.ErrInvalidURL) {
		return profile.Profile{}, NewInvalidPayloadError("Profile not found")
	}
	if err != nil {
		return profile.Profile{}, err
	}
	if !p.Public {
		return profile.Profile{}, NewInvalidPayloadError("Profile is not public")
	}
	return p, nil
}

func (s service) CourierProfile(ctx context.Context) (dto.Profile, error) {
	ref, err := s.session.SelfProfile(ctx)
	if err != nil {
		return dto.Profile{}, err
	}
	return dto.Profile{URL: ref, Public: true}, nil
}

func (s service) Workers() []dto.Worker {
	workers := []dto.Worker{}
	if s.workers == nil {
		return workers
	}
	for _, h := range s.workers.InFlight() {
		workers = append(workers, dto.Worker{ID: h.ID, Code: h.Code, StartedAt: h.StartedAt})
	}
	return workers
}

func (s service) mutateWaiting(code string, fn func(d *model.Delivery) error) (dto.Delivery, error) {
	d, err := s.deliveryDao.Mutate(code, func(d *model.Delivery) error {
		if d.Status != model.WaitingUntilDelivery {
			return dao.Precondition(code, "delivery already started")
		}
		return fn(d)
	})
	if err != nil {
		return dto.Delivery{}, conflict(err)
	}
	return s.toDto(d), nil
}

// conflict turns a rejected guard into a ConflictErr.
func conflict(err error) error {
	var pre *dao.PreconditionErr
	if errors.As(err, &pre) {
		return NewConflictError(pre.Reason)
	}
	if errors.Is(err, model.ErrIllegalTransition) {
		return NewConflictError(err.Error())
	}
	return err
}

func (s service) toDto(d model.Delivery) dto.Delivery {
	out := dto.Delivery{
		Code:         d.Code,
		Status:       int(d.Status),
		StatusName:   d.Status.String(),
		Paused:       d.Paused,
		ScheduledAt:  d.ScheduledAt,
		Remaining:    util.FormatRemaining(d.TimeUntilDelivery(s.now())),
		RecipientRef: d.RecipientRef,
	}
	if d.HasError() {
		code := int(*d.ErrorCode)
		out.ErrorCode = &code
		out.ErrorName = d.ErrorCode.String()
	}
	return out
}
