package dao

import (
	"errors"
	"fmt"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/dilshat/gift-courier/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// PreconditionErr is returned when a mutation guard rejects the stored record.
type PreconditionErr struct {
	Code   string
	Reason string
}

func (e *PreconditionErr) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Code, e.Reason)
}

func Precondition(code, reason string) *PreconditionErr {
	return &PreconditionErr{Code: code, Reason: reason}
}

type Notifier interface {
	Publish(d model.Delivery)
}

type DeliveryDao interface {
	//Get returns the delivery with the given order code
	Get(code string) (model.Delivery, error)
	//ListByStatus returns all deliveries in any of the given statuses
	ListByStatus(statuses ...model.Status) ([]model.Delivery, error)
	//GetAll returns all deliveries
	GetAll() ([]model.Delivery, error)
	//Create stores a new delivery waiting for {delay}
	Create(code string, delay time.Duration) (model.Delivery, error)
	//Mutate applies fn to the stored record inside one write transaction
	Mutate(code string, fn func(d *model.Delivery) error) (model.Delivery, error)
	//ResetAllNonDelivered moves every in-flight record back to WaitingUntilDelivery
	ResetAllNonDelivered() (int, error)
}

type Option func(*deliveryDao)

func WithNotifier(n Notifier) Option {
	return func(d *deliveryDao) {
		d.notifier = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *deliveryDao) {
		d.now = now
	}
}

func NewDeliveryDao(db Db, opts ...Option) DeliveryDao {
	d := &deliveryDao{db: db, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type deliveryDao struct {
	db       Db
	notifier Notifier
	now      func() time.Time
}

func (r *deliveryDao) Get(code string) (delivery model.Delivery, err error) {
	err = r.db.One("Code", code, &delivery)
	return delivery, translate(err)
}

func (r *deliveryDao) ListByStatus(statuses ...model.Status) ([]model.Delivery, error) {
	deliveries := []model.Delivery{}
	if len(statuses) == 0 {
		return deliveries, nil
	}
	err := r.db.Select(q.In("Status", statuses)).Find(&deliveries)
	if errors.Is(err, storm.ErrNotFound) {
		return []model.Delivery{}, nil
	}
	return deliveries, err
}

func (r *deliveryDao) GetAll() (deliveries []model.Delivery, err error) {
	err = r.db.All(&deliveries)
	return
}

func (r *deliveryDao) Create(code string, delay time.Duration) (model.Delivery, error) {
	delivery := model.NewDelivery(code, r.now(), delay)

	err := r.inTx(func(tx storm.Node) error {
		var existing model.Delivery
		err := tx.One("Code", code, &existing)
		if err == nil {
			return fmt.Errorf("delivery %s: %w", code, ErrAlreadyExists)
		}
		if !errors.Is(err, storm.ErrNotFound) {
			return err
		}
		return tx.Save(&delivery)
	})
	if err != nil {
		return model.Delivery{}, err
	}
	r.publish(delivery)
	return delivery, nil
}

func (r *deliveryDao) Mutate(code string, fn func(d *model.Delivery) error) (model.Delivery, error) {
	var delivery model.Delivery
	var before model.Delivery

	err := r.inTx(func(tx storm.Node) error {
		if err := tx.One("Code", code, &delivery); err != nil {
			return translate(err)
		}
		before = delivery
		if err := fn(&delivery); err != nil {
			return err
		}
		//identity is immutable
		delivery.Code = code
		delivery.UpdatedAt = r.now()
		return tx.Save(&delivery)
	})
	if err != nil {
		return model.Delivery{}, err
	}
	if before.Status != delivery.Status || before.HasError() != delivery.HasError() {
		r.publish(delivery)
	}
	return delivery, nil
}

func (r *deliveryDao) ResetAllNonDelivered() (int, error) {
	var changed []model.Delivery

	err := r.inTx(func(tx storm.Node) error {
		var all []model.Delivery
		if err := tx.All(&all); err != nil {
			return err
		}
		for i := range all {
			if !all[i].Reset() {
				continue
			}
			all[i].UpdatedAt = r.now()
			if err := tx.Save(&all[i]); err != nil {
				return err
			}
			changed = append(changed, all[i])
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, d := range changed {
		r.publish(d)
	}
	return len(changed), nil
}

func (r *deliveryDao) inTx(fn func(tx storm.Node) error) error {
	tx, err := r.db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *deliveryDao) publish(d model.Delivery) {
	if r.notifier != nil {
		r.notifier.Publish(d)
	}
}

func translate(err error) error {
	if errors.Is(err, storm.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
