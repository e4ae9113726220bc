package dao

import (
	"sync"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/index"
	"github.com/asdine/storm/v3/q"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/util"
	bolt "go.etcd.io/bbolt"
)

type Db interface {
	Init(data interface{}) error
	One(fieldName string, value interface{}, to interface{}) error
	Save(data interface{}) error
	Select(matchers ...q.Matcher) storm.Query
	All(to interface{}, options ...func(*index.Options)) error
	Begin(writable bool) (storm.Node, error)
	Close() error
}

var (
	once     sync.Once
	instance Db
)

func Open(dbFilePath string) (Db, error) {
	exists := util.FileExists(dbFilePath)

	db, err := storm.Open(dbFilePath, storm.BoltOptions(0600, &bolt.Options{Timeout: 10 * time.Second, ReadOnly: false}))
	if err != nil {
		return nil, err
	}
	if !exists {
		//init db structs
		if err = db.Init(&model.Delivery{}); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// GetClient returns the process-wide store handle, opening it on first use.
func GetClient(dbFilePath string) (Db, error) {
	var err error

	once.Do(func() {
		instance, err = Open(dbFilePath)
	})

	return instance, err
}
