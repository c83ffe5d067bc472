package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

// TxPublisherFactory opens a publisher bound to a database transaction.
// *events.EventBus implements it.
type TxPublisherFactory interface {
	NewTxPublisher(tx *sql.Tx) (message.Publisher, error)
}

// UnitOfWork implements repositories.UnitOfWork on gorm.
type UnitOfWork struct {
	db        *database.Database
	publisher TxPublisherFactory
	batchSize int
}

// NewUnitOfWork returns a UnitOfWork over db. publisher may be nil, in which
// case no domain events are written. batchSize is the IN-list window used
// when loading order lines; values <= 0 select repositories.DefaultBatchSize.
func NewUnitOfWork(db *database.Database, publisher TxPublisherFactory, batchSize int) *UnitOfWork {
	if batchSize <= 0 {
		batchSize = repositories.DefaultBatchSize
	}
	return &UnitOfWork{db: db, publisher: publisher, batchSize: batchSize}
}

// InTx runs fn against a Store bound to one transaction.
func (u *UnitOfWork) InTx(ctx context.Context, fn func(store repositories.Store) error) error {
	return u.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(u.newStore(tx))
	})
}

// Read runs fn against a Store on the pool, outside any transaction.
func (u *UnitOfWork) Read(ctx context.Context, fn func(store repositories.Store) error) error {
	return fn(u.newStore(u.db.Gorm()))
}

func (u *UnitOfWork) newStore(db *gorm.DB) *store {
	return &store{db: db, ids: newIdentityMap(), publisher: u.publisher, batchSize: u.batchSize}
}

type store struct {
	db        *gorm.DB
	ids       *identityMap
	publisher TxPublisherFactory
	batchSize int
}

func (s *store) Members() repositories.MemberRepository {
	return &memberRepository{db: s.db, ids: s.ids}
}

func (s *store) Items() repositories.ItemRepository {
	return &itemRepository{db: s.db, ids: s.ids}
}

func (s *store) Categories() repositories.CategoryRepository {
	return &categoryRepository{db: s.db, ids: s.ids}
}

func (s *store) Orders() repositories.OrderRepository {
	return &orderRepository{db: s.db, ids: s.ids, publisher: s.publisher, queries: s.queries()}
}

func (s *store) OrderQueries() repositories.OrderQueryRepository {
	return s.queries()
}

func (s *store) queries() *orderQueryRepository {
	return &orderQueryRepository{db: s.db, ids: s.ids, batchSize: s.batchSize}
}

// isUniqueViolation reports duplicate-key failures from either the gorm
// translator or a raw pgx error.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// notFound maps gorm's missing-row error to the domain sentinel.
func notFound(err error, sentinel error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("query %s: %w", what, err)
}
