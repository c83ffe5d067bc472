package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/database/dbtest"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	domainservices "github.com/ghuser/ghshop/services/shop/domain/services"
	"github.com/ghuser/ghshop/services/shop/infrastructure/persistence/postgres"
)

// shop is a migrated in-memory database plus a unit of work over it.
type shop struct {
	db  *database.Database
	uow *postgres.UnitOfWork
}

func newShop(t *testing.T, batchSize int, publisher postgres.TxPublisherFactory) *shop {
	t.Helper()
	db := dbtest.OpenSQLite(t, postgres.AutoMigrate)
	return &shop{db: db, uow: postgres.NewUnitOfWork(db, publisher, batchSize)}
}

func (s *shop) addMember(t *testing.T, name, city string) *models.Member {
	t.Helper()
	m, err := models.NewMember(name, models.NewAddress(city, "street 1", "10000"))
	require.NoError(t, err)
	require.NoError(t, s.uow.InTx(context.Background(), func(st repositories.Store) error {
		return st.Members().Save(context.Background(), m)
	}))
	return m
}

func (s *shop) addBook(t *testing.T, name string, price, stock int) *models.Item {
	t.Helper()
	n, err := models.NewItemName(name)
	require.NoError(t, err)
	item, err := models.NewItem(n, price, stock, models.Book{Author: "author", ISBN: "isbn-" + name})
	require.NoError(t, err)
	require.NoError(t, s.uow.InTx(context.Background(), func(st repositories.Store) error {
		return st.Items().Save(context.Background(), item)
	}))
	return item
}

// line is one (item, count) pair of a fixture order.
type line struct {
	item  *models.Item
	count int
}

// placeOrder loads the member and items in a fresh unit of work and places
// the order there, the way the application service does.
func (s *shop) placeOrder(t *testing.T, member *models.Member, lines ...line) *models.Order {
	t.Helper()
	ctx := context.Background()
	var order *models.Order
	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		m, err := st.Members().GetByID(ctx, member.ID)
		if err != nil {
			return err
		}
		orderLines := make([]domainservices.OrderLine, len(lines))
		for i, l := range lines {
			item, err := st.Items().GetByID(ctx, l.item.ID)
			if err != nil {
				return err
			}
			orderLines[i] = domainservices.OrderLine{Item: item, Count: l.count}
		}
		order, err = domainservices.PlaceOrder(m, orderLines)
		if err != nil {
			return err
		}
		return st.Orders().Save(ctx, order)
	}))
	return order
}

// seedSample creates two members and four books and places:
// userA: 2 orders; userB: 2 orders, one of them cancelled.
func (s *shop) seedSample(t *testing.T) {
	t.Helper()
	userA := s.addMember(t, "userA", "Seoul")
	userB := s.addMember(t, "userB", "Busan")
	jpa1 := s.addBook(t, "JPA1 BOOK", 10000, 100)
	jpa2 := s.addBook(t, "JPA2 BOOK", 20000, 100)
	spring1 := s.addBook(t, "SPRING1 BOOK", 20000, 200)
	spring2 := s.addBook(t, "SPRING2 BOOK", 40000, 300)

	s.placeOrder(t, userA, line{jpa1, 1}, line{jpa2, 2})
	s.placeOrder(t, userA, line{spring1, 1})
	s.placeOrder(t, userB, line{spring1, 3}, line{spring2, 4})
	cancelled := s.placeOrder(t, userB, line{jpa1, 5}, line{spring2, 1})

	ctx := context.Background()
	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, cancelled.ID())
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		return st.Orders().SaveCancellation(ctx, o)
	}))
}

// recordingPublisher captures published messages instead of writing an outbox.
type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
	txs      int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: make(map[string][]*message.Message)}
}

func (p *recordingPublisher) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil tx")
	}
	p.mu.Lock()
	p.txs++
	p.mu.Unlock()
	return p, nil
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[topic] = append(p.messages[topic], msgs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.messages[topic]...)
}
