package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgevents "github.com/ghuser/ghshop/pkg/events"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/events"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

func TestMemberRepository(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	m := s.addMember(t, "kim", "Seoul")

	t.Run("duplicate name", func(t *testing.T) {
		dup, err := models.NewMember("kim", models.NewAddress("Busan", "x", "1"))
		require.NoError(t, err)
		err = s.uow.InTx(ctx, func(st repositories.Store) error {
			return st.Members().Save(ctx, dup)
		})
		assert.ErrorIs(t, err, shopdomain.ErrMemberAlreadyExists)
	})

	t.Run("find by name", func(t *testing.T) {
		require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
			found, err := st.Members().FindByName(ctx, "kim")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, m.ID, found[0].ID)
			assert.Equal(t, "Seoul", found[0].Address.City)
			return nil
		}))
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
			loaded, err := st.Members().GetByID(ctx, m.ID)
			if err != nil {
				return err
			}
			if err := loaded.Rename("lee"); err != nil {
				return err
			}
			return st.Members().Update(ctx, loaded)
		}))
		require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
			loaded, err := st.Members().GetByID(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, "lee", loaded.Name)
			return nil
		}))
	})

	t.Run("missing", func(t *testing.T) {
		err := s.uow.Read(ctx, func(st repositories.Store) error {
			_, err := st.Members().GetByID(ctx, uuid.New())
			return err
		})
		assert.ErrorIs(t, err, shopdomain.ErrMemberNotFound)

		err = s.uow.InTx(ctx, func(st repositories.Store) error {
			return st.Members().Update(ctx, models.RehydrateMember(uuid.New(), "ghost", models.Address{}, m.CreatedAt))
		})
		assert.ErrorIs(t, err, shopdomain.ErrMemberNotFound)
	})

	t.Run("find all pages", func(t *testing.T) {
		s.addMember(t, "park", "Incheon")
		require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
			page, total, err := st.Members().FindAll(ctx, repositories.QueryOpts{Limit: 1})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			assert.Len(t, page, 1)
			return nil
		}))
	})
}

func TestItemRepository(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	book := s.addBook(t, "Go in Action", 30000, 7)

	name, err := models.NewItemName("Kind of Blue")
	require.NoError(t, err)
	album, err := models.NewItem(name, 15000, 3, models.Album{Artist: "Miles Davis", Etc: "1959"})
	require.NoError(t, err)
	name, err = models.NewItemName("Heat")
	require.NoError(t, err)
	movie, err := models.NewItem(name, 9000, 1, models.Movie{Director: "Michael Mann", Actor: "Al Pacino"})
	require.NoError(t, err)
	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		if err := st.Items().Save(ctx, album); err != nil {
			return err
		}
		return st.Items().Save(ctx, movie)
	}))

	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		items, err := st.Items().GetByIDs(ctx, []uuid.UUID{movie.ID, book.ID, album.ID})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, models.Movie{Director: "Michael Mann", Actor: "Al Pacino"}, items[0].Details)
		assert.Equal(t, models.Book{Author: "author", ISBN: "isbn-Go in Action"}, items[1].Details)
		assert.Equal(t, models.Album{Artist: "Miles Davis", Etc: "1959"}, items[2].Details)
		assert.Equal(t, 7, items[1].StockQuantity())

		_, err = st.Items().GetByIDs(ctx, []uuid.UUID{book.ID, uuid.New()})
		assert.ErrorIs(t, err, shopdomain.ErrItemNotFound)

		all, total, err := st.Items().FindAll(ctx, repositories.QueryOpts{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, all, 3)
		return nil
	}))

	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		item, err := st.Items().GetByID(ctx, book.ID)
		if err != nil {
			return err
		}
		item.Price = 32000
		if err := item.AddStock(3); err != nil {
			return err
		}
		return st.Items().Update(ctx, item)
	}))
	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		item, err := st.Items().GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 32000, item.Price)
		assert.Equal(t, 10, item.StockQuantity())
		return nil
	}))
}

func TestCategoryRepository_Tree(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	book := s.addBook(t, "SICP", 50000, 2)

	books, err := models.NewCategory("Books")
	require.NoError(t, err)
	science, err := models.NewCategory("Science")
	require.NoError(t, err)
	music, err := models.NewCategory("Music")
	require.NoError(t, err)
	require.NoError(t, books.AddChild(science))

	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		for _, c := range []*models.Category{books, science, music} {
			if err := st.Categories().Save(ctx, c); err != nil {
				return err
			}
		}
		if err := st.Categories().LinkItem(ctx, science.ID, book.ID); err != nil {
			return err
		}
		return st.Categories().LinkItem(ctx, science.ID, book.ID)
	}))

	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		roots, err := st.Categories().Tree(ctx)
		require.NoError(t, err)
		require.Len(t, roots, 2)
		assert.Equal(t, "Books", roots[0].Name)
		assert.Equal(t, "Music", roots[1].Name)

		children := roots[0].Children()
		require.Len(t, children, 1)
		assert.Equal(t, "Science", children[0].Name)
		assert.Same(t, roots[0], children[0].Parent())

		items := children[0].Items()
		require.Len(t, items, 1)
		assert.Equal(t, book.ID, items[0].ID)
		assert.Len(t, items[0].Categories(), 1)

		_, err = st.Categories().GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shopdomain.ErrCategoryNotFound)
		return nil
	}))
}

func TestOrderRepository_SaveTakesStock(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)

	order := s.placeOrder(t, member, line{book, 2})

	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		item, err := st.Items().GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, item.StockQuantity())

		loaded, err := st.Orders().GetByID(ctx, order.ID())
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusOrdered, loaded.Status())
		assert.Equal(t, models.DeliveryStatusReady, loaded.Delivery().Status())
		assert.Equal(t, 20000, loaded.TotalPrice())
		assert.Equal(t, "Seoul", loaded.Delivery().Address().City)
		return nil
	}))
}

func TestOrderRepository_CancelRestocks(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)
	order := s.placeOrder(t, member, line{book, 2})

	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, order.ID())
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		return st.Orders().SaveCancellation(ctx, o)
	}))

	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		item, err := st.Items().GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, item.StockQuantity())

		o, err := st.Orders().GetByID(ctx, order.ID())
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, o.Status())
		return nil
	}))
}

func TestOrderRepository_FailedSaveRollsBack(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)

	boom := errors.New("boom")
	err := s.uow.InTx(ctx, func(st repositories.Store) error {
		m, err := st.Members().GetByID(ctx, member.ID)
		if err != nil {
			return err
		}
		item, err := st.Items().GetByID(ctx, book.ID)
		if err != nil {
			return err
		}
		oi, err := models.NewOrderItem(item, item.Price, 4)
		if err != nil {
			return err
		}
		o, err := models.CreateOrder(m, models.NewDelivery(m.Address), oi)
		if err != nil {
			return err
		}
		if err := st.Orders().Save(ctx, o); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.uow.Read(ctx, func(st repositories.Store) error {
		item, err := st.Items().GetByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, item.StockQuantity())

		summaries, err := st.OrderQueries().FindSummaries(ctx, repositories.OrderSearch{})
		require.NoError(t, err)
		assert.Empty(t, summaries)
		return nil
	}))
}

func TestOrderRepository_CompleteDelivery(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)
	order := s.placeOrder(t, member, line{book, 1})

	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, order.ID())
		if err != nil {
			return err
		}
		if err := o.CompleteDelivery(); err != nil {
			return err
		}
		return st.Orders().SaveDelivery(ctx, o)
	}))

	err := s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, order.ID())
		if err != nil {
			return err
		}
		assert.Equal(t, models.DeliveryStatusCompleted, o.Delivery().Status())
		return o.Cancel()
	})
	assert.ErrorIs(t, err, shopdomain.ErrDeliveryCompleted)
}

func TestOrderRepository_GetByIDMissing(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	err := s.uow.Read(ctx, func(st repositories.Store) error {
		_, err := st.Orders().GetByID(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, shopdomain.ErrOrderNotFound)
}

func TestOrderRepository_PublishesInTransaction(t *testing.T) {
	pub := newRecordingPublisher()
	s := newShop(t, 0, pub)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)
	order := s.placeOrder(t, member, line{book, 3})

	placed := pub.published(events.TopicOrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, events.TopicOrderPlaced, placed[0].Metadata.Get(pkgevents.MetadataTopic))
	payload, err := pkgevents.Decode[events.OrderPlacedEvent](placed[0])
	require.NoError(t, err)
	assert.Equal(t, order.ID(), payload.OrderID)
	assert.Equal(t, member.ID, payload.MemberID)
	assert.Equal(t, 30000, payload.TotalPrice)
	assert.Equal(t, []events.OrderLine{{ItemID: book.ID, OrderPrice: 10000, Count: 3}}, payload.Lines)

	require.NoError(t, s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, order.ID())
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		return st.Orders().SaveCancellation(ctx, o)
	}))
	cancelled := pub.published(events.TopicOrderCancelled)
	require.Len(t, cancelled, 1)
	cancelEvent, err := pkgevents.Decode[events.OrderCancelledEvent](cancelled[0])
	require.NoError(t, err)
	assert.Equal(t, order.ID(), cancelEvent.OrderID)
	assert.Equal(t, 2, pub.txs)
}

func (s *shop) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var stock int
	require.NoError(t, s.uow.Read(context.Background(), func(st repositories.Store) error {
		item, err := st.Items().GetByID(context.Background(), id)
		if err != nil {
			return err
		}
		stock = item.StockQuantity()
		return nil
	}))
	return stock
}

func (s *shop) cancelOrder(ctx context.Context, id uuid.UUID) error {
	return s.uow.InTx(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}
		return st.Orders().SaveCancellation(ctx, o)
	})
}

// The outer stores below run on the pool without a transaction, so the
// inner unit of work commits between their read and their write.

func TestOrderRepository_StockWriteKeepsConcurrentChanges(t *testing.T) {
	s := newShop(t, 0, nil)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)

	tests := []struct {
		name      string
		count     int
		wantErr   error
		wantStock int
	}{
		{"applies only its own change", 2, nil, 5},
		{"rejects what no longer fits", 4, shopdomain.ErrNotEnoughStock, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.uow.Read(ctx, func(st repositories.Store) error {
				m, err := st.Members().GetByID(ctx, member.ID)
				require.NoError(t, err)
				item, err := st.Items().GetByID(ctx, book.ID)
				require.NoError(t, err)

				s.placeOrder(t, member, line{book, 3})

				oi, err := models.NewOrderItem(item, item.Price, tt.count)
				require.NoError(t, err)
				o, err := models.CreateOrder(m, models.NewDelivery(m.Address), oi)
				require.NoError(t, err)
				return st.Orders().Save(ctx, o)
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStock, s.stockOf(t, book.ID))
		})
	}
}

func TestOrderRepository_ConcurrentCancelRestocksOnce(t *testing.T) {
	pub := newRecordingPublisher()
	s := newShop(t, 0, pub)
	ctx := context.Background()
	member := s.addMember(t, "userA", "Seoul")
	book := s.addBook(t, "JPA1 BOOK", 10000, 10)
	order := s.placeOrder(t, member, line{book, 4})

	err := s.uow.Read(ctx, func(st repositories.Store) error {
		o, err := st.Orders().GetByID(ctx, order.ID())
		require.NoError(t, err)

		require.NoError(t, s.cancelOrder(ctx, order.ID()))

		require.NoError(t, o.Cancel())
		return st.Orders().SaveCancellation(ctx, o)
	})
	require.ErrorIs(t, err, shopdomain.ErrOrderAlreadyCancelled)
	assert.Equal(t, 10, s.stockOf(t, book.ID))
	assert.Len(t, pub.published(events.TopicOrderCancelled), 1)

	assert.ErrorIs(t, s.cancelOrder(ctx, order.ID()), shopdomain.ErrOrderAlreadyCancelled)
}
