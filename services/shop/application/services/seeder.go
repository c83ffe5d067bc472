package services

import (
	"context"
	"fmt"

	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	domainsvcs "github.com/ghuser/ghshop/services/shop/domain/services"
)

type sampleBook struct {
	name  string
	price int
	stock int
	count int
}

type sampleMember struct {
	name    string
	address models.Address
	books   []sampleBook
}

var sampleData = []sampleMember{
	{
		name:    "userA",
		address: models.NewAddress("Seoul", "1", "1111"),
		books: []sampleBook{
			{name: "JPA1 BOOK", price: 10000, stock: 100, count: 1},
			{name: "JPA2 BOOK", price: 20000, stock: 100, count: 2},
		},
	},
	{
		name:    "userB",
		address: models.NewAddress("Busan", "2", "2222"),
		books: []sampleBook{
			{name: "SPRING1 BOOK", price: 20000, stock: 200, count: 3},
			{name: "SPRING2 BOOK", price: 40000, stock: 300, count: 4},
		},
	},
}

// Seeder loads the demo data set: two members, two books each and one order
// per member.
type Seeder struct {
	uow repositories.UnitOfWork
	log logger.Logger
}

func NewSeeder(uow repositories.UnitOfWork, log logger.Logger) *Seeder {
	return &Seeder{uow: uow, log: log}
}

// Seed creates every sample member that does not exist yet, with its books and
// order, in one transaction. It returns the number of members created;
// running it again creates nothing.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	created := 0
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		for _, sm := range sampleData {
			existing, err := store.Members().FindByName(ctx, sm.name)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				continue
			}
			if err := seedMember(ctx, store, sm); err != nil {
				return fmt.Errorf("%s: %w", sm.name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed sample data: %w", err)
	}
	s.log.InfoContext(ctx, "sample data seeded", "members_created", created)
	return created, nil
}

func seedMember(ctx context.Context, store repositories.Store, sm sampleMember) error {
	member, err := models.NewMember(sm.name, sm.address)
	if err != nil {
		return err
	}
	if err := store.Members().Save(ctx, member); err != nil {
		return err
	}

	lines := make([]domainsvcs.OrderLine, 0, len(sm.books))
	for _, b := range sm.books {
		name, err := models.NewItemName(b.name)
		if err != nil {
			return err
		}
		item, err := models.NewItem(name, b.price, b.stock, models.Book{})
		if err != nil {
			return err
		}
		if err := store.Items().Save(ctx, item); err != nil {
			return err
		}
		lines = append(lines, domainsvcs.OrderLine{Item: item, Count: b.count})
	}

	order, err := domainsvcs.PlaceOrder(member, lines)
	if err != nil {
		return err
	}
	return store.Orders().Save(ctx, order)
}
