package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

// MemberService registers and looks up members.
type MemberService struct {
	uow repositories.UnitOfWork
}

// NewMemberService returns a MemberService over uow.
func NewMemberService(uow repositories.UnitOfWork) *MemberService {
	return &MemberService{uow: uow}
}

// Join registers a member. Names are unique: a taken name fails with
// ErrMemberAlreadyExists.
func (s *MemberService) Join(ctx context.Context, name string, address models.Address) (*models.Member, error) {
	member, err := models.NewMember(name, address)
	if err != nil {
		return nil, err
	}

	err = s.uow.InTx(ctx, func(store repositories.Store) error {
		existing, err := store.Members().FindByName(ctx, member.Name)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return shopdomain.ErrMemberAlreadyExists
		}
		return store.Members().Save(ctx, member)
	})
	if err != nil {
		return nil, fmt.Errorf("join member: %w", err)
	}
	return member, nil
}

// FindMembers returns a page of members and the total count.
func (s *MemberService) FindMembers(ctx context.Context, opts repositories.QueryOpts) ([]*models.Member, int, error) {
	var (
		members []*models.Member
		total   int
	)
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		members, total, err = store.Members().FindAll(ctx, opts)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return members, total, nil
}

func (s *MemberService) FindOne(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member *models.Member
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		member, err = store.Members().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

// FindByName returns the member registered under name.
func (s *MemberService) FindByName(ctx context.Context, name string) (*models.Member, error) {
	var member *models.Member
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		found, err := store.Members().FindByName(ctx, name)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return shopdomain.ErrMemberNotFound
		}
		member = found[0]
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find member by name: %w", err)
	}
	return member, nil
}

// Rename changes a member's name, keeping names unique.
func (s *MemberService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Member, error) {
	var member *models.Member
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		var err error
		member, err = store.Members().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := member.Rename(name); err != nil {
			return err
		}
		return store.Members().Update(ctx, member)
	})
	if err != nil {
		return nil, fmt.Errorf("rename member: %w", err)
	}
	return member, nil
}
