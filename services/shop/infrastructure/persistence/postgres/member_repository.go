package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

type memberRepository struct {
	db  *gorm.DB
	ids *identityMap
}

// Save inserts a new member. Returns ErrMemberAlreadyExists when the name is taken.
func (r *memberRepository) Save(ctx context.Context, m *models.Member) error {
	rec := memberToRecord(m)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return shopdomain.ErrMemberAlreadyExists
		}
		return fmt.Errorf("insert member: %w", err)
	}
	r.ids.members[m.ID] = m
	return nil
}

// Update stores the member's name and address.
func (r *memberRepository) Update(ctx context.Context, m *models.Member) error {
	res := r.db.WithContext(ctx).Model(&memberRecord{}).Where("id = ?", m.ID).Updates(map[string]any{
		"name":    m.Name,
		"city":    m.Address.City,
		"street":  m.Address.Street,
		"zipcode": m.Address.Zipcode,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return shopdomain.ErrMemberAlreadyExists
		}
		return fmt.Errorf("update member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shopdomain.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	if m, ok := r.ids.members[id]; ok {
		return m, nil
	}
	var rec memberRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err, shopdomain.ErrMemberNotFound, "member")
	}
	return r.ids.member(rec), nil
}

func (r *memberRepository) FindByName(ctx context.Context, name string) ([]*models.Member, error) {
	var recs []memberRecord
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query members by name: %w", err)
	}
	out := make([]*models.Member, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.ids.member(rec))
	}
	return out, nil
}

func (r *memberRepository) FindAll(ctx context.Context, opts repositories.QueryOpts) ([]*models.Member, int, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&memberRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	var recs []memberRecord
	if err := paginate(db.Order("created_at, id"), opts).Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("query members: %w", err)
	}

	out := make([]*models.Member, 0, len(recs))
	for _, rec := range recs {
		out = append(out, r.ids.member(rec))
	}
	return out, int(total), nil
}

// paginate applies QueryOpts; a zero limit means no limit.
func paginate(db *gorm.DB, opts repositories.QueryOpts) *gorm.DB {
	if opts.Limit > 0 {
		db = db.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		db = db.Offset(opts.Offset)
	}
	return db
}
