package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

// WindowQuery carries a validated, safe-to-apply listing query. Attributes is
// keyed by database column and only ever holds values already checked against
// the field's enumerated domain. Search is sanitized and LIKE-escaped by the
// caller.
type WindowQuery struct {
	Attributes  map[string]string
	IsDuplicate *bool
	Search      string
	Offset      int
	Limit       int
}

type WindowRepo interface {
	Create(ctx context.Context, tx *gorm.DB, window *types.Window) (*types.Window, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Window, error)
	GetByHash(ctx context.Context, tx *gorm.DB, hash string) (*types.Window, error)
	ListByHashExcluding(ctx context.Context, tx *gorm.DB, hash string, excludeID uuid.UUID) ([]*types.Window, error)
	List(ctx context.Context, tx *gorm.DB, q WindowQuery) ([]*types.Window, int64, error)
}

type windowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWindowRepo(db *gorm.DB, baseLog *logger.Logger) WindowRepo {
	return &windowRepo{db: db, log: baseLog.With("repo", "WindowRepo")}
}

func (r *windowRepo) Create(ctx context.Context, tx *gorm.DB, window *types.Window) (*types.Window, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(window).Error; err != nil {
		return nil, err
	}
	return window, nil
}

func (r *windowRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Window, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Window
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetByHash returns the earliest-inserted record carrying hash, i.e. the
// original of the hash-equivalence class, or nil when none exists.
func (r *windowRepo) GetByHash(ctx context.Context, tx *gorm.DB, hash string) (*types.Window, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Window
	err := transaction.WithContext(ctx).
		Where("hash = ?", hash).
		Order("seq ASC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *windowRepo) ListByHashExcluding(ctx context.Context, tx *gorm.DB, hash string, excludeID uuid.UUID) ([]*types.Window, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.Window{}
	if err := transaction.WithContext(ctx).
		Where("hash = ? AND id <> ?", hash, excludeID).
		Order("created_at DESC, seq DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *windowRepo) List(ctx context.Context, tx *gorm.DB, q WindowQuery) ([]*types.Window, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	base := transaction.WithContext(ctx).Model(&types.Window{})
	for column, value := range q.Attributes {
		base = base.Where(column+" = ?", value)
	}
	if q.IsDuplicate != nil {
		base = base.Where("is_duplicate = ?", *q.IsDuplicate)
	}
	if q.Search != "" {
		base = base.Where("LOWER(description) LIKE ? ESCAPE '\\'", "%"+q.Search+"%")
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := []*types.Window{}
	if err := base.
		Order("created_at DESC, seq DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
