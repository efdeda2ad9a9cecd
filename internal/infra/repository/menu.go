package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/database/models"
)

var tracer = otel.Tracer("repository")

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// UpsertAppend runs in one transaction. The upsert bumps item_seq on the slot row,
// which holds the row lock until commit, so concurrent appends to one document
// queue up and each receives a distinct position.
func (r *MenuRepository) UpsertAppend(ctx context.Context, slot domain.MenuSlot, item domain.MenuItem) (domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.Repository.UpsertAppend")
	defer span.End()

	var result models.Menu
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		menu := models.Menu{
			ID:        uuid.NewString(),
			Hostel:    string(slot.Hostel),
			MealType:  string(slot.MealType),
			MenuDate:  slot.MenuDate.String(),
			Day:       slot.MenuDate.Weekday(),
			Status:    string(domain.StatusPublished),
			ItemSeq:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hostel"}, {Name: "meal_type"}, {Name: "menu_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"item_seq":   gorm.Expr("menus.item_seq + 1"),
				"status":     string(domain.StatusPublished),
				"updated_at": now,
			}),
		}).Create(&menu).Error
		if err != nil {
			return err
		}

		var current models.Menu
		err = tx.
			Where("hostel = ? AND meal_type = ? AND menu_date = ?", menu.Hostel, menu.MealType, menu.MenuDate).
			Take(&current).Error
		if err != nil {
			return err
		}

		row := itemToModel(item)
		row.MenuID = current.ID
		row.Position = current.ItemSeq
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		return tx.
			Preload("Items", orderItems).
			Where("id = ?", current.ID).
			Take(&result).Error
	})
	if err != nil {
		err = translate(err, "menu")
		span.RecordError(err)
		return domain.MenuDocument{}, errors.Wrap(err, "MenuRepository.UpsertAppend")
	}

	return menuToDomain(result), nil
}

func (r *MenuRepository) ListByDay(ctx context.Context, day domain.DayKey, hostel domain.Hostel) ([]domain.MenuDocument, error) {
	ctx, span := tracer.Start(ctx, "Menu.Repository.ListByDay")
	defer span.End()

	query := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("menu_date = ?", day.String())
	if hostel != "" {
		query = query.Where("hostel = ?", string(hostel))
	}

	var rows []models.Menu
	if err := query.Order("hostel ASC").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "MenuRepository.ListByDay")
	}

	docs := make([]domain.MenuDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, menuToDomain(row))
	}
	return docs, nil
}

func (r *MenuRepository) FindItem(ctx context.Context, itemID string) (domain.ItemLocation, error) {
	ctx, span := tracer.Start(ctx, "Menu.Repository.FindItem")
	defer span.End()

	var item models.MenuItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).Take(&item).Error
	if err != nil {
		err = translate(err, "item")
		span.RecordError(err)
		return domain.ItemLocation{}, errors.Wrap(err, "MenuRepository.FindItem")
	}

	var menu models.Menu
	err = r.db.WithContext(ctx).Where("id = ?", item.MenuID).Take(&menu).Error
	if err != nil {
		err = translate(err, "item")
		span.RecordError(err)
		return domain.ItemLocation{}, errors.Wrap(err, "MenuRepository.FindItem")
	}

	return domain.ItemLocation{
		MenuID: menu.ID,
		Slot: domain.MenuSlot{
			Hostel:   domain.Hostel(menu.Hostel),
			MealType: domain.MealType(menu.MealType),
			MenuDate: domain.DayKey(menu.MenuDate),
		},
		Item: itemToDomain(item),
	}, nil
}

// PullItem deletes exactly the row keyed by itemID. Of two concurrent deletes only
// one affects a row; the other reports NotFound.
func (r *MenuRepository) PullItem(ctx context.Context, itemID string) error {
	ctx, span := tracer.Start(ctx, "Menu.Repository.PullItem")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", itemID).
			Take(&item).Error
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", itemID).Delete(&models.MenuItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.Menu{}).
			Where("id = ?", item.MenuID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		err = translate(err, "item")
		span.RecordError(err)
		return errors.Wrap(err, "MenuRepository.PullItem")
	}
	return nil
}

func (r *MenuRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// translate maps gorm errors onto domain errors; anything else passes through.
func translate(err error, resource string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Resource: resource}
	default:
		return err
	}
}

func menuToDomain(m models.Menu) domain.MenuDocument {
	items := make([]domain.MenuItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, itemToDomain(it))
	}
	return domain.MenuDocument{
		ID:        m.ID,
		Hostel:    domain.Hostel(m.Hostel),
		MealType:  domain.MealType(m.MealType),
		MenuDate:  domain.DayKey(m.MenuDate),
		Day:       m.Day,
		Items:     items,
		Status:    domain.MenuStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func itemToDomain(it models.MenuItem) domain.MenuItem {
	return domain.MenuItem{
		ID:         it.ID,
		Text:       it.Text,
		ImagePath:  it.ImagePath,
		ThumbPath:  it.ThumbPath,
		CreatedBy:  it.CreatedBy,
		CreatedAt:  it.CreatedAt,
		OwnerToken: it.OwnerToken,
	}
}

func itemToModel(it domain.MenuItem) models.MenuItem {
	return models.MenuItem{
		ID:         it.ID,
		Text:       it.Text,
		ImagePath:  it.ImagePath,
		ThumbPath:  it.ThumbPath,
		CreatedBy:  it.CreatedBy,
		CreatedAt:  it.CreatedAt,
		OwnerToken: it.OwnerToken,
	}
}
