package sql

import (
	"context"
	"fmt"

	"storerate/internal/entity"
)

const storeRatingColumns = "stores.id, stores.name, stores.email, stores.address, stores.owner_id, " +
	"stores.photo_path, stores.created_at, " +
	"COALESCE(AVG(ratings.rating), 0) AS average_rating, COUNT(ratings.id) AS total_ratings"

// CreateStore persists a new store record.
func (r *GormRepository) CreateStore(ctx context.Context, store *entity.DbStore) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if store == nil {
		return fmt.Errorf("store is nil")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// GetStoreByID loads a store by ID.
func (r *GormRepository) GetStoreByID(ctx context.Context, id uint) (*entity.DbStore, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid store id")
	}
	var store entity.DbStore
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// GetStoreByOwnerID loads the store owned by the given user, if any.
func (r *GormRepository) GetStoreByOwnerID(ctx context.Context, ownerID uint) (*entity.DbStore, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("invalid owner id")
	}
	var store entity.DbStore
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// ListStoresWithRatings returns every store joined with its rating aggregate.
// Stores without ratings report average 0 and count 0.
func (r *GormRepository) ListStoresWithRatings(ctx context.Context) ([]entity.StoreWithRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	rows := make([]entity.StoreWithRating, 0)
	err := r.db.WithContext(ctx).Model(&entity.DbStore{}).
		Select(storeRatingColumns).
		Joins("LEFT JOIN ratings ON ratings.store_id = stores.id").
		Group("stores.id").
		Order("stores.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListStoresForUser returns every store with its aggregate plus the given
// user's own rating where one exists.
func (r *GormRepository) ListStoresForUser(ctx context.Context, userID uint) ([]entity.StoreWithRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	rows := make([]entity.StoreWithRating, 0)
	err := r.db.WithContext(ctx).Model(&entity.DbStore{}).
		Select(storeRatingColumns+", MAX(CASE WHEN ratings.user_id = ? THEN ratings.rating END) AS user_rating", userID).
		Joins("LEFT JOIN ratings ON ratings.store_id = stores.id").
		Group("stores.id").
		Order("stores.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetStorePhoto records the storage path of a store's photo.
func (r *GormRepository) SetStorePhoto(ctx context.Context, id uint, photoPath string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid store id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbStore{}).Where("id = ?", id).
		Update("photo_path", photoPath).Error
}

// CountStores returns total store count.
func (r *GormRepository) CountStores(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbStore{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
