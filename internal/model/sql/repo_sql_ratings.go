package sql

import (
	"context"
	"fmt"
	"time"

	"storerate/internal/entity"

	"gorm.io/gorm/clause"
)

// UpsertRating inserts the user's rating for a store, or updates the existing
// row in place when one exists. The conflict target is the unique
// (user_id, store_id) pair, so concurrent submissions cannot produce
// duplicate rows; on update only rating and updated_at change while id and
// created_at are preserved.
func (r *GormRepository) UpsertRating(ctx context.Context, userID, storeID uint, value int) (*entity.DbRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 || storeID == 0 {
		return nil, fmt.Errorf("invalid user or store id")
	}
	if value < entity.RatingMin || value > entity.RatingMax {
		return nil, fmt.Errorf("rating %d out of range [%d,%d]", value, entity.RatingMin, entity.RatingMax)
	}

	row := entity.DbRating{
		UserID:  userID,
		StoreID: storeID,
		Rating:  value,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rating":     value,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// 冲突更新路径下 Create 不回填原行的 id/created_at，重新读取
	return r.GetUserRatingForStore(ctx, userID, storeID)
}

// GetUserRatingForStore loads the rating a user gave to a store. Returns
// gorm.ErrRecordNotFound when the user has not rated the store.
func (r *GormRepository) GetUserRatingForStore(ctx context.Context, userID, storeID uint) (*entity.DbRating, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 || storeID == 0 {
		return nil, fmt.Errorf("invalid user or store id")
	}
	var rating entity.DbRating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

type ratingUserRow struct {
	ID        uint
	UserID    uint
	StoreID   uint
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
	UserName  string
	UserEmail string
}

// ListRatingsForStore returns all ratings of a store with the rater's name
// and email, most recently created first.
func (r *GormRepository) ListRatingsForStore(ctx context.Context, storeID uint) ([]entity.RatingWithUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if storeID == 0 {
		return nil, fmt.Errorf("invalid store id")
	}

	var rows []ratingUserRow
	err := r.db.WithContext(ctx).Model(&entity.DbRating{}).
		Select("ratings.id, ratings.user_id, ratings.store_id, ratings.rating, ratings.created_at, ratings.updated_at, users.name AS user_name, users.email AS user_email").
		Joins("INNER JOIN users ON users.id = ratings.user_id").
		Where("ratings.store_id = ?", storeID).
		Order("ratings.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ratings := make([]entity.RatingWithUser, 0, len(rows))
	for _, row := range rows {
		ratings = append(ratings, entity.RatingWithUser{
			ID:        row.ID,
			UserID:    row.UserID,
			StoreID:   row.StoreID,
			Rating:    row.Rating,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			User: entity.RaterInfo{
				Name:  row.UserName,
				Email: row.UserEmail,
			},
		})
	}
	return ratings, nil
}

// AggregateForStore computes the average rating and rating count for a
// store. A store with no ratings yields average 0 and count 0.
func (r *GormRepository) AggregateForStore(ctx context.Context, storeID uint) (*entity.StoreAggregate, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if storeID == 0 {
		return nil, fmt.Errorf("invalid store id")
	}
	var agg entity.StoreAggregate
	err := r.db.WithContext(ctx).Model(&entity.DbRating{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(id) AS total_ratings").
		Where("store_id = ?", storeID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// CountRatings returns total rating count.
func (r *GormRepository) CountRatings(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbRating{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
