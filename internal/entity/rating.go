package entity

import "time"

// RatingMin and RatingMax bound the accepted rating values.
const (
	RatingMin = 1
	RatingMax = 5
)

// DbRating represents one user's rating of one store. The composite unique
// index on (user_id, store_id) guarantees at most one row per pair; repeated
// submissions update the existing row in place.
type DbRating struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UserID    uint      `gorm:"column:user_id;uniqueIndex:idx_ratings_user_store;not null" json:"userId"`
	StoreID   uint      `gorm:"column:store_id;uniqueIndex:idx_ratings_user_store;not null" json:"storeId"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
}

// TableName overrides default pluralised name.
func (DbRating) TableName() string {
	return "ratings"
}

// RaterInfo carries the non-secret rater fields shown to store owners.
type RaterInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RatingWithUser is a rating joined with its rater.
type RatingWithUser struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	StoreID   uint      `json:"storeId"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      RaterInfo `json:"user"`
}

// StoreAggregate is the average/count pair for one store. A store with no
// ratings reports average 0 and count 0.
type StoreAggregate struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
}

type RatingSubmitRequest struct {
	StoreID uint `json:"storeId" binding:"required"`
	Rating  int  `json:"rating" binding:"required,min=1,max=5"`
}

// OwnerDashboard is the store owner's aggregate view. An owner without a
// store receives the zero aggregate and an empty list.
type OwnerDashboard struct {
	Store         *DbStore         `json:"store,omitempty"`
	AverageRating float64          `json:"averageRating"`
	TotalRatings  int64            `json:"totalRatings"`
	Ratings       []RatingWithUser `json:"ratings"`
}
