package entity

import "time"

// DbStore represents a persisted store. The unique index on owner_id enforces
// the one-store-per-owner rule at the database level so concurrent creations
// cannot slip a second store past the application check.
type DbStore struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"column:name;type:varchar(60);not null" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Address   string    `gorm:"column:address;type:varchar(400);not null" json:"address"`
	OwnerID   uint      `gorm:"column:owner_id;uniqueIndex;not null" json:"ownerId"`
	PhotoPath string    `gorm:"column:photo_path;type:varchar(512)" json:"-"`
}

// TableName overrides default pluralised name.
func (DbStore) TableName() string {
	return "stores"
}

// StoreWithRating is a store joined with its rating aggregate. UserRating is
// only populated on the shopper listing and carries the requesting user's own
// rating when one exists.
type StoreWithRating struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	OwnerID       uint      `json:"ownerId"`
	PhotoPath     string    `json:"-"`
	PhotoURL      string    `gorm:"-" json:"photoUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	AverageRating float64   `json:"averageRating"`
	TotalRatings  int64     `json:"totalRatings"`
	UserRating    *int      `json:"userRating,omitempty"`
}

type StoreCreateRequest struct {
	Name    string `json:"name" binding:"required,min=20,max=60"`
	Email   string `json:"email" binding:"required,email"`
	Address string `json:"address" binding:"required,max=400"`
	OwnerID uint   `json:"ownerId" binding:"required"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}
