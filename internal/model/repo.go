package model

import (
	"context"

	"storerate/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户
	CreateUser(ctx context.Context, user *entity.DbUser) error
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	ListUsers(ctx context.Context) ([]entity.DbUser, error)
	ListUsersByRole(ctx context.Context, role entity.Role) ([]entity.DbUser, error)
	UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error
	CountUsers(ctx context.Context) (int64, error)

	// 店铺
	CreateStore(ctx context.Context, store *entity.DbStore) error
	GetStoreByID(ctx context.Context, id uint) (*entity.DbStore, error)
	GetStoreByOwnerID(ctx context.Context, ownerID uint) (*entity.DbStore, error)
	ListStoresWithRatings(ctx context.Context) ([]entity.StoreWithRating, error)
	ListStoresForUser(ctx context.Context, userID uint) ([]entity.StoreWithRating, error)
	SetStorePhoto(ctx context.Context, id uint, photoPath string) error
	CountStores(ctx context.Context) (int64, error)

	// 评分
	UpsertRating(ctx context.Context, userID, storeID uint, value int) (*entity.DbRating, error)
	GetUserRatingForStore(ctx context.Context, userID, storeID uint) (*entity.DbRating, error)
	ListRatingsForStore(ctx context.Context, storeID uint) ([]entity.RatingWithUser, error)
	AggregateForStore(ctx context.Context, storeID uint) (*entity.StoreAggregate, error)
	CountRatings(ctx context.Context) (int64, error)
}
