package sql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"storerate/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()

	// 每个测试一个命名内存库，cache=shared 让连接池里的连接看到同一份数据
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&entity.DbUser{}, &entity.DbStore{}, &entity.DbRating{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return NewGormRepository(db)
}

func seedUser(t *testing.T, repo *GormRepository, email string, role entity.Role) *entity.DbUser {
	t.Helper()
	user := &entity.DbUser{
		Name:         "Example Person With Long Name",
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Address:      "42 Example Street",
		Role:         role,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func seedStore(t *testing.T, repo *GormRepository, ownerID uint, email string) *entity.DbStore {
	t.Helper()
	store := &entity.DbStore{
		Name:    "Example Store With Long Name",
		Email:   email,
		Address: "7 Market Square",
		OwnerID: ownerID,
	}
	if err := repo.CreateStore(context.Background(), store); err != nil {
		t.Fatalf("failed to seed store %s: %v", email, err)
	}
	return store
}

func TestUpsertRatingCreatesThenUpdates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	rater := seedUser(t, repo, "rater@example.com", entity.RoleUser)
	store := seedStore(t, repo, owner.ID, "store@example.com")

	first, err := repo.UpsertRating(ctx, rater.ID, store.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error on first upsert: %v", err)
	}
	if first.Rating != 3 {
		t.Fatalf("expected rating 3, got %d", first.Rating)
	}

	second, err := repo.UpsertRating(ctx, rater.ID, store.ID, 5)
	if err != nil {
		t.Fatalf("unexpected error on second upsert: %v", err)
	}
	if second.Rating != 5 {
		t.Fatalf("expected rating 5 after update, got %d", second.Rating)
	}
	if second.ID != first.ID {
		t.Fatalf("expected row id to be stable across upserts, got %d then %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at to be preserved, got %v then %v", first.CreatedAt, second.CreatedAt)
	}

	count, err := repo.CountRatings(ctx)
	if err != nil {
		t.Fatalf("unexpected error counting ratings: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one rating row, got %d", count)
	}
}

func TestUpsertRatingRejectsOutOfRange(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	rater := seedUser(t, repo, "rater@example.com", entity.RoleUser)
	store := seedStore(t, repo, owner.ID, "store@example.com")

	for _, value := range []int{0, 6, -1, 100} {
		if _, err := repo.UpsertRating(ctx, rater.ID, store.ID, value); err == nil {
			t.Errorf("expected error for rating %d", value)
		}
	}

	count, err := repo.CountRatings(ctx)
	if err != nil {
		t.Fatalf("unexpected error counting ratings: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected storage untouched by rejected values, got %d rows", count)
	}
}

func TestAggregateForStoreWithoutRatings(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	store := seedStore(t, repo, owner.ID, "store@example.com")

	agg, err := repo.AggregateForStore(ctx, store.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.AverageRating != 0 {
		t.Errorf("expected average 0 for unrated store, got %v", agg.AverageRating)
	}
	if agg.TotalRatings != 0 {
		t.Errorf("expected count 0 for unrated store, got %d", agg.TotalRatings)
	}
}

func TestAggregateForStoreAverages(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	store := seedStore(t, repo, owner.ID, "store@example.com")

	values := []int{3, 5}
	for i, value := range values {
		rater := seedUser(t, repo, fmt.Sprintf("rater%d@example.com", i), entity.RoleUser)
		if _, err := repo.UpsertRating(ctx, rater.ID, store.ID, value); err != nil {
			t.Fatalf("unexpected error rating store: %v", err)
		}
	}

	agg, err := repo.AggregateForStore(ctx, store.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.AverageRating != 4 {
		t.Errorf("expected average 4 for ratings [3,5], got %v", agg.AverageRating)
	}
	if agg.TotalRatings != 2 {
		t.Errorf("expected count 2, got %d", agg.TotalRatings)
	}

	extra := seedUser(t, repo, "rater99@example.com", entity.RoleUser)
	if _, err := repo.UpsertRating(ctx, extra.ID, store.ID, 1); err != nil {
		t.Fatalf("unexpected error rating store: %v", err)
	}

	agg, err = repo.AggregateForStore(ctx, store.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(agg.AverageRating-3) > 1e-9 {
		t.Errorf("expected average 3 for ratings [3,5,1], got %v", agg.AverageRating)
	}
	if agg.TotalRatings != 3 {
		t.Errorf("expected count 3, got %d", agg.TotalRatings)
	}
}

func TestListRatingsForStoreNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	store := seedStore(t, repo, owner.ID, "store@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		rater := seedUser(t, repo, fmt.Sprintf("rater%d@example.com", i), entity.RoleUser)
		rating := entity.DbRating{
			UserID:    rater.ID,
			StoreID:   store.ID,
			Rating:    i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.db.WithContext(ctx).Create(&rating).Error; err != nil {
			t.Fatalf("failed to insert rating: %v", err)
		}
	}

	ratings, err := repo.ListRatingsForStore(ctx, store.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ratings) != 3 {
		t.Fatalf("expected 3 ratings, got %d", len(ratings))
	}
	for i := 1; i < len(ratings); i++ {
		if ratings[i].CreatedAt.After(ratings[i-1].CreatedAt) {
			t.Fatalf("expected most recently created first, got %v before %v",
				ratings[i-1].CreatedAt, ratings[i].CreatedAt)
		}
	}
	if ratings[0].User.Email == "" || ratings[0].User.Name == "" {
		t.Error("expected rater name and email to be joined in")
	}
}

func TestListStoresForUserIncludesOwnRating(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	ownerA := seedUser(t, repo, "owner-a@example.com", entity.RoleStoreOwner)
	ownerB := seedUser(t, repo, "owner-b@example.com", entity.RoleStoreOwner)
	storeA := seedStore(t, repo, ownerA.ID, "store-a@example.com")
	seedStore(t, repo, ownerB.ID, "store-b@example.com")

	shopper := seedUser(t, repo, "shopper@example.com", entity.RoleUser)
	other := seedUser(t, repo, "other@example.com", entity.RoleUser)
	if _, err := repo.UpsertRating(ctx, shopper.ID, storeA.ID, 4); err != nil {
		t.Fatalf("unexpected error rating store: %v", err)
	}
	if _, err := repo.UpsertRating(ctx, other.ID, storeA.ID, 2); err != nil {
		t.Fatalf("unexpected error rating store: %v", err)
	}

	stores, err := repo.ListStoresForUser(ctx, shopper.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(stores))
	}

	byID := make(map[uint]entity.StoreWithRating, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}

	rated := byID[storeA.ID]
	if rated.UserRating == nil || *rated.UserRating != 4 {
		t.Errorf("expected shopper's own rating 4, got %v", rated.UserRating)
	}
	if rated.AverageRating != 3 {
		t.Errorf("expected average 3 for ratings [4,2], got %v", rated.AverageRating)
	}
	if rated.TotalRatings != 2 {
		t.Errorf("expected count 2, got %d", rated.TotalRatings)
	}

	for id, s := range byID {
		if id == storeA.ID {
			continue
		}
		if s.UserRating != nil {
			t.Errorf("expected no user rating on unrated store, got %v", *s.UserRating)
		}
		if s.AverageRating != 0 || s.TotalRatings != 0 {
			t.Errorf("expected zero aggregate on unrated store, got %v/%d", s.AverageRating, s.TotalRatings)
		}
	}
}

func TestCreateStoreEnforcesOneStorePerOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", entity.RoleStoreOwner)
	seedStore(t, repo, owner.ID, "first@example.com")

	second := &entity.DbStore{
		Name:    "Another Store With Long Name",
		Email:   "second@example.com",
		Address: "9 Other Street",
		OwnerID: owner.ID,
	}
	err := repo.CreateStore(ctx, second)
	if err == nil {
		t.Fatal("expected unique index violation for second store of the same owner")
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key error, got %v", err)
	}
}

func TestGetUserByEmailIsCaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	seedUser(t, repo, "mixed@example.com", entity.RoleUser)

	user, err := repo.GetUserByEmail(ctx, "  Mixed@Example.COM ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "mixed@example.com" {
		t.Fatalf("expected stored email, got %s", user.Email)
	}
}
