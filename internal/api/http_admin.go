package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storerate/internal/auth"
	"storerate/internal/entity"
	"storerate/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxStorePhotoBytes 店铺照片大小上限
const maxStorePhotoBytes = 5 << 20

// AdminStats 管理端总览：用户数、店铺数、评分数
func (h *HTTPHandler) AdminStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	totalUsers, err := h.repo.CountUsers(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count users")
		InternalError(c, "failed to load stats")
		return
	}
	totalStores, err := h.repo.CountStores(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count stores")
		InternalError(c, "failed to load stats")
		return
	}
	totalRatings, err := h.repo.CountRatings(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count ratings")
		InternalError(c, "failed to load stats")
		return
	}

	c.JSON(http.StatusOK, entity.AdminStats{
		TotalUsers:   totalUsers,
		TotalStores:  totalStores,
		TotalRatings: totalRatings,
	})
}

// AdminListUsers 返回全部用户
func (h *HTTPHandler) AdminListUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to load users")
		return
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for idx := range users {
		summaries = append(summaries, makeUserSummary(&users[idx]))
	}
	c.JSON(http.StatusOK, summaries)
}

// AdminCreateUser 管理员创建用户，角色由请求指定
func (h *HTTPHandler) AdminCreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	role, ok := entity.ParseRole(req.Role)
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "invalid role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password for new user")
		InternalError(c, "failed to create user")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user := &entity.DbUser{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Address:      strings.TrimSpace(req.Address),
		Role:         role,
	}
	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, ErrCodeEmailExists, "Email already registered")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, makeUserSummary(user))
}

// AdminListStoreOwners 返回全部店主角色用户，供建店时选择
func (h *HTTPHandler) AdminListStoreOwners(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	owners, err := h.repo.ListUsersByRole(ctx, entity.RoleStoreOwner)
	if err != nil {
		logrus.WithError(err).Error("failed to list store owners")
		InternalError(c, "failed to load store owners")
		return
	}

	summaries := make([]entity.UserSummary, 0, len(owners))
	for idx := range owners {
		summaries = append(summaries, makeUserSummary(&owners[idx]))
	}
	c.JSON(http.StatusOK, summaries)
}

// AdminListStores 返回全部店铺及评分聚合
func (h *HTTPHandler) AdminListStores(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stores, err := h.repo.ListStoresWithRatings(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list stores")
		InternalError(c, "failed to load stores")
		return
	}

	for idx := range stores {
		stores[idx].PhotoURL = h.photoURL(stores[idx].PhotoPath)
	}
	c.JSON(http.StatusOK, stores)
}

// AdminCreateStore 管理员创建店铺。店主必须存在、角色为 store_owner 且名下无店铺；
// owner_id 上的唯一索引兜底并发创建。
func (h *HTTPHandler) AdminCreateStore(c *gin.Context) {
	var req entity.StoreCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	owner, err := h.repo.GetUserByID(ctx, req.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			BadRequest(c, ErrCodeUserNotFound, "Owner not found")
			return
		}
		logrus.WithError(err).WithField("owner_id", req.OwnerID).Error("failed to load owner")
		InternalError(c, "failed to create store")
		return
	}
	if owner.Role != entity.RoleStoreOwner {
		BadRequest(c, ErrCodeInvalidOwner, "Owner must have the store_owner role")
		return
	}

	if _, err := h.repo.GetStoreByOwnerID(ctx, req.OwnerID); err == nil {
		BadRequest(c, ErrCodeOwnerHasStore, "This owner already has a store")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).WithField("owner_id", req.OwnerID).Error("failed to check existing store")
		InternalError(c, "failed to create store")
		return
	}

	store := &entity.DbStore{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Address: strings.TrimSpace(req.Address),
		OwnerID: req.OwnerID,
	}
	if err := h.repo.CreateStore(ctx, store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, ErrCodeOwnerHasStore, "This owner already has a store")
			return
		}
		logrus.WithError(err).Error("failed to create store")
		InternalError(c, "failed to create store")
		return
	}

	c.JSON(http.StatusCreated, store)
}

// AdminUploadStorePhoto 上传店铺照片到配置的存储后端
func (h *HTTPHandler) AdminUploadStorePhoto(c *gin.Context) {
	if h.storage == nil {
		ServiceUnavailable(c, "photo storage not available")
		return
	}

	idValue := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid store id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "store not found")
			return
		}
		logrus.WithError(err).Error("failed to load store for photo upload")
		InternalError(c, "failed to upload photo")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "photo file is required")
		return
	}
	if fileHeader.Size > maxStorePhotoBytes {
		BadRequest(c, ErrCodeInvalidRequest, "photo exceeds the 5MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded photo")
		InternalError(c, "failed to upload photo")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxStorePhotoBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded photo")
		InternalError(c, "failed to upload photo")
		return
	}
	if len(data) > maxStorePhotoBytes {
		BadRequest(c, ErrCodeInvalidRequest, "photo exceeds the 5MB limit")
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	photoPath, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "stores",
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to persist store photo")
		InternalError(c, "failed to upload photo")
		return
	}

	if err := h.repo.SetStorePhoto(ctx, store.ID, photoPath); err != nil {
		logrus.WithError(err).WithField("store_id", store.ID).Error("failed to record photo path")
		InternalError(c, "failed to upload photo")
		return
	}

	c.JSON(http.StatusOK, gin.H{"photoUrl": h.photoURL(photoPath)})
}
