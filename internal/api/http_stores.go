package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storerate/internal/entity"
	"storerate/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListStores 普通用户视角的店铺列表，带整体评分与本人评分
func (h *HTTPHandler) ListStores(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stores, err := h.repo.ListStoresForUser(ctx, user.ID)
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

// SubmitRating 提交或修改对某家店铺的评分，同一用户同一店铺只保留一条
func (h *HTTPHandler) SubmitRating(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.RatingSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ValidationFailed(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetStoreByID(ctx, req.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeStoreNotFound, "store not found")
			return
		}
		logrus.WithError(err).WithField("store_id", req.StoreID).Error("failed to load store")
		InternalError(c, "failed to submit rating")
		return
	}

	rating, err := h.repo.UpsertRating(ctx, user.ID, req.StoreID, req.Rating)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":  user.ID,
			"store_id": req.StoreID,
		}).Error("failed to save rating")
		InternalError(c, "failed to submit rating")
		return
	}
	metrics.RatingSubmitted()

	c.JSON(http.StatusOK, rating)
}
