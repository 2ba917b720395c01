package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storerate/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OwnerDashboard 店主看板：自己店铺的平均分、评分总数和评分人列表。
// 店主名下尚无店铺时返回空看板而非错误。
func (h *HTTPHandler) OwnerDashboard(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	store, err := h.repo.GetStoreByOwnerID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, entity.OwnerDashboard{
				AverageRating: 0,
				TotalRatings:  0,
				Ratings:       []entity.RatingWithUser{},
			})
			return
		}
		logrus.WithError(err).WithField("owner_id", user.ID).Error("failed to load owner store")
		InternalError(c, "failed to load dashboard")
		return
	}

	aggregate, err := h.repo.AggregateForStore(ctx, store.ID)
	if err != nil {
		logrus.WithError(err).WithField("store_id", store.ID).Error("failed to aggregate ratings")
		InternalError(c, "failed to load dashboard")
		return
	}

	ratings, err := h.repo.ListRatingsForStore(ctx, store.ID)
	if err != nil {
		logrus.WithError(err).WithField("store_id", store.ID).Error("failed to list ratings")
		InternalError(c, "failed to load dashboard")
		return
	}
	if ratings == nil {
		ratings = []entity.RatingWithUser{}
	}

	c.JSON(http.StatusOK, entity.OwnerDashboard{
		Store:         store,
		AverageRating: aggregate.AverageRating,
		TotalRatings:  aggregate.TotalRatings,
		Ratings:       ratings,
	})
}
