package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storerate/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	currentUserContextKey = "current-user"

	// SessionCookieName 浏览器端会话 cookie 名称
	SessionCookieName = "session_token"
)

// RequestUser 存储请求上下文中的认证用户信息，密码哈希绝不进入该结构
type RequestUser struct {
	ID        uint
	Name      string
	Email     string
	Address   string
	Role      entity.Role
	CreatedAt time.Time
}

// HasRole 判断用户角色是否属于给定集合
func (u *RequestUser) HasRole(roles ...entity.Role) bool {
	if u == nil {
		return false
	}
	return u.Role.In(roles...)
}

// Summary 转换为对客户端的用户摘要
func (u *RequestUser) Summary() entity.UserSummary {
	if u == nil {
		return entity.UserSummary{}
	}
	return entity.UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// tokenFromRequest 提取会话令牌：优先 Authorization 头，其次会话 cookie
func tokenFromRequest(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie)
}

// AuthMiddleware 认证中间件：解析令牌并从数据库加载当前用户
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}

		claims, err := h.authManager.ParseToken(tokenString)
		if err != nil {
			logrus.WithError(err).Warn("failed to parse session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeSessionExpired,
				Message: "session is invalid or expired",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, err := h.repo.GetUserByID(ctx, claims.UserID)
		if err != nil {
			// 会话指向的用户已不存在，视为未登录
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
					Code:    ErrCodeUnauthorized,
					Message: "session user no longer exists",
				})
				return
			}
			logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to load session user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
				Code:    ErrCodeInternalError,
				Message: "failed to verify session",
			})
			return
		}

		c.Set(currentUserContextKey, &RequestUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Address:   user.Address,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		})
		c.Next()
	}
}

// RequireRole 角色守卫中间件：当前用户角色必须属于给定集合
func (h *HTTPHandler) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}
		if !user.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "insufficient role for this operation",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}
