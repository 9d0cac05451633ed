// Package auth issues tokens for users allowed to author content.
package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/workshophq/workshop/internal/middleware"
	"github.com/workshophq/workshop/internal/models"
	"github.com/workshophq/workshop/internal/pkg/jwt"
	"github.com/workshophq/workshop/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 7 * 24 * time.Hour

type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{db: db, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/login", h.login)
	g.GET("/me", authMW, h.me)
}

type loginDTO struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var dto loginDTO
	if err := c.ShouldBind(&dto); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	var user models.UserModel
	if err := h.db.Where("username = ?", dto.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Unauthorized(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)) != nil {
		response.Unauthorized(c)
		return
	}

	token, err := jwt.Sign(user.ID, tokenTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	now := time.Now()
	user.LastLoginTime = &now
	user.LastLoginIP = c.ClientIP()
	if err := h.db.Save(&user).Error; err != nil {
		h.log.Warn("failed to record login", zap.Error(err))
	}

	response.OK(c, gin.H{"token": token, "username": user.Username})
}

func (h *Handler) me(c *gin.Context) {
	var user models.UserModel
	if err := h.db.First(&user, "id = ?", middleware.CurrentUserID(c)).Error; err != nil {
		response.NotFound(c)
		return
	}
	response.OK(c, user)
}
