package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pinhome/adapters/magiclink"
	"pinhome/adapters/session"
	"pinhome/models"
)

// Request a login link
// (POST /api/auth/login)
func (impl *ServerImpl) PostAuthLogin(c *gin.Context) {
	const op = "PostAuthLogin"
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address."})
		return
	}
	address, err := mail.ParseAddress(body.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address."})
		return
	}

	if err := impl.auth.SendLoginLink(c.Request.Context(), address.Address); err != nil {
		slog.Error("Fail to send login link", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Sending the login link failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Check your email for the login link!"})
}

// Complete a magic link login
// (GET /auth/verify)
func (impl *ServerImpl) GetAuthVerify(c *gin.Context) {
	const op = "GetAuthVerify"
	email, err := impl.auth.VerifyLinkToken(c.Query("token"))
	if errors.Is(err, magiclink.ErrInvalidLinkToken) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "This login link is invalid or has expired."})
		return
	}
	if err != nil {
		slog.Error("Fail to verify login link", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	// 第一次登入時自動建立使用者
	user := models.User{Email: email}
	result := impl.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		result = impl.db.WithContext(c.Request.Context()).Create(&user)
	}
	if result.Error != nil {
		slog.Error("Fail to find or create user", slog.String("op", op), slog.Any("error", result.Error))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	sess, err := session.GetSession(c)
	if err != nil {
		slog.Error("Fail to get session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	sess.Set("user_id", user.ID.String())
	sess.Set("email", user.Email)
	if err := sess.Save(); err != nil {
		slog.Error("Fail to save session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	slog.Info("User logged in", slog.String("op", op), slog.String("userID", user.ID.String()))
	c.Redirect(http.StatusFound, "/")
}

// Sign out the current user
// (POST /api/auth/logout)
func (impl *ServerImpl) PostAuthLogout(c *gin.Context) {
	const op = "PostAuthLogout"
	sess, err := session.GetSession(c)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	sess.Clear()
	if err := sess.Save(); err != nil {
		slog.Error("Fail to save session", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Get the current user
// (GET /api/me)
func (impl *ServerImpl) GetMe(c *gin.Context) {
	userID, email := impl.currentUser(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not logged in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId": userID,
		"email":  email,
	})
}
