package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/updoot-app/backend/internal/middleware"
	"github.com/updoot-app/backend/internal/models"
	"github.com/updoot-app/backend/internal/session"
	"github.com/updoot-app/backend/internal/store"
)

type AuthHandler struct {
	users    *store.UserStore
	sessions session.Store
}

func NewAuthHandler(users *store.UserStore, sessions session.Store) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

func validateRegister(input models.RegisterRequest) []models.FieldError {
	var errs []models.FieldError
	if !strings.Contains(input.Email, "@") {
		errs = append(errs, models.FieldError{Field: "email", Message: "invalid email"})
	}
	if len(input.Username) <= 2 {
		errs = append(errs, models.FieldError{Field: "username", Message: "length must be greater than 2"})
	}
	if strings.Contains(input.Username, "@") {
		errs = append(errs, models.FieldError{Field: "username", Message: "cannot include an @"})
	}
	if len(input.Password) <= 2 {
		errs = append(errs, models.FieldError{Field: "password", Message: "length must be greater than 2"})
	}
	return errs
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := validateRegister(input); errs != nil {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: errs})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hash),
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, models.UserResponse{Errors: []models.FieldError{
				{Field: "username", Message: "username already taken"},
			}})
			return
		}
		writeStoreError(c, err)
		return
	}

	// Log the user in right after registering.
	h.setSessionCookie(c, user.ID)
	c.JSON(http.StatusCreated, models.UserResponse{User: &user})
}

// Login authenticates by username or email plus password
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.ByLogin(c.Request.Context(), input.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, models.UserResponse{Errors: []models.FieldError{
				{Field: "username_or_email", Message: "that username doesn't exist"},
			}})
			return
		}
		writeStoreError(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, models.UserResponse{Errors: []models.FieldError{
			{Field: "password", Message: "incorrect password"},
		}})
		return
	}

	h.setSessionCookie(c, user.ID)
	c.JSON(http.StatusOK, models.UserResponse{User: user})
}

// Logout destroys the session and clears the cookie. The boolean result is
// false only when the session store refused to destroy the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(session.CookieName)
	if err == nil && token != "" {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			logrus.WithError(err).Error("failed to destroy session")
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetMe returns the authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ForgotPassword issues a reset token for the given email. The response is
// identical whether or not the email exists, so the endpoint can't be used
// to enumerate accounts. Mail delivery is out of scope; the reset link goes
// to the log.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.ByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logrus.WithError(err).Error("forgot-password lookup failed")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	token, err := h.sessions.CreateResetToken(c.Request.Context(), user.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to store reset token")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	logrus.WithFields(logrus.Fields{
		"email": user.Email,
		"link":  resetLinkBase() + token,
	}).Info("password reset requested")

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ChangePassword consumes a reset token, rehashes the password, and logs
// the user in.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(input.NewPassword) <= 2 {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
			{Field: "new_password", Message: "length must be greater than 2"},
		}})
		return
	}

	userID, ok, err := h.sessions.UserIDForResetToken(c.Request.Context(), input.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
			{Field: "token", Message: "token expired"},
		}})
		return
	}

	user, err := h.users.ByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
				{Field: "token", Message: "user no longer exists"},
			}})
			return
		}
		writeStoreError(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, string(hash)); err != nil {
		writeStoreError(c, err)
		return
	}

	if err := h.sessions.DeleteResetToken(c.Request.Context(), input.Token); err != nil {
		logrus.WithError(err).Warn("failed to delete used reset token")
	}

	h.setSessionCookie(c, user.ID)
	c.JSON(http.StatusOK, models.UserResponse{User: user})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, userID int) {
	token, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		logrus.WithError(err).Error("failed to create session")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		session.CookieName,
		token,
		int(session.SessionMaxAge.Seconds()),
		"/",
		cookieDomain(),
		secureCookies(),
		true, // httpOnly
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", cookieDomain(), secureCookies(), true)
}

func cookieDomain() string {
	return os.Getenv("COOKIE_DOMAIN")
}

func secureCookies() bool {
	return os.Getenv("APP_ENV") == "production"
}

func resetLinkBase() string {
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "http://localhost:3000"
	}
	return origin + "/change-password/"
}
