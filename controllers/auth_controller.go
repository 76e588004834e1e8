package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blogd/middleware"
	"blogd/models"
	"blogd/utils"
)

const tokenDuration = 72 * time.Hour

// AuthController handles signup, login and password reset, all gated by
// emailed one-time codes. Codes are returned directly in the response;
// mail delivery is not part of this service.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// issueAuthCode overwrites any existing code for the email and returns the
// fresh one. At most one live code exists per address.
func (a *AuthController) issueAuthCode(email string) (string, error) {
	entry := models.AuthCode{
		Email:     email,
		Code:      utils.GenerateAuthCode(6),
		ExpiresAt: time.Now().Add(models.AuthCodeTTL),
	}
	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at"}),
	}).Create(&entry).Error
	if err != nil {
		return "", err
	}
	return entry.Code, nil
}

// verifyAndConsume succeeds only for a stored, matching, unexpired code and
// deletes it on success. Callers cannot tell apart "never existed", "wrong
// code" and "expired".
func (a *AuthController) verifyAndConsume(email, code string) bool {
	var entry models.AuthCode
	err := a.db.
		Where("email = ? AND code = ? AND expires_at > ?", email, code, time.Now()).
		First(&entry).Error
	if err != nil {
		return false
	}
	a.db.Delete(&models.AuthCode{}, "email = ?", email)
	return true
}

func (a *AuthController) emailRegistered(email string) bool {
	var user models.User
	return a.db.Where("email = ?", email).First(&user).Error == nil
}

// SendSignupCode issues a one-time code for a not yet registered email.
func (a *AuthController) SendSignupCode(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if a.emailRegistered(email) {
		utils.Error(ctx, http.StatusBadRequest, "email already registered")
		return
	}

	code, err := a.issueAuthCode(email)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to generate auth code", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "Auth code generated successfully", gin.H{"auth_code": code})
}

// Register creates a user once the emailed code checks out.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		AuthCode  string `json:"auth_code" binding:"required"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Password  string `json:"password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if a.emailRegistered(email) {
		utils.Error(ctx, http.StatusBadRequest, "email already registered")
		return
	}

	if !a.verifyAndConsume(email, strings.TrimSpace(req.AuthCode)) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid or expired auth code")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	user := models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to create user", err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenDuration)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	utils.Success(ctx, http.StatusCreated, "User registered successfully", gin.H{
		"user":  user,
		"token": token,
	})
}

// Login authenticates by email and password and issues a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid login credentials")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid login credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, tokenDuration)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "Login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

// Logout revokes the presented token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	tokenVal, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := tokenVal.(string)
	if token != "" {
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(token, claims.ExpiresAt.Time)
		}
	}
	utils.Success(ctx, http.StatusOK, "Logged out successfully", nil)
}

// SendResetCode issues a one-time code for an existing account.
func (a *AuthController) SendResetCode(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if !a.emailRegistered(email) {
		utils.Error(ctx, http.StatusBadRequest, "email not registered")
		return
	}

	code, err := a.issueAuthCode(email)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to generate auth code", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "Auth code generated successfully", gin.H{"auth_code": code})
}

// ResetPassword overwrites the password hash once the emailed code checks out.
func (a *AuthController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		AuthCode    string `json:"auth_code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusBadRequest, "email not registered")
		return
	}

	if !a.verifyAndConsume(email, strings.TrimSpace(req.AuthCode)) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid or expired auth code")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to hash password", err)
		return
	}
	if err := a.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		utils.ErrorWith(ctx, http.StatusInternalServerError, "failed to reset password", err)
		return
	}

	utils.Success(ctx, http.StatusOK, "Password reset successfully", nil)
}
