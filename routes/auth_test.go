package routes_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"blogd/models"
)

func TestRegisterFlow(t *testing.T) {
	env := newTestEnv(t)
	email := "a@b.com"

	code := env.signupCode(t, email)

	// Wrong code is rejected without revealing why
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":      email,
		"auth_code":  "000000",
		"first_name": "John",
		"last_name":  "Doe",
		"password":   "password123",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid or expired auth code", decode(t, w)["message"])

	// Correct code registers and returns user + token
	w = env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":      email,
		"auth_code":  code,
		"first_name": "John",
		"last_name":  "Doe",
		"password":   "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	require.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	require.Equal(t, email, user["email"])

	// The auth code record is consumed
	var count int64
	env.db.Model(&models.AuthCode{}).Where("email = ?", email).Count(&count)
	require.Zero(t, count)
}

func TestAuthCodeSingleUse(t *testing.T) {
	env := newTestEnv(t)
	email := "once@b.com"
	code := env.signupCode(t, email)

	// Consume the code through password-reset verification path indirectly:
	// register once, then the same pair must fail for a different account state
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": email, "auth_code": code,
		"first_name": "A", "last_name": "B", "password": "secret99",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	// Replaying the same (email, code) pair fails
	w = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", gin.H{
		"email": email, "auth_code": code, "new_password": "another99",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid or expired auth code", decode(t, w)["message"])
}

func TestSignupCodeOverwritesPrevious(t *testing.T) {
	env := newTestEnv(t)
	email := "two@b.com"
	first := env.signupCode(t, email)
	second := env.signupCode(t, email)

	if first == second {
		t.Skip("random codes collided")
	}

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": email, "auth_code": first,
		"first_name": "A", "last_name": "B", "password": "secret99",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": email, "auth_code": second,
		"first_name": "A", "last_name": "B", "password": "secret99",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestExpiredAuthCodeRejected(t *testing.T) {
	env := newTestEnv(t)
	email := "late@b.com"
	code := env.signupCode(t, email)

	// Age the stored code past its validity window
	require.NoError(t, env.db.Model(&models.AuthCode{}).
		Where("email = ?", email).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": email, "auth_code": code,
		"first_name": "A", "last_name": "B", "password": "secret99",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid or expired auth code", decode(t, w)["message"])
}

func TestSignupCodeForRegisteredEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken@b.com", "password123")

	w := env.do(t, http.MethodPost, "/api/v1/auth/signup-code", gin.H{"email": "taken@b.com"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "email already registered", decode(t, w)["message"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@b.com", "password123")

	code := "123456" // never issued; duplicate check fires first
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": "dup@b.com", "auth_code": code,
		"first_name": "A", "last_name": "B", "password": "secret99",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "email already registered", decode(t, w)["message"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "login@b.com", "password123")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "login@b.com", "password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid login credentials", decode(t, w)["message"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "login@b.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, decode(t, w)["token"])
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "nobody@b.com", "password": "whatever1",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "reset@b.com", "oldpassword")

	w := env.do(t, http.MethodPost, "/api/v1/auth/reset-code", gin.H{"email": "reset@b.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := decode(t, w)["auth_code"].(string)

	w = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", gin.H{
		"email": "reset@b.com", "auth_code": code, "new_password": "newpassword",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Password reset successfully", decode(t, w)["message"])

	// Old password no longer works, new one does
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "reset@b.com", "password": "oldpassword",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "reset@b.com", "password": "newpassword",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResetCodeUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/auth/reset-code", gin.H{"email": "ghost@b.com"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "bye@b.com", "password123")

	w := env.do(t, http.MethodPost, "/api/v1/auth/logout", gin.H{}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/posts", gin.H{
		"title": "t", "content": "c",
	}, token)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "token revoked", decode(t, w)["message"])
}
