// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"review_backend/internal/api"
	"review_backend/internal/feature/auth/domain/entity"
	"review_backend/internal/feature/auth/usecase"
	jwtmw "review_backend/internal/platform/jwt"
)

// クライアントに返すログインエラーメッセージ
const (
	MsgUserNotFound  = "User not found! Please register."
	MsgWrongPassword = "Wrong password!"
	MsgMissingFields = "missing required fields"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は新規ユーザーを登録し、作成したユーザーを返します。
	Signup(ctx context.Context, name, email, password string, isAdmin bool) (*entity.User, error)
	// Login はメールアドレスと役割でユーザーを認証し、ユーザーとJWTトークンを返します。
	Login(ctx context.Context, email, password string, isAdmin bool) (*entity.User, string, error)
	// FindByID はIDでユーザーを取得します。
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// UserResponse はユーザーエンティティをレスポンス形式に変換します。パスワードハッシュは含めません。
func UserResponse(u *entity.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AdminSignup は POST /admin-signup を処理します。
func (h *AuthHandler) AdminSignup(c *gin.Context) { h.signup(c, true) }

// UserSignup は POST /user-signup を処理します。
func (h *AuthHandler) UserSignup(c *gin.Context) { h.signup(c, false) }

// AdminLogin は POST /admin-login を処理します。
func (h *AuthHandler) AdminLogin(c *gin.Context) { h.login(c, true) }

// UserLogin は POST /user-login を処理します。
func (h *AuthHandler) UserLogin(c *gin.Context) { h.login(c, false) }

// signup はユーザー登録を処理します。
// - JSONまたはフォームをSignupRequestにバインド
// - 必須項目の欠落は400を返却
// - ストアのエラー（メール重複を含む）は500を返却
// - 成功時は作成したユーザーを200で返却
func (h *AuthHandler) signup(c *gin.Context, isAdmin bool) {
	var req api.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: MsgMissingFields})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password, isAdmin)
	if err != nil {
		slog.Warn("signup failed", "error", err, "email", req.Email, "is_admin", isAdmin, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}

	slog.Info("user signup successful", "user_id", user.ID, "is_admin", isAdmin, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, UserResponse(user))
}

// login はログインを処理します。
// - ユーザー未登録・パスワード不一致は400と固定メッセージを返却
// - その他のエラーは500を返却
// - 成功時はユーザーとトークンを200で返却
func (h *AuthHandler) login(c *gin.Context, isAdmin bool) {
	var req api.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: MsgMissingFields})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, isAdmin)
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		slog.Info("login for unknown user", "email", req.Email, "is_admin", isAdmin, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: MsgUserNotFound})
		return
	case errors.Is(err, usecase.ErrWrongPassword):
		slog.Warn("login with wrong password", "email", req.Email, "is_admin", isAdmin, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: MsgWrongPassword})
		return
	case err != nil:
		slog.Error("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}

	slog.Info("user login successful", "user_id", user.ID, "is_admin", isAdmin, "remote_addr", c.ClientIP())
	resp := UserResponse(user)
	resp.Token = token
	c.JSON(http.StatusOK, resp)
}

// Me は GET /me を処理し、JWTのsubjectに対応するユーザーを返します。
// jwtmw.AuthRequired の後ろに配置する必要があります。
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(jwtmw.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.auth.FindByID(c.Request.Context(), userID)
	if errors.Is(err, usecase.ErrUserNotFound) || errors.Is(err, usecase.ErrInvalidID) {
		c.JSON(http.StatusNotFound, api.MessageResponse{Message: err.Error()})
		return
	}
	if err != nil {
		slog.Error("failed to load current user", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, UserResponse(user))
}
