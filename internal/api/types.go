// Package api はHTTP/WebSocket APIのリクエスト・レスポンス型を定義します。
package api

import "time"

// MessageResponse はメッセージのみを含むレスポンスです。エラー応答にも使用します。
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse は認証ミドルウェアのエラー応答です。
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse はユーザー情報です。パスワードハッシュは含みません。
type UserResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// Token はログイン成功時のみ設定されます。
	Token string `json:"token,omitempty"`
}

// ReviewResponse は投稿者を解決済みのレビューです。
type ReviewResponse struct {
	ID        string       `json:"_id"`
	User      UserResponse `json:"user"`
	Service   string       `json:"service"`
	Comment   string       `json:"comment"`
	Label     string       `json:"label"`
	Score     float64      `json:"score"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PredictionResponse はリアルタイム予測の結果です。
type PredictionResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SignupRequest はサインアップのリクエストです。JSONとフォームの両方を受け付けます。
type SignupRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginRequest はログインのリクエストです。
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SaveReviewRequest はレビュー投稿のリクエストです。
type SaveReviewRequest struct {
	UserID  string `json:"userId" form:"userId" binding:"required"`
	Service string `json:"service" form:"service" binding:"required"`
	Comment string `json:"comment" form:"comment" binding:"required"`
}

// HealthResponse は /healthz のレスポンスです。
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
