// Package handler はreviewsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"review_backend/internal/api"
	authhandler "review_backend/internal/feature/auth/transport/handler"
	"review_backend/internal/feature/reviews/domain/entity"
)

// MsgMissingFields は必須項目が欠けている場合のメッセージです。
const MsgMissingFields = authhandler.MsgMissingFields

// ReviewUsecase はレビュー操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ReviewUsecase interface {
	CreateReview(ctx context.Context, authorID, service, comment string) (*entity.Review, error)
	ListAllReviews(ctx context.Context) ([]entity.Review, error)
	ListReviewsByAuthor(ctx context.Context, authorID string) ([]entity.Review, error)
}

// ReviewHandler はレビューのHTTPリクエストを処理します。
type ReviewHandler struct {
	uc ReviewUsecase
}

// NewReviewHandler は指定されたusecaseでReviewHandlerの新しいインスタンスを生成します。
func NewReviewHandler(uc ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

// AllReviews は全レビューを新しい順にJSONで返します。
//
// エンドポイント:
// POST /all-reviews
func (h *ReviewHandler) AllReviews(c *gin.Context) {
	reviews, err := h.uc.ListAllReviews(c.Request.Context())
	if err != nil {
		slog.Error("failed to list reviews", "error", err)
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponses(reviews))
}

// UserReviews は指定ユーザーのレビューを新しい順にJSONで返します。
//
// エンドポイント:
// POST /user-reviews/:userId
func (h *ReviewHandler) UserReviews(c *gin.Context) {
	var userID string
	if err := runtime.BindStyledParameterWithOptions("simple", "userId", c.Param("userId"), &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true}); err != nil {
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: err.Error()})
		return
	}

	reviews, err := h.uc.ListReviewsByAuthor(c.Request.Context(), userID)
	if err != nil {
		slog.Error("failed to list user reviews", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponses(reviews))
}

// SaveReview はレビューを分類して保存し、投稿者を含むレビューを返します。
//
// エンドポイント:
// POST /save-review  {userId, service, comment}
func (h *ReviewHandler) SaveReview(c *gin.Context) {
	var req api.SaveReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("save review validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.MessageResponse{Message: MsgMissingFields})
		return
	}

	review, err := h.uc.CreateReview(c.Request.Context(), req.UserID, req.Service, req.Comment)
	if err != nil {
		slog.Error("failed to save review", "error", err, "user_id", req.UserID)
		c.JSON(http.StatusInternalServerError, api.MessageResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toResponse(review))
}

func toResponse(r *entity.Review) api.ReviewResponse {
	author := r.Author
	if author.ID == "" {
		author.ID = r.AuthorID
	}
	return api.ReviewResponse{
		ID:        r.ID,
		User:      authhandler.UserResponse(&author),
		Service:   r.Service,
		Comment:   r.Comment,
		Label:     string(r.Label),
		Score:     r.Score,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// toResponses は空でも [] を返します。
func toResponses(reviews []entity.Review) []api.ReviewResponse {
	out := make([]api.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toResponse(&reviews[i]))
	}
	return out
}
