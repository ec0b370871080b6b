// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"review_backend/internal/feature/auth/domain/entity"
)

// PasswordCost はbcryptのコストです。
const PasswordCost = 10

// MaxPasswordBytes はbcryptが使用する平文の最大バイト数です。
// これを超える部分は既存のハッシュと同じく無視されます。
const MaxPasswordBytes = 72

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化し、IDと作成日時を設定します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmailAndRole はメールアドレスと管理者フラグの両方に一致するユーザーを取得します。
	// 存在しない場合、ErrUserNotFoundを返します。
	FindByEmailAndRole(ctx context.Context, email string, isAdmin bool) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// 存在しない場合はErrUserNotFound、IDの形式が不正な場合はErrInvalidIDを返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID, email string, isAdmin bool) (string, error)
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users        UserRepository
	jwtGenerator JWTGenerator
	cost         int
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// jwtGenerator がnilの場合、ログインはトークンを発行しません。
func NewAuthUsecase(users UserRepository, jwtGenerator JWTGenerator) *authUsecase {
	return &authUsecase{
		users:        users,
		jwtGenerator: jwtGenerator,
		cost:         PasswordCost,
	}
}

// NormalizeEmail は保存・検索前にメールアドレスを小文字化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(email)
}

// bcryptInput は平文を先頭 MaxPasswordBytes バイトに切り詰めます。
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

// VerifyPassword は平文パスワードが保存済みハッシュと一致するかを返します。
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録し、作成したユーザーを返します。
func (u *authUsecase) Signup(ctx context.Context, name, email, password string, isAdmin bool) (*entity.User, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Name:     name,
		Email:    NormalizeEmail(email),
		Password: string(hashed),
		IsAdmin:  isAdmin,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", user.ID, "is_admin", isAdmin)
	return user, nil
}

// Login はメールアドレスと役割でユーザーを検索し、パスワードを検証します。
// 管理者と一般ユーザーは別のアカウントとして扱われます。
// 成功時はユーザーとJWTトークン（ジェネレーター未設定時は空文字列）を返します。
func (u *authUsecase) Login(ctx context.Context, email, password string, isAdmin bool) (*entity.User, string, error) {
	user, err := u.users.FindByEmailAndRole(ctx, NormalizeEmail(email), isAdmin)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if !VerifyPassword(password, user.Password) {
		return nil, "", ErrWrongPassword
	}

	if u.jwtGenerator == nil {
		return user, "", nil
	}
	token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// FindByID はIDでユーザーを取得します。
func (u *authUsecase) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return u.users.FindByID(ctx, id)
}
