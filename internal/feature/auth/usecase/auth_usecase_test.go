package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"review_backend/internal/feature/auth/domain/entity"
)

// mockUserRepository is a mock implementation of the UserRepository interface.
// It simulates database operations during testing.
type mockUserRepository struct {
	// CreateFunc is called when the Create method is invoked.
	CreateFunc func(ctx context.Context, user *entity.User) error
	// FindByEmailAndRoleFunc is called when the FindByEmailAndRole method is invoked.
	FindByEmailAndRoleFunc func(ctx context.Context, email string, isAdmin bool) (*entity.User, error)
	// FindByIDFunc is called when the FindByID method is invoked.
	FindByIDFunc func(ctx context.Context, id string) (*entity.User, error)
}

// Create is the mock implementation of the Create method.
func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = "generated-id"
	return nil // Default: success
}

// FindByEmailAndRole is the mock implementation of the FindByEmailAndRole method.
func (m *mockUserRepository) FindByEmailAndRole(ctx context.Context, email string, isAdmin bool) (*entity.User, error) {
	if m.FindByEmailAndRoleFunc != nil {
		return m.FindByEmailAndRoleFunc(ctx, email, isAdmin)
	}
	return nil, ErrUserNotFound // Default: not found
}

// FindByID is the mock implementation of the FindByID method.
func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

// mockJWTGenerator is a mock implementation of the JWTGenerator interface.
type mockJWTGenerator struct {
	// GenerateTokenFunc is called when the GenerateToken method is invoked.
	GenerateTokenFunc func(userID, email string, isAdmin bool) (string, error)
}

// GenerateToken is the mock implementation of the GenerateToken method.
func (m *mockJWTGenerator) GenerateToken(userID, email string, isAdmin bool) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, email, isAdmin)
	}
	return "mock-jwt-token", nil
}

func TestAuthUsecase_Signup(t *testing.T) {
	t.Run("successful signup hashes password and lowercases email", func(t *testing.T) {
		var stored *entity.User
		mockRepo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				stored = user
				user.ID = "u1"
				return nil
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		got, err := uc.Signup(context.Background(), "Alice", "Alice@Example.COM", "password123", true)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != stored || got.ID != "u1" {
			t.Errorf("expected created user to be returned, got %+v", got)
		}
		if stored.Email != "alice@example.com" {
			t.Errorf("expected lower-cased email, got %q", stored.Email)
		}
		if stored.Name != "Alice" || !stored.IsAdmin {
			t.Errorf("unexpected user fields: %+v", stored)
		}
		if stored.Password == "password123" {
			t.Fatal("password is not hashed")
		}
		if !VerifyPassword("password123", stored.Password) {
			t.Error("stored hash does not verify")
		}
		if cost, err := bcrypt.Cost([]byte(stored.Password)); err != nil || cost != PasswordCost {
			t.Errorf("expected bcrypt cost %d, got %d (%v)", PasswordCost, cost, err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				return ErrEmailAlreadyExists
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		uc.cost = bcrypt.MinCost
		_, err := uc.Signup(context.Background(), "Bob", "bob@example.com", "pw", false)

		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got: %v", err)
		}
	})

	t.Run("repository create failure", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mockRepo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				return expectedErr
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		uc.cost = bcrypt.MinCost
		_, err := uc.Signup(context.Background(), "Bob", "bob@example.com", "pw", false)

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error '%v', got: %v", expectedErr, err)
		}
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	testUser := &entity.User{
		ID:       "u1",
		Name:     "Test",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsAdmin:  true,
	}

	findAdmin := func(ctx context.Context, email string, isAdmin bool) (*entity.User, error) {
		if email == testUser.Email && isAdmin {
			return testUser, nil
		}
		return nil, ErrUserNotFound
	}

	t.Run("successful login", func(t *testing.T) {
		mockJWT := &mockJWTGenerator{
			GenerateTokenFunc: func(userID, email string, isAdmin bool) (string, error) {
				if userID != testUser.ID || email != testUser.Email || !isAdmin {
					t.Errorf("unexpected claims: userID=%s email=%s admin=%v", userID, email, isAdmin)
				}
				return "mock-jwt-token", nil
			},
		}

		uc := NewAuthUsecase(&mockUserRepository{FindByEmailAndRoleFunc: findAdmin}, mockJWT)
		user, token, err := uc.Login(context.Background(), "TEST@example.com", password, true)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user != testUser {
			t.Errorf("expected test user, got %+v", user)
		}
		if token != "mock-jwt-token" {
			t.Errorf("expected token 'mock-jwt-token', got: '%s'", token)
		}
	})

	t.Run("role mismatch is user not found", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{FindByEmailAndRoleFunc: findAdmin}, &mockJWTGenerator{})
		_, _, err := uc.Login(context.Background(), "test@example.com", password, false)

		if !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got: %v", err)
		}
	})

	t.Run("incorrect password", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{FindByEmailAndRoleFunc: findAdmin}, &mockJWTGenerator{})
		_, _, err := uc.Login(context.Background(), "test@example.com", "wrong-password", true)

		if !errors.Is(err, ErrWrongPassword) {
			t.Errorf("expected ErrWrongPassword, got: %v", err)
		}
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mockRepo := &mockUserRepository{
			FindByEmailAndRoleFunc: func(ctx context.Context, email string, isAdmin bool) (*entity.User, error) {
				return nil, dbErr
			},
		}

		uc := NewAuthUsecase(mockRepo, &mockJWTGenerator{})
		_, _, err := uc.Login(context.Background(), "test@example.com", password, true)

		if !errors.Is(err, dbErr) {
			t.Errorf("expected wrapped db error, got: %v", err)
		}
		if errors.Is(err, ErrUserNotFound) {
			t.Error("db failure must not look like user not found")
		}
	})

	t.Run("JWT generation failure", func(t *testing.T) {
		mockJWT := &mockJWTGenerator{
			GenerateTokenFunc: func(userID, email string, isAdmin bool) (string, error) {
				return "", errors.New("failed to sign token")
			},
		}

		uc := NewAuthUsecase(&mockUserRepository{FindByEmailAndRoleFunc: findAdmin}, mockJWT)
		_, _, err := uc.Login(context.Background(), "test@example.com", password, true)

		expectedErrMsg := "failed to generate token: failed to sign token"
		if err == nil || err.Error() != expectedErrMsg {
			t.Errorf("expected error message '%s', got: '%v'", expectedErrMsg, err)
		}
	})

	t.Run("no generator issues no token", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{FindByEmailAndRoleFunc: findAdmin}, nil)
		user, token, err := uc.Login(context.Background(), "test@example.com", password, true)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user == nil || token != "" {
			t.Errorf("expected user without token, got user=%v token=%q", user, token)
		}
	})
}

func TestAuthUsecase_FindByID(t *testing.T) {
	mockRepo := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
			if id == "bad" {
				return nil, ErrInvalidID
			}
			return &entity.User{ID: id}, nil
		},
	}
	uc := NewAuthUsecase(mockRepo, nil)

	user, err := uc.FindByID(context.Background(), "u9")
	if err != nil || user.ID != "u9" {
		t.Errorf("unexpected result: %+v, %v", user, err)
	}
	if _, err := uc.FindByID(context.Background(), "bad"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestAuthUsecase_LongPasswords(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "exactly 72 bytes", password: strings.Repeat("x", 72)},
		{name: "73 bytes", password: strings.Repeat("x", 73)},
		{name: "200 bytes", password: strings.Repeat("p", 200)},
		{name: "multibyte over limit", password: strings.Repeat("パ", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored *entity.User
			mockRepo := &mockUserRepository{
				CreateFunc: func(ctx context.Context, user *entity.User) error {
					stored = user
					user.ID = "u1"
					return nil
				},
				FindByEmailAndRoleFunc: func(ctx context.Context, email string, isAdmin bool) (*entity.User, error) {
					if stored != nil && email == stored.Email {
						return stored, nil
					}
					return nil, ErrUserNotFound
				},
			}
			uc := NewAuthUsecase(mockRepo, nil)
			uc.cost = bcrypt.MinCost

			if _, err := uc.Signup(context.Background(), "n", "a@b.c", tt.password, false); err != nil {
				t.Fatalf("signup failed: %v", err)
			}
			if _, _, err := uc.Login(context.Background(), "a@b.c", tt.password, false); err != nil {
				t.Fatalf("login round trip failed: %v", err)
			}
			if _, _, err := uc.Login(context.Background(), "a@b.c", "y"+tt.password[1:], false); !errors.Is(err, ErrWrongPassword) {
				t.Errorf("expected ErrWrongPassword for a different prefix, got: %v", err)
			}
		})
	}
}

func TestVerifyPassword_LegacyTruncatedHash(t *testing.T) {
	// bcrypt実装は先頭72バイトだけでハッシュを作る
	long := strings.Repeat("a", 72) + "tail-ignored"
	hash, _ := bcrypt.GenerateFromPassword([]byte(long[:72]), bcrypt.MinCost)

	if !VerifyPassword(long, string(hash)) {
		t.Error("expected full-length password to verify against a 72-byte hash")
	}
	if !VerifyPassword(strings.Repeat("a", 72)+"other-tail", string(hash)) {
		t.Error("bytes past 72 must be ignored")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)

	if !VerifyPassword("secret", string(hash)) {
		t.Error("expected matching password to verify")
	}
	if VerifyPassword("Secret", string(hash)) {
		t.Error("expected different password to fail")
	}
	if VerifyPassword("secret", "not-a-hash") {
		t.Error("expected malformed hash to fail")
	}
}
