package repository

import (
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユニットテスト: Createに渡すモデルの前提条件を検証
// （DB接続なしでロジックのみ検証）
func TestPostgresUserRepo_Create_ModelPreconditions(t *testing.T) {
	user := &model.User{
		ID:           "user-id-1",
		Email:        "test@example.com",
		Name:         "Test User",
		PasswordHash: "$2a$12$fakehash",
	}

	if user.ID == "" {
		t.Error("ID must be assigned by the service before Create")
	}
	if user.PasswordHash == "" {
		t.Error("password hash must be set for credential users")
	}
}
