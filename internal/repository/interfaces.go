// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// PasswordHashを含むためパスワード検証でのみ使用し、戻り値をそのまま外部に出さないこと。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが重複している場合はmodel.ErrCodeDuplicateEmailのAPIErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// UpsertByEmail はメールアドレスをキーにユーザーをUPSERTする。
	// 存在しない場合は作成し、存在する場合はname/pictureを更新する。
	// パスワードログインとOAuthログインで同一メールアドレスが
	// 別アカウントにならないことを保証する。
	UpsertByEmail(ctx context.Context, email, name, picture string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションはvalidフラグ以外イミュータブルで、無効化後も監査のため保持される。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	// 無効化済みのセッションも返す（有効性の判定は呼び出し側が行う）。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// ListValidByUserID は指定ユーザーの有効なセッション一覧を返す。
	ListValidByUserID(ctx context.Context, userID string) ([]*model.Session, error)

	// Invalidate は指定IDのセッションのvalidフラグをfalseにする。
	// false → true への逆遷移は存在しない。
	Invalidate(ctx context.Context, id string) error

	// DeleteInvalidatedBefore はcutoffより前に無効化されたセッションを削除する。
	// 保持期間満了後の監査ログ整理用で、リクエスト処理経路からは呼ばれない。
	DeleteInvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// FindByProductID は公開商品IDで商品を検索する。見つからない場合はnilを返す。
	FindByProductID(ctx context.Context, productID string) (*model.Product, error)

	// Update は商品のtitle/description/price/imageを更新する。
	Update(ctx context.Context, product *model.Product) error

	// DeleteByProductID は公開商品IDで商品を削除する。
	DeleteByProductID(ctx context.Context, productID string) error
}
