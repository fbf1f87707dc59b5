// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHash はGoogle OAuthのみで登録したユーザーの場合は空文字列になる。
// APIレスポンスやトークンには絶対に含めない。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Picture      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized はPasswordHashを除いたコピーを返す。
// 外部に出る経路（レスポンス、トークンのペイロード）では必ずこちらを使う。
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// Session はユーザーのログインセッションを表す。
// Valid 以外のフィールドは作成後に変更されない。
// Valid は true → false への一方向の遷移のみ許される（ログアウト）。
// 無効化されたセッションは監査のため削除せず保持する。
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	Valid     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
