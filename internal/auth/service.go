// Package auth は登録、パスワード認証、OAuth認証、セッション管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/token"
)

// OAuthProfile はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	Picture        string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthProfile, error)
}

// TokenIssuer はトークンの発行・検証インターフェース。
// token.Issuerの部分集合として定義する。
type TokenIssuer interface {
	Issue(user *model.User, sessionID string, ttl time.Duration) (string, error)
	Verify(tokenString string) token.VerifyResult
}

// TokenPair はログイン時に発行されるアクセストークンとリフレッシュトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	issuer      TokenIssuer
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	issuer TokenIssuer,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		issuer:      issuer,
		config:      config,
	}
}

// Register は新規ユーザーを作成する。
// パスワードはbcryptでハッシュ化して保存し、戻り値からはハッシュを除く。
// メールアドレスが重複している場合はDuplicateEmailエラーを返す。
func (s *Service) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user.Sanitized(), nil
}

// ValidatePassword はメールアドレスとパスワードを検証する。
// ユーザー不在・パスワード不一致・OAuth専用アカウントのいずれも
// 同一のInvalidCredentialsエラーになる。成功時はハッシュを除いたユーザーを返す。
func (s *Service) ValidatePassword(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	return user.Sanitized(), nil
}

// CreateSession は有効なセッションを作成し永続化する。
func (s *Service) CreateSession(ctx context.Context, userID, userAgent string) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserAgent: userAgent,
		Valid:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// IssueTokenPair はユーザーのスナップショットとセッションIDを埋め込んだ
// アクセストークンとリフレッシュトークンを発行する。
// 両者の違いはTTLのみ。
func (s *Service) IssueTokenPair(user *model.User, session *model.Session) (*TokenPair, error) {
	accessToken, err := s.issuer.Issue(user.Sanitized(), session.ID, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.issuer.Issue(user.Sanitized(), session.ID, s.config.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ListSessions は指定ユーザーの有効なセッション一覧を返す。
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	sessions, err := s.sessionRepo.ListValidByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// InvalidateSession はセッションを無効化する（ログアウト）。
// セッションレコードは削除せず残す。
func (s *Service) InvalidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.Invalidate(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// ReissueAccessToken は期限切れアクセストークンの再発行を試みる。
// 再発行に成功した場合は新しいアクセストークンを返す。
// 以下のいずれかに該当する場合は再発行せず空文字列を返す:
//   - リフレッシュトークンが無効または期限切れ
//   - トークンにセッションIDが含まれない
//   - セッションが存在しない、または無効化済み
//   - セッションの所有ユーザーが存在しない
//
// エラーは永続化層の予期しない失敗の場合のみ返す。
func (s *Service) ReissueAccessToken(ctx context.Context, refreshToken string) (string, error) {
	result := s.issuer.Verify(refreshToken)
	if result.Status != token.StatusValid || result.Claims.Session == "" {
		return "", nil
	}

	session, err := s.sessionRepo.FindByID(ctx, result.Claims.Session)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || !session.Valid {
		return "", nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil
	}

	accessToken, err := s.issuer.Issue(user.Sanitized(), session.ID, s.config.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// HandleGoogleCallback はGoogle OAuthコールバックを処理する。
// メール未確認のアカウントはユーザーもセッションも作成せず拒否する。
// 確認済みの場合はメールアドレスをキーにユーザーをUPSERTし、
// パスワードログインと同一のセッション発行を行う。
func (s *Service) HandleGoogleCallback(ctx context.Context, code, userAgent string) (*model.User, *model.Session, error) {
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if !profile.EmailVerified {
		return nil, nil, model.NewUnverifiedEmailError()
	}

	user, err := s.userRepo.UpsertByEmail(ctx, profile.Email, profile.Name, profile.Picture)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	session, err := s.CreateSession(ctx, user.ID, userAgent)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("oauth user logged in",
		slog.String("user_id", user.ID),
		slog.String("provider", profile.Provider),
	)

	return user.Sanitized(), session, nil
}
