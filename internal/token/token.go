// Package token は署名付きの期限付きトークンの発行と検証を提供する。
//
// 検証結果は valid / expired / invalid の3状態で返す。
// expired は署名が正しく期限だけが切れた状態で、呼び出し側は
// リフレッシュトークンによる再発行を試みてよい。
// invalid は署名不正・形式不正で、再発行を試みてはならない。
// 呼び出し側が文字列比較なしに分岐できるよう、エラーではなく
// 明示的なタグ付き結果として表現する。
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/storefront/internal/model"
)

// Claims はトークンに埋め込むペイロード。
// ユーザーレコードのスナップショット（パスワードハッシュ抜き）と
// 発行元セッションのIDを持つ。
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Session string `json:"session"`
	jwt.RegisteredClaims
}

// Status はトークン検証の結果種別を表す。
type Status int

const (
	// StatusValid は署名・期限ともに正しいトークン。
	StatusValid Status = iota
	// StatusExpired は署名は正しいが期限切れのトークン。
	// アクセストークンの場合はリフレッシュの対象になる。
	StatusExpired
	// StatusInvalid は署名不正または形式不正のトークン。
	StatusInvalid
)

// VerifyResult は検証結果を表す。ClaimsはStatusValidの場合のみ非nil。
type VerifyResult struct {
	Status Status
	Claims *Claims
}

// Issuer はRSA鍵ペアによるトークンの発行と検証を行う。
// 生成後はイミュータブルで、複数ゴルーチンから同時に使用できる。
type Issuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

// NewIssuer はPEMエンコードされたRSA鍵ペアからIssuerを生成する。
func NewIssuer(privateKeyPEM, publicKeyPEM []byte) (*Issuer, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	return &Issuer{
		privateKey: privateKey,
		publicKey:  publicKey,
	}, nil
}

// Issue はユーザーのスナップショットとセッションIDを埋め込んだ
// RS256署名トークンを発行する。期限はttlから導出する。
func (i *Issuer) Issue(user *model.User, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.Picture,
		Session: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := t.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンの署名と期限を検証し、3状態の結果を返す。
// 不正なトークンはエラーではなく StatusInvalid として報告される。
func (i *Issuer) Verify(tokenString string) VerifyResult {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.publicKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)

	if err == nil {
		return VerifyResult{Status: StatusValid, Claims: claims}
	}

	// 期限切れは署名検証を通過した後にのみ報告されるが、
	// 署名不正と同時に返るケースを invalid 側に倒す。
	if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return VerifyResult{Status: StatusExpired}
	}

	return VerifyResult{Status: StatusInvalid}
}
