package magiclink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidLinkToken 表示登入連結的 token 無效或已經過期
var ErrInvalidLinkToken = errors.New("invalid or expired login link token")

const tokenIssuer = "pinhome"

// ProviderOptions 包含 Provider 的設定選項
type ProviderOptions struct {
	expiry time.Duration  // 登入連結的有效時間
	now    func() time.Time
}

type ProviderOption func(*ProviderOptions)

// WithExpiry 設定登入連結的有效時間
func WithExpiry(expiry time.Duration) ProviderOption {
	return func(o *ProviderOptions) {
		o.expiry = expiry
	}
}

// WithClock 設定取得目前時間的函式，測試用
func WithClock(now func() time.Time) ProviderOption {
	return func(o *ProviderOptions) {
		o.now = now
	}
}

// Provider 實作 IProvider 介面
// token 使用 HMAC-SHA256 簽章的 JWT，email 放在 subject 欄位
type Provider struct {
	secret  []byte
	siteURL string
	mailer  IMailer
	options ProviderOptions
}

// NewProvider 建立新的 Provider 實例
// siteURL 是對外的站台位址，登入連結會掛在它的 /auth/verify 底下
func NewProvider(secret []byte, siteURL string, mailer IMailer, opts ...ProviderOption) *Provider {
	options := ProviderOptions{
		expiry: 15 * time.Minute,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Provider{
		secret:  secret,
		siteURL: siteURL,
		mailer:  mailer,
		options: options,
	}
}

// IssueLinkToken 為指定的 email 簽發一個登入 token
func (p *Provider) IssueLinkToken(email string) (string, error) {
	const op = "Provider.IssueLinkToken"
	now := p.options.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.options.expiry)),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to sign token, err=%w", op, err)
	}
	return signed, nil
}

// VerifyLinkToken 驗證登入 token 並返回其中的 email
// 簽章錯誤、發行者不符或過期一律返回 ErrInvalidLinkToken
func (p *Provider) VerifyLinkToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return p.secret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.options.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidLinkToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidLinkToken
	}
	return claims.Subject, nil
}

// SendLoginLink 簽發 token 並把登入連結寄給使用者
func (p *Provider) SendLoginLink(ctx context.Context, email string) error {
	const op = "Provider.SendLoginLink"
	token, err := p.IssueLinkToken(email)
	if err != nil {
		return fmt.Errorf("[%s] Fail to issue token, err=%w", op, err)
	}
	link := fmt.Sprintf("%s/auth/verify?token=%s", p.siteURL, url.QueryEscape(token))
	if err := p.mailer.SendLoginLink(ctx, email, link); err != nil {
		return fmt.Errorf("[%s] Fail to send login link, err=%w", op, err)
	}
	return nil
}
