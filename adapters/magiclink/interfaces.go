package magiclink

import "context"

// IMailer 定義寄送登入連結的郵件後端
type IMailer interface {
	SendLoginLink(ctx context.Context, email, link string) error
}

// IProvider 定義無密碼登入流程的操作
// 簽發的 token 透過電子郵件送到使用者信箱，點擊連結後驗證換取會話
type IProvider interface {
	IssueLinkToken(email string) (string, error)
	VerifyLinkToken(token string) (string, error)
	SendLoginLink(ctx context.Context, email string) error
}
