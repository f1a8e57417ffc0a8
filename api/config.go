package api

type ServerConfig struct {
	Site  SiteConfig
	S3    S3Config
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
}

type SiteConfig struct {
	// BaseURL 是對外的站台位址，用於組出登入連結
	BaseURL string
	// MapsAPIKey 會被送到前端初始化地圖 SDK
	MapsAPIKey string
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

// RedisConfig 設定 session 的 Redis 後端
// Addr 留空時改用單機的記憶體 session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	// LinkSecret 是簽發登入連結 token 的 HMAC 金鑰
	LinkSecret string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}
