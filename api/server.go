package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"pinhome/adapters/magiclink"
	"pinhome/adapters/notify"
	redisAdapter "pinhome/adapters/redis"
	"pinhome/adapters/rowstore"
	internalS3 "pinhome/adapters/s3"
	"pinhome/adapters/session"
	"pinhome/adapters/sse"
	"pinhome/models"
)

// 地圖的預設視角，對應曼哈頓中城
const (
	DefaultMapCenterLat = 40.759
	DefaultMapCenterLng = -73.9845
	DefaultMapZoom      = 15
)

type ServerImpl struct {
	db           *gorm.DB
	listings     rowstore.IListingStore
	objects      internalS3.IObjectStore
	auth         magiclink.IProvider
	sseManager   sse.IConnectionManager[UIEvent]
	banner       *notify.Banner
	sessionStore session.IStore
	redisClient  *redis.Client

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化S3客戶端
	s3Cfg, err := awsCfg.LoadDefaultConfig(
		context.Background(),
		awsCfg.WithBaseEndpoint(config.S3.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
		awsCfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	s3Operator := internalS3.NewS3Operator(awsS3.NewFromConfig(s3Cfg), config.S3.Bucket)

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Property{}); err != nil {
		return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
	}

	// 初始化session儲存後端，沒有設定Redis時退回單機的記憶體實作
	var sessionStore session.IStore
	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		sessionStore = redisAdapter.NewStore(redisClient)
	} else {
		slog.Warn("Redis is not configured, sessions are kept in memory")
		sessionStore = session.NewMemoryStore()
	}

	// 初始化SSE管理器
	sseManager := sse.NewConnectionManager[UIEvent](
		sse.WithLogger(slog.Default()),
	)

	// 初始化登入連結提供者
	var mailer magiclink.IMailer
	if config.Auth.SMTPHost != "" {
		mailer = magiclink.NewSMTPMailer(config.Auth.SMTPHost, config.Auth.SMTPPort, config.Auth.SMTPUser, config.Auth.SMTPPass, config.Auth.SMTPFrom)
	} else {
		slog.Warn("SMTP is not configured, login links are written to the log")
		mailer = &magiclink.LogMailer{}
	}
	authProvider := magiclink.NewProvider([]byte(config.Auth.LinkSecret), config.Site.BaseURL, mailer)

	impl := &ServerImpl{
		db:           db,
		listings:     rowstore.NewStore(db),
		objects:      s3Operator,
		auth:         authProvider,
		sseManager:   sseManager,
		sessionStore: sessionStore,
		redisClient:  redisClient,
		config:       config,
	}
	// 通知橫幅的階段變化直接轉成SSE事件推給前端
	impl.banner = notify.NewBanner(func(change notify.PhaseChange) {
		err := sseManager.Publish(listingsChannel, UIEvent{
			Type:    EventNotification,
			Phase:   change.Phase,
			Message: change.Message,
		})
		if err != nil {
			slog.Warn("Fail to publish notification event", slog.Any("error", err))
		}
	})
	return impl, nil
}

func (impl *ServerImpl) Start() {
	// 啟動sse connection manager
	impl.sseManager.Start()
}

func (impl *ServerImpl) Close() {
	// 關閉通知橫幅的計時器
	impl.banner.Close()
	// 關閉sse connection manager
	impl.sseManager.Done()
	// 關閉Redis連線
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			slog.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
}

// RegisterRoutes 將所有路由掛上router
func (impl *ServerImpl) RegisterRoutes(router *gin.Engine) {
	router.Use(session.GinMiddleware(
		impl.sessionStore,
		session.WithCookieSecure(strings.HasPrefix(impl.config.Site.BaseURL, "https://")),
	))

	// 靜態頁面
	router.StaticFile("/", "./web/index.html")
	router.StaticFile("/login", "./web/login.html")
	router.StaticFile("/app.js", "./web/app.js")

	router.GET("/auth/verify", impl.GetAuthVerify)

	api := router.Group("/api")
	{
		api.GET("/config", impl.GetConfig)
		api.GET("/me", impl.GetMe)
		api.POST("/auth/login", impl.PostAuthLogin)
		api.POST("/auth/logout", impl.PostAuthLogout)

		api.GET("/listings", impl.GetListings)
		api.POST("/listings", impl.PostListing)
		api.PUT("/listings/:id", impl.PutListing)
		api.DELETE("/listings/:id", impl.DeleteListing)

		api.POST("/surface/marker-click", impl.PostSurfaceMarkerClick)
		api.POST("/surface/map-click", impl.PostSurfaceMapClick)

		api.GET("/events", impl.GetEvents)
	}
}

// Get site configuration for the map page
// (GET /api/config)
func (impl *ServerImpl) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mapsApiKey": impl.config.Site.MapsAPIKey,
		"center":     gin.H{"lat": DefaultMapCenterLat, "lng": DefaultMapCenterLng},
		"zoom":       DefaultMapZoom,
	})
}

// currentUser 從 session 取得登入中的使用者
// 未登入時返回 uuid.Nil 與空字串
func (impl *ServerImpl) currentUser(c *gin.Context) (uuid.UUID, string) {
	sess, err := session.GetSession(c)
	if err != nil {
		return uuid.Nil, ""
	}
	userID, err := uuid.Parse(sess.Get("user_id"))
	if err != nil {
		return uuid.Nil, ""
	}
	return userID, sess.Get("email")
}
