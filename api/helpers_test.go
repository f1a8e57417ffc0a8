package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pinhome/adapters/magiclink"
	"pinhome/adapters/notify"
	"pinhome/adapters/rowstore"
	"pinhome/adapters/session"
	"pinhome/adapters/sse"
	"pinhome/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// pngBytes 是一張最小的合法 PNG 檔頭，足以讓 MIME 偵測判定為 image/png
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type objectCall struct {
	Op   string
	Key  string
	Keys []string
}

// fakeObjectStore 實作 s3.IObjectStore，記錄所有呼叫的順序
type fakeObjectStore struct {
	mu         sync.Mutex
	calls      []objectCall
	uploadErr  error
	presignErr error
}

func (f *fakeObjectStore) Upload(_ context.Context, key, _ string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.calls = append(f.calls, objectCall{Op: "upload", Key: key})
	return nil
}

func (f *fakeObjectStore) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, objectCall{Op: "remove", Keys: keys})
	return nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.calls = append(f.calls, objectCall{Op: "presign", Key: key})
	return "https://signed.test/" + key, nil
}

func (f *fakeObjectStore) Calls() []objectCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]objectCall(nil), f.calls...)
}

type fakeMailer struct {
	mu    sync.Mutex
	email string
	link  string
}

func (m *fakeMailer) SendLoginLink(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = email
	m.link = link
	return nil
}

type testServer struct {
	impl    *ServerImpl
	router  *gin.Engine
	objects *fakeObjectStore
	store   *session.MemoryStore
	mailer  *fakeMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// 每個測試用獨立命名的記憶體資料庫，cache=shared 讓連線池共用同一份資料
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Property{}))

	objects := &fakeObjectStore{}
	store := session.NewMemoryStore()
	mailer := &fakeMailer{}
	manager := sse.NewConnectionManager[UIEvent]()
	manager.Start()
	t.Cleanup(manager.Done)

	impl := &ServerImpl{
		db:           db,
		listings:     rowstore.NewStore(db),
		objects:      objects,
		auth:         magiclink.NewProvider([]byte("test-secret"), "http://localhost:8080", mailer),
		sseManager:   manager,
		sessionStore: store,
		config: ServerConfig{
			Site: SiteConfig{
				BaseURL:    "http://localhost:8080",
				MapsAPIKey: "test-maps-key",
			},
		},
	}
	impl.banner = notify.NewBanner(func(change notify.PhaseChange) {
		_ = manager.Publish(listingsChannel, UIEvent{
			Type:    EventNotification,
			Phase:   change.Phase,
			Message: change.Message,
		})
	})
	t.Cleanup(impl.banner.Close)

	router := gin.New()
	impl.RegisterRoutes(router)
	return &testServer{
		impl:    impl,
		router:  router,
		objects: objects,
		store:   store,
		mailer:  mailer,
	}
}

// login 建立使用者與已登入的 session，返回要附在請求上的 cookie
func (ts *testServer) login(t *testing.T) (uuid.UUID, *http.Cookie) {
	t.Helper()
	user := models.User{Email: uuid.NewString() + "@example.com"}
	assert.NoError(t, ts.impl.db.Create(&user).Error)

	sessionID := uuid.NewString()
	err := ts.store.Save(context.Background(), sessionID, map[string]string{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})
	assert.NoError(t, err)
	return user.ID, &http.Cookie{Name: "pinhome_session", Value: sessionID}
}

// anonymousSession 建立一個未登入的 session cookie
func (ts *testServer) anonymousSession(t *testing.T) *http.Cookie {
	t.Helper()
	sessionID := uuid.NewString()
	assert.NoError(t, ts.store.Save(context.Background(), sessionID, map[string]string{}))
	return &http.Cookie{Name: "pinhome_session", Value: sessionID}
}

// listingForm 組出新增/編輯房源用的 multipart 表單
func listingForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "photo.png")
		assert.NoError(t, err)
		_, err = part.Write(image)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// waitEvent 等待下一個 SSE 事件
func waitEvent(t *testing.T, ch <-chan UIEvent) UIEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return UIEvent{}
	}
}
