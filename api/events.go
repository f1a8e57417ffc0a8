package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pinhome/adapters/notify"
)

// listingsChannel 是所有房源相關事件共用的 SSE 頻道名稱
const listingsChannel = "listings"

const (
	// EventRefresh 通知前端重新抓取所有房源，不帶增量資料
	EventRefresh = "refresh"
	// EventNotification 帶著通知橫幅的階段變化
	EventNotification = "notification"
)

// UIEvent 是推送到前端的單一事件
type UIEvent struct {
	Type    string       `json:"type"`
	Phase   notify.Phase `json:"phase,omitempty"`
	Message string       `json:"message,omitempty"`
}

// publishRefresh 發布一個 refresh 事件，讓所有連線中的頁面重新抓取房源
func (impl *ServerImpl) publishRefresh() error {
	const op = "publishRefresh"
	if err := impl.sseManager.Publish(listingsChannel, UIEvent{Type: EventRefresh}); err != nil {
		return fmt.Errorf("[%s] Fail to publish refresh event, err=%w", op, err)
	}
	return nil
}

// Track listing events
// (GET /api/events)
func (impl *ServerImpl) GetEvents(c *gin.Context) {
	const op = "GetEvents"
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.sseManager.Subscribe(listingsChannel)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Event stream unavailable"})
		return
	}
LOOP:
	for {
		select {
		case <-w.CloseNotify():
			impl.sseManager.Unsubscribe(listingsChannel, ch)
			break LOOP
		case event := <-ch:
			c.SSEvent(event.Type, event)
			w.Flush()
		// 30秒沒有事件就發送一個空行，確保瀏覽器和Cloudflare不會斷開連線
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}
