package mapview

import (
	"pinhome/adapters/session"
)

// sessionKeySuppressNextClick 是抑制旗標在 session 中的 key
const sessionKeySuppressNextClick = "suppress_next_map_click"

// ClickAction 表示地圖點擊事件解讀後的結果
type ClickAction struct {
	// OpenAdd 為 true 時前端應該打開新增房源的表單
	OpenAdd bool    `json:"openAdd"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Surface 代表使用者正在操作的地圖表面
// 地圖的繪製交給前端的地圖 SDK，這裡只保管唯一的互動狀態：
// 一個一次性的抑制旗標，避免標記的點擊同時被解讀成地圖背景的點擊
type Surface struct {
	sess session.ISession
}

// NewSurface 以目前的 session 為後盾建立 Surface
// 呼叫端需要在操作完成後自行 Save session
func NewSurface(sess session.ISession) *Surface {
	return &Surface{sess: sess}
}

// MarkerClick 記錄一次標記點擊，武裝抑制旗標
// 緊接著的下一次地圖點擊會被吃掉，不會打開新增表單
func (s *Surface) MarkerClick() {
	s.sess.Set(sessionKeySuppressNextClick, "1")
}

// MapClick 解讀一次地圖背景點擊
// 旗標武裝中時消耗旗標並回報不開啟表單；否則回報以點擊座標開啟新增表單
func (s *Surface) MapClick(lat, lng float64) ClickAction {
	if s.sess.Get(sessionKeySuppressNextClick) != "" {
		s.sess.Delete(sessionKeySuppressNextClick)
		return ClickAction{OpenAdd: false}
	}
	return ClickAction{OpenAdd: true, Lat: lat, Lng: lng}
}

// Suppressed 返回抑制旗標目前是否武裝中
func (s *Surface) Suppressed() bool {
	return s.sess.Get(sessionKeySuppressNextClick) != ""
}
