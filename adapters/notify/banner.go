package notify

import (
	"sync"
	"time"
)

// Phase 表示通知橫幅目前所處的階段
type Phase string

const (
	// PhaseVisible 通知正在完整顯示
	PhaseVisible Phase = "visible"
	// PhaseFading 通知正在淡出
	PhaseFading Phase = "fading"
	// PhaseCleared 通知已經清除
	PhaseCleared Phase = "cleared"
)

// PhaseChange 表示橫幅的一次階段變化
type PhaseChange struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// BannerOptions 包含 Banner 的設定選項
type BannerOptions struct {
	dwell time.Duration // 完整顯示的時間
	fade  time.Duration // 淡出動畫的時間
}

type BannerOption func(*BannerOptions)

// WithDwell 設定通知完整顯示的時間
func WithDwell(dwell time.Duration) BannerOption {
	return func(o *BannerOptions) {
		o.dwell = dwell
	}
}

// WithFade 設定通知淡出動畫的時間
func WithFade(fade time.Duration) BannerOption {
	return func(o *BannerOptions) {
		o.fade = fade
	}
}

// Banner 管理單一通知橫幅的顯示週期：
// visible -> (dwell 之後) fading -> (fade 之後) cleared。
// 顯示期間再次呼叫 Show 會重新開始整個週期，不會排隊，
// 所以快速連續的操作會互相覆蓋通知。
type Banner struct {
	mu      sync.Mutex
	options BannerOptions
	publish func(PhaseChange)

	message    string
	phase      Phase
	generation uint64 // 每次 Show 遞增，讓過期的計時器自行失效
	dwellTimer *time.Timer
	fadeTimer  *time.Timer
}

// NewBanner 建立一個新的 Banner 實例
// publish 會在每次階段變化時被呼叫，可以為 nil
func NewBanner(publish func(PhaseChange), opts ...BannerOption) *Banner {
	options := BannerOptions{
		dwell: 2000 * time.Millisecond,
		fade:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if publish == nil {
		publish = func(PhaseChange) {}
	}
	return &Banner{
		options: options,
		publish: publish,
		phase:   PhaseCleared,
	}
}

// Show 顯示一則通知並重新開始顯示週期
func (b *Banner) Show(message string) {
	b.mu.Lock()
	b.stopTimersLocked()
	b.generation++
	generation := b.generation
	b.message = message
	b.phase = PhaseVisible
	change := PhaseChange{Phase: PhaseVisible, Message: message}
	b.dwellTimer = time.AfterFunc(b.options.dwell, func() {
		b.startFade(generation)
	})
	b.mu.Unlock()

	b.publish(change)
}

// startFade 進入淡出階段
func (b *Banner) startFade(generation uint64) {
	b.mu.Lock()
	if generation != b.generation {
		b.mu.Unlock()
		return
	}
	b.phase = PhaseFading
	change := PhaseChange{Phase: PhaseFading, Message: b.message}
	b.fadeTimer = time.AfterFunc(b.options.fade, func() {
		b.clear(generation)
	})
	b.mu.Unlock()

	b.publish(change)
}

// clear 清除通知內容
func (b *Banner) clear(generation uint64) {
	b.mu.Lock()
	if generation != b.generation {
		b.mu.Unlock()
		return
	}
	b.message = ""
	b.phase = PhaseCleared
	change := PhaseChange{Phase: PhaseCleared, Message: ""}
	b.mu.Unlock()

	b.publish(change)
}

// Phase 返回橫幅目前的階段
func (b *Banner) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Message 返回橫幅目前的訊息內容
func (b *Banner) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// Close 停止所有計時器
func (b *Banner) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimersLocked()
	b.generation++
}

func (b *Banner) stopTimersLocked() {
	if b.dwellTimer != nil {
		b.dwellTimer.Stop()
		b.dwellTimer = nil
	}
	if b.fadeTimer != nil {
		b.fadeTimer.Stop()
		b.fadeTimer = nil
	}
}
