package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/smallnest/chanx"
)

// connectionManager 管理多個 SSE 頻道的訂閱與發布。
// 發布的訊息會先進入不限長度的佇列，再由單一 goroutine 派送，
// 所以 Publish 不會被慢速的訂閱者卡住。
type connectionManager[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.RWMutex   // 保護 active 和 channels 的讀寫
	wg     sync.WaitGroup // 用於等待派送 goroutine 完成
	active bool           // 標記 manager 是否正在運作中

	queue    *chanx.UnboundedChan[PublishRequest[T]] // 待派送的訊息佇列
	channels map[string]*Channel[T]                  // 儲存所有活躍的頻道
}

// ManagerOptions 包含 ConnectionManager 的設定選項
type ManagerOptions struct {
	logger *slog.Logger
}

type ManagerOption func(*ManagerOptions)

// WithLogger 設定 ConnectionManager 使用的 logger
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(o *ManagerOptions) {
		o.logger = logger
	}
}

// NewConnectionManager 建立一個新的連線管理器。
func NewConnectionManager[T any](opts ...ManagerOption) IConnectionManager[T] {
	options := ManagerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &connectionManager[T]{
		ctx:      ctx,
		cancel:   cancel,
		logger:   options.logger.With(slog.String("caller", "ConnectionManager")),
		queue:    chanx.NewUnboundedChan[PublishRequest[T]](ctx, 100),
		channels: make(map[string]*Channel[T]),
		active:   true,
	}
}

// Start 啟動連線管理器，開始處理訊息的派送。
// 應在呼叫其他方法前先呼叫此方法。
func (cm *connectionManager[T]) Start() {
	cm.wg.Add(1)
	go func() {
		defer cm.wg.Done()
		defer cm.logger.Debug("dispatch goroutine stopped")
		for msg := range cm.queue.Out {
			cm.mu.RLock()
			if channel, ok := cm.channels[msg.Channel]; ok {
				channel.Broadcast(msg.Message)
			}
			cm.mu.RUnlock()
		}
	}()
}

// Done 停止連線管理器的運作。
func (cm *connectionManager[T]) Done() {
	cm.mu.Lock()
	if !cm.active {
		cm.mu.Unlock()
		return
	}
	cm.active = false
	cm.mu.Unlock()

	cm.cancel()
	cm.wg.Wait()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, channel := range cm.channels {
		channel.UnsubscribeAll()
	}
	clear(cm.channels)
}

// Subscribe 訂閱指定的頻道。
// 返回: 用於接收訊息的唯讀通道，以及可能的錯誤
func (cm *connectionManager[T]) Subscribe(channelName string) (<-chan T, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.active {
		return nil, context.Canceled
	}

	c, ok := cm.channels[channelName]
	if !ok {
		c = NewChannel[T]()
		cm.channels[channelName] = c
	}
	return c.Subscribe(), nil
}

// Publish 發布訊息到指定的頻道。
func (cm *connectionManager[T]) Publish(channelName string, data T) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.active {
		return context.Canceled
	}

	select {
	case <-cm.ctx.Done():
		return context.Canceled
	case cm.queue.In <- PublishRequest[T]{Channel: channelName, Message: data}:
		return nil
	}
}

// Unsubscribe 取消訂閱指定的頻道。
func (cm *connectionManager[T]) Unsubscribe(channelName string, ch <-chan T) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c, ok := cm.channels[channelName]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(cm.channels, channelName)
	}
}
