package sse_test

import (
	"io"
	"log"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

// Message 表示一個測試用的 SSE 訊息。
type Message struct {
	Data string `json:"data"`
}
