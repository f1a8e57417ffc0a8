package mapview

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice 將文字形式的價格轉成帶千分位的顯示字串
// 空字串或無法解析的價格會直接返回空字串，交由畫面降級處理
func FormatPrice(raw string) string {
	if raw == "" {
		return ""
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ""
	}
	return pricePrinter.Sprintf("%d", value)
}

// PriceLabel 產生地圖標記上顯示的價格標籤
func PriceLabel(raw string) string {
	return "$ " + FormatPrice(raw)
}
