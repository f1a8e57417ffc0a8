package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pinhome/adapters/mapview"
	"pinhome/adapters/s3"
	"pinhome/models"
)

// SignedURLTTL 是簽名網址的有效時間
// 每次投影都重新計算簽名網址，所以過期只是讓舊頁面需要重新整理
const SignedURLTTL = 7 * 24 * time.Hour

// ListingView 是回傳給前端的房源投影
// 資料列只存圖片的 key，簽名網址在這裡即時計算，不會落地
type ListingView struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"ownerId"`
	Price      string    `json:"price"`
	PriceLabel string    `json:"priceLabel"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ImageURL   string    `json:"imageUrl"`
}

// projectListings 把資料列投影成含簽名網址的 ListingView
// 每個有圖片的資料列各開一個 goroutine 做簽名，全部完成才返回；
// 簽名失敗的資料列降級成空網址，不會讓整批失敗
func projectListings(ctx context.Context, properties []models.Property, objects s3.IObjectStore) []ListingView {
	views := make([]ListingView, len(properties))
	var wg sync.WaitGroup
	for i, property := range properties {
		views[i] = ListingView{
			ID:         property.ID,
			OwnerID:    property.OwnerID,
			Price:      property.Price,
			PriceLabel: mapview.PriceLabel(property.Price),
			Lat:        property.Lat,
			Lng:        property.Lng,
		}
		if property.ImageKey == "" {
			continue
		}
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			url, err := objects.PresignGet(ctx, key, SignedURLTTL)
			if err != nil {
				slog.Warn("Fail to presign listing image",
					slog.String("caller", "projectListings"),
					slog.String("key", key),
					slog.Any("error", err),
				)
				return
			}
			views[i].ImageURL = url
		}(i, property.ImageKey)
	}
	wg.Wait()
	return views
}
