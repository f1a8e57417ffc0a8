package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pinhome/models"
)

func TestPostListing_AddFlow(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)

	events, err := ts.impl.sseManager.Subscribe(listingsChannel)
	assert.NoError(t, err)
	defer ts.impl.sseManager.Unsubscribe(listingsChannel, events)

	body, contentType := listingForm(t, map[string]string{
		"price": "100",
		"lat":   "40.7",
		"lng":   "-73.9",
	}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/listings", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	// 先上傳圖片，成功後才寫入資料列
	calls := ts.objects.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "upload", calls[0].Op)
	assert.True(t, strings.HasSuffix(calls[0].Key, ".png"))

	var properties []models.Property
	assert.NoError(t, ts.impl.db.Find(&properties).Error)
	assert.Len(t, properties, 1)
	assert.Equal(t, "100", properties[0].Price)
	assert.Equal(t, calls[0].Key, properties[0].ImageKey)
	assert.Equal(t, 40.7, properties[0].Lat)
	assert.Equal(t, -73.9, properties[0].Lng)

	// 成功的寫入會推送 refresh 事件與通知橫幅
	event := waitEvent(t, events)
	assert.Equal(t, EventRefresh, event.Type)
	event = waitEvent(t, events)
	assert.Equal(t, EventNotification, event.Type)
	assert.Equal(t, "Property added!", event.Message)
}

func TestPostListing_RequiresLogin(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := listingForm(t, map[string]string{
		"price": "100",
		"lat":   "40.7",
		"lng":   "-73.9",
	}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/listings", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(ts.anonymousSession(t))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "You must be logged in to add a property.")
	assert.Empty(t, ts.objects.Calls())
}

func TestPostListing_ValidationBeforeRemoteCalls(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)

	testCases := []struct {
		name    string
		fields  map[string]string
		image   []byte
		message string
	}{
		{
			name:    "non-numeric price",
			fields:  map[string]string{"price": "abc", "lat": "40.7", "lng": "-73.9"},
			image:   pngBytes,
			message: "Please enter a valid price.",
		},
		{
			name:    "zero price",
			fields:  map[string]string{"price": "0", "lat": "40.7", "lng": "-73.9"},
			image:   pngBytes,
			message: "Please enter a valid price.",
		},
		{
			name:    "missing coordinates",
			fields:  map[string]string{"price": "100"},
			image:   pngBytes,
			message: "Please click on the map to select a location.",
		},
		{
			name:    "missing image",
			fields:  map[string]string{"price": "100", "lat": "40.7", "lng": "-73.9"},
			image:   nil,
			message: "Please select an image file.",
		},
		{
			name:    "non-image upload",
			fields:  map[string]string{"price": "100", "lat": "40.7", "lng": "-73.9"},
			image:   []byte("<script>alert(1)</script>"),
			message: "Invalid image type",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := listingForm(t, tc.fields, tc.image)
			req := httptest.NewRequest(http.MethodPost, "/api/listings", body)
			req.Header.Set("Content-Type", contentType)
			req.AddCookie(cookie)
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tc.message)
			// 驗證失敗時不應該碰任何遠端服務
			assert.Empty(t, ts.objects.Calls())
		})
	}
}

func TestPostListing_NoRowOnUploadFailure(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)
	ts.objects.uploadErr = assert.AnError

	body, contentType := listingForm(t, map[string]string{
		"price": "100",
		"lat":   "40.7",
		"lng":   "-73.9",
	}, pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/listings", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	// 上傳失敗時絕不寫入資料列
	var count int64
	assert.NoError(t, ts.impl.db.Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPutListing_ReplacesImageAndRemovesOldKey(t *testing.T) {
	ts := newTestServer(t)
	userID, cookie := ts.login(t)

	property := models.Property{OwnerID: userID, Price: "100", ImageKey: "old-key.jpg", Lat: 40.7, Lng: -73.9}
	assert.NoError(t, ts.impl.db.Create(&property).Error)

	body, contentType := listingForm(t, map[string]string{
		"price": "200",
		"lat":   "40.8",
		"lng":   "-73.8",
	}, pngBytes)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/"+property.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// 新圖片上傳成功後才清掉舊物件
	calls := ts.objects.Calls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "upload", calls[0].Op)
	assert.Equal(t, "remove", calls[1].Op)
	assert.Equal(t, []string{"old-key.jpg"}, calls[1].Keys)

	var updated models.Property
	assert.NoError(t, ts.impl.db.First(&updated, "id = ?", property.ID).Error)
	assert.Equal(t, "200", updated.Price)
	assert.Equal(t, calls[0].Key, updated.ImageKey)
	assert.Equal(t, 40.8, updated.Lat)
	assert.Equal(t, -73.8, updated.Lng)
}

func TestPutListing_KeepsImageWhenNotReplaced(t *testing.T) {
	ts := newTestServer(t)
	userID, cookie := ts.login(t)

	property := models.Property{OwnerID: userID, Price: "100", ImageKey: "old-key.jpg", Lat: 40.7, Lng: -73.9}
	assert.NoError(t, ts.impl.db.Create(&property).Error)

	body, contentType := listingForm(t, map[string]string{
		"price": "200",
		"lat":   "40.8",
		"lng":   "-73.8",
	}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/"+property.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.objects.Calls())

	var updated models.Property
	assert.NoError(t, ts.impl.db.First(&updated, "id = ?", property.ID).Error)
	assert.Equal(t, "old-key.jpg", updated.ImageKey)
}

func TestPutListing_RejectsZeroCoordinates(t *testing.T) {
	ts := newTestServer(t)
	userID, cookie := ts.login(t)

	property := models.Property{OwnerID: userID, Price: "100", ImageKey: "old-key.jpg", Lat: 40.7, Lng: -73.9}
	assert.NoError(t, ts.impl.db.Create(&property).Error)

	body, contentType := listingForm(t, map[string]string{
		"price": "200",
		"lat":   "0",
		"lng":   "-73.8",
	}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/"+property.ID.String(), body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid latitude and longitude.")
}

func TestPutListing_NotFound(t *testing.T) {
	ts := newTestServer(t)
	_, cookie := ts.login(t)

	body, contentType := listingForm(t, map[string]string{
		"price": "200",
		"lat":   "40.8",
		"lng":   "-73.8",
	}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/listings/"+uuid.NewString(), body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteListing_RemovesRowButKeepsObject(t *testing.T) {
	ts := newTestServer(t)
	userID, cookie := ts.login(t)

	property := models.Property{OwnerID: userID, Price: "100", ImageKey: "old-key.jpg", Lat: 40.7, Lng: -73.9}
	assert.NoError(t, ts.impl.db.Create(&property).Error)

	events, err := ts.impl.sseManager.Subscribe(listingsChannel)
	assert.NoError(t, err)
	defer ts.impl.sseManager.Unsubscribe(listingsChannel, events)

	req := httptest.NewRequest(http.MethodDelete, "/api/listings/"+property.ID.String(), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	assert.NoError(t, ts.impl.db.Model(&models.Property{}).Count(&count).Error)
	assert.Zero(t, count)
	// 圖片物件留在儲存桶裡
	assert.Empty(t, ts.objects.Calls())

	event := waitEvent(t, events)
	assert.Equal(t, EventRefresh, event.Type)
	event = waitEvent(t, events)
	assert.Equal(t, "Property deleted!", event.Message)
}

func TestGetListings_ProjectsSignedURLs(t *testing.T) {
	ts := newTestServer(t)
	userID, _ := ts.login(t)

	withImage := models.Property{OwnerID: userID, Price: "1234", ImageKey: "key-1.png", Lat: 40.7, Lng: -73.9}
	withoutImage := models.Property{OwnerID: userID, Price: "200", ImageKey: "", Lat: 40.8, Lng: -73.8}
	assert.NoError(t, ts.impl.db.Create(&withImage).Error)
	assert.NoError(t, ts.impl.db.Create(&withoutImage).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Count    int           `json:"count"`
		Listings []ListingView `json:"listings"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)

	byID := make(map[uuid.UUID]ListingView, len(response.Listings))
	for _, view := range response.Listings {
		byID[view.ID] = view
	}
	assert.Equal(t, "https://signed.test/key-1.png", byID[withImage.ID].ImageURL)
	assert.Equal(t, "$ 1,234", byID[withImage.ID].PriceLabel)
	assert.Empty(t, byID[withoutImage.ID].ImageURL)
}

func TestGetListings_PresignFailureDegradesToEmptyURL(t *testing.T) {
	ts := newTestServer(t)
	userID, _ := ts.login(t)
	ts.objects.presignErr = assert.AnError

	property := models.Property{OwnerID: userID, Price: "100", ImageKey: "key-1.png", Lat: 40.7, Lng: -73.9}
	assert.NoError(t, ts.impl.db.Create(&property).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	// 簽名失敗只影響單筆的網址，不會讓整批失敗
	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Listings []ListingView `json:"listings"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Listings, 1)
	assert.Empty(t, response.Listings[0].ImageURL)
}
