package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pinhome/adapters/rowstore"
	internalS3 "pinhome/adapters/s3"
	"pinhome/models"
)

// MaxImageSize 是單張房源圖片允許的大小上限
const MaxImageSize = 5 << 20

// validPrice 檢查價格是否為正整數的文字形式
// 價格在資料表中以文字儲存，所以這裡只驗證不轉型
func validPrice(price string) bool {
	value, err := strconv.ParseInt(price, 10, 64)
	return err == nil && value > 0
}

// readImageFile 讀取並驗證上傳的圖片檔案
// 返回檔案內容、MIME類型與副檔名；驗證失敗時返回給使用者的錯誤訊息
func readImageFile(header *multipart.FileHeader) (data []byte, mimeType, ext, userErr string, err error) {
	const op = "readImageFile"
	file, err := header.Open()
	if err != nil {
		return nil, "", "", "", fmt.Errorf("[%s] Fail to open uploaded file, err=%w", op, err)
	}
	defer file.Close()

	// 限制圖片
	// 	1. 小於5MB
	// 	2. MIME類型為不包含腳本的圖片檔案
	body := internalS3.NewMaxSizeReader(file, MaxImageSize)
	data, err = io.ReadAll(body)
	if errors.As(err, &internalS3.ErrReachLimitType) {
		return nil, "", "", err.Error(), nil
	}
	if err != nil {
		return nil, "", "", "", fmt.Errorf("[%s] Fail to read uploaded file, err=%w", op, err)
	}
	mimeType = http.DetectContentType(data)
	secure, ext := internalS3.CheckSecureImageAndGetExtension(mimeType)
	if !secure {
		return nil, "", "", fmt.Sprintf("Invalid image type: %s", mimeType), nil
	}
	return data, mimeType, ext, "", nil
}

// List all properties
// (GET /api/listings)
func (impl *ServerImpl) GetListings(c *gin.Context) {
	const op = "GetListings"
	properties, err := impl.listings.SelectAll(c.Request.Context())
	if err != nil {
		slog.Error("Fail to select properties", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	views := projectListings(c.Request.Context(), properties, impl.objects)
	c.JSON(http.StatusOK, gin.H{
		"count":    len(views),
		"listings": views,
	})
}

// Add a new property
// (POST /api/listings)
func (impl *ServerImpl) PostListing(c *gin.Context) {
	const op = "PostListing"
	// 沒有登入的請求一律拒絕
	userID, _ := impl.currentUser(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "You must be logged in to add a property."})
		return
	}
	// 先做完所有本地驗證，再碰任何遠端服務
	price := c.PostForm("price")
	if !validPrice(price) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid price."})
		return
	}
	lat, latErr := strconv.ParseFloat(c.PostForm("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.PostForm("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please click on the map to select a location."})
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please select an image file."})
		return
	}
	data, mimeType, ext, userErr, err := readImageFile(header)
	if err != nil {
		slog.Error("Fail to read image", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if userErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": userErr})
		return
	}

	// 先上傳圖片，成功後才寫入資料列；上傳失敗時絕不留下資料列
	key := internalS3.DeriveObjectKey(userID, ext, time.Now())
	if err := impl.objects.Upload(c.Request.Context(), key, mimeType, data); err != nil {
		slog.Error("Fail to upload image", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Image upload failed"})
		return
	}
	property := models.Property{
		OwnerID:  userID,
		Price:    price,
		ImageKey: key,
		Lat:      lat,
		Lng:      lng,
	}
	// NOTE: 寫入失敗時已上傳的物件會留在儲存桶裡，不做回滾
	if err := impl.listings.Insert(c.Request.Context(), &property); err != nil {
		slog.Error("Fail to insert property", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Saving the property failed"})
		return
	}

	impl.afterMutation(op, "Property added!")
	c.JSON(http.StatusCreated, gin.H{"id": property.ID})
}

// Update an existing property
// (PUT /api/listings/:id)
func (impl *ServerImpl) PutListing(c *gin.Context) {
	const op = "PutListing"
	userID, _ := impl.currentUser(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "You must be logged in to edit a property."})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid property id."})
		return
	}
	price := c.PostForm("price")
	if !validPrice(price) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid price."})
		return
	}
	lat, latErr := strconv.ParseFloat(c.PostForm("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.PostForm("lng"), 64)
	if latErr != nil || lngErr != nil || lat == 0 || lng == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid latitude and longitude."})
		return
	}

	// TODO: 目前任何登入的使用者都能編輯或刪除任何房源，需要限制時在這裡比對 OwnerID
	property, err := impl.listings.FindByID(c.Request.Context(), id)
	if errors.Is(err, rowstore.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Property not found."})
		return
	}
	if err != nil {
		slog.Error("Fail to find property", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	// 沒有附新圖片時沿用原本的 key
	imageKey := property.ImageKey
	if header, err := c.FormFile("image"); err == nil {
		data, mimeType, ext, userErr, err := readImageFile(header)
		if err != nil {
			slog.Error("Fail to read image", slog.String("op", op), slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		if userErr != "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": userErr})
			return
		}
		newKey := internalS3.DeriveObjectKey(userID, ext, time.Now())
		if err := impl.objects.Upload(c.Request.Context(), newKey, mimeType, data); err != nil {
			slog.Error("Fail to upload image", slog.String("op", op), slog.Any("error", err))
			c.JSON(http.StatusBadGateway, gin.H{"message": "Image upload failed"})
			return
		}
		// 新圖片上傳成功且 key 不同時才清掉舊物件，清除失敗只記錄不中斷
		if property.ImageKey != "" && property.ImageKey != newKey {
			if err := impl.objects.Remove(c.Request.Context(), property.ImageKey); err != nil {
				slog.Warn("Fail to remove old image", slog.String("op", op), slog.String("key", property.ImageKey), slog.Any("error", err))
			}
		}
		imageKey = newKey
	}

	err = impl.listings.Update(c.Request.Context(), id, rowstore.UpdateFields{
		Price:    price,
		ImageKey: imageKey,
		Lat:      lat,
		Lng:      lng,
	})
	if errors.Is(err, rowstore.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Property not found."})
		return
	}
	if err != nil {
		slog.Error("Fail to update property", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Saving the property failed"})
		return
	}

	impl.afterMutation(op, "Property updated!")
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Delete a property
// (DELETE /api/listings/:id)
func (impl *ServerImpl) DeleteListing(c *gin.Context) {
	const op = "DeleteListing"
	userID, _ := impl.currentUser(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "You must be logged in to delete a property."})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid property id."})
		return
	}

	// 只刪資料列，圖片物件會留在儲存桶裡
	err = impl.listings.DeleteByID(c.Request.Context(), id)
	if errors.Is(err, rowstore.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Property not found."})
		return
	}
	if err != nil {
		slog.Error("Fail to delete property", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Deleting the property failed"})
		return
	}

	impl.afterMutation(op, "Property deleted!")
	c.Status(http.StatusNoContent)
}

// afterMutation 在成功的寫入操作後發布 refresh 事件並顯示通知橫幅
func (impl *ServerImpl) afterMutation(op, message string) {
	if err := impl.publishRefresh(); err != nil {
		slog.Warn("Fail to publish refresh event", slog.String("op", op), slog.Any("error", err))
	}
	impl.banner.Show(message)
}
