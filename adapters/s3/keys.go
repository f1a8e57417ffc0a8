package s3

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeriveObjectKey 依照 {使用者ID}-{毫秒時間戳}.{副檔名} 的規則產生圖片的物件 key
// 同一個使用者在不同毫秒上傳的圖片不會互相覆蓋
func DeriveObjectKey(userID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%d.%s", userID, now.UnixMilli(), ext)
}
