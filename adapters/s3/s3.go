package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/samber/lo"
)

// S3Operator 包裝託管物件儲存服務的 S3 相容 API
// 房源圖片為私有物件，讀取一律透過簽名網址
type S3Operator struct {
	// Client 是 S3 客戶端
	Client *s3.Client
	// Presigner 用於產生簽名網址
	Presigner *s3.PresignClient
	// Bucket 是存放房源圖片的 bucket 名稱
	Bucket string
}

func NewS3Operator(client *s3.Client, bucket string) *S3Operator {
	return &S3Operator{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// Upload 將圖片內容上傳到指定的 key
func (s *S3Operator) Upload(ctx context.Context, key, contentType string, data []byte) error {
	const op = "S3Operator.Upload"
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to upload object, key=%s, err=%w", op, key, err)
	}
	return nil
}

// Remove 批次刪除指定的 keys
func (s *S3Operator) Remove(ctx context.Context, keys ...string) error {
	const op = "S3Operator.Remove"
	if len(keys) == 0 {
		return nil
	}
	_, err := s.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.Bucket),
		Delete: &types.Delete{
			Objects: lo.Map(keys, func(key string, _ int) types.ObjectIdentifier {
				return types.ObjectIdentifier{Key: aws.String(key)}
			}),
			Quiet: aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to remove objects, err=%w", op, err)
	}
	return nil
}

// PresignGet 產生一個在 ttl 內有效的簽名讀取網址
func (s *S3Operator) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	const op = "S3Operator.PresignGet"
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to presign object, key=%s, err=%w", op, key, err)
	}
	return req.URL, nil
}
