// Package classifier 封装外部预训练模型：图片预处理、标签文件与远程推理
package classifier

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器

	apperr "wastewise/backend/pkg/errors"
)

// Prediction 单次识别结果，Confidence 取值 [0,1]
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier 图片分类器
// 任何推理失败都以 errors.ErrInference 分类返回，调用方不应因此中断
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (Prediction, error)
}

// Decode 解码 JPEG/PNG 原始字节
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("Invalid image data: empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "Invalid image data: "+err.Error(), err)
	}
	return img, nil
}

// argmax 返回最大概率下标；空切片返回 -1
func argmax(probs []float64) int {
	best := -1
	for i, p := range probs {
		if best < 0 || p > probs[best] {
			best = i
		}
	}
	return best
}
