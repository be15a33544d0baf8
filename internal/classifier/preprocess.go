package classifier

import (
	"image"

	"golang.org/x/image/draw"
)

// Tensor 模型输入，形状 [size][size][3]，取值 [-1, 1]
type Tensor [][][]float32

// Preprocess 将图片缩放到 size×size 并归一化为 v/127.5 - 1
func Preprocess(img image.Image, size int) Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := make(Tensor, size)
	for y := 0; y < size; y++ {
		row := make([][]float32, size)
		for x := 0; x < size; x++ {
			i := dst.PixOffset(x, y)
			px := dst.Pix[i : i+3 : i+3]
			row[x] = []float32{
				float32(px[0])/127.5 - 1,
				float32(px[1])/127.5 - 1,
				float32(px[2])/127.5 - 1,
			}
		}
		t[y] = row
	}
	return t
}
