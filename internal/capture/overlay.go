package capture

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Line 一行叠加文字
type Line struct {
	Text  string
	Color color.Color
}

var (
	colorCountdown   = color.RGBA{R: 255, A: 255}
	colorPrediction  = color.RGBA{G: 255, A: 255}
	colorInstruction = color.RGBA{G: 255, B: 255, A: 255}
	colorError       = color.RGBA{R: 255, G: 128, A: 255}
	colorBackdrop    = color.RGBA{A: 160}
)

const (
	marginX    = 10
	lineHeight = 20
)

// overlayLines 生成叠加文字：倒计时、最近结果与错误
func overlayLines(remaining int, res *Result, errMsg string) []Line {
	lines := []Line{{Text: fmt.Sprintf("Analyzing in: %ds", remaining), Color: colorCountdown}}
	if res != nil {
		lines = append(lines,
			Line{Text: fmt.Sprintf("Prediction: %s (%.0f%%)", res.Label, res.Confidence), Color: colorPrediction},
			Line{Text: "Instruction: " + res.Instruction, Color: colorInstruction},
		)
	}
	if errMsg != "" {
		lines = append(lines, Line{Text: "Error: " + errMsg, Color: colorError})
	}
	return lines
}

// drawOverlay 复制帧并在左上角绘制文字，不修改原帧
func drawOverlay(frame image.Image, lines []Line) *image.RGBA {
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)

	if len(lines) == 0 {
		return dst
	}
	face := basicfont.Face7x13
	backdrop := image.Rect(0, 0, dst.Bounds().Dx(), len(lines)*lineHeight+lineHeight/2)
	draw.Draw(dst, backdrop, image.NewUniform(colorBackdrop), image.Point{}, draw.Over)

	for i, ln := range lines {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(ln.Color),
			Face: face,
			Dot:  fixed.P(marginX, (i+1)*lineHeight),
		}
		d.DrawString(ln.Text)
	}
	return dst
}
