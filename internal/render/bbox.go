// Package render 在截图上绘制叶子节点的包围盒
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"regexp"

	"github.com/RecoveryAshes/PageTreeShot/internal/dom"
	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/fogleman/gg"
)

// Options 绘制参数
type Options struct {
	Color     string  // 十六进制颜色
	LineWidth float64 // 线宽(像素)
}

// DefaultOptions 红色, 2像素线宽
func DefaultOptions() Options {
	return Options{
		Color:     "#FF0000",
		LineWidth: 2,
	}
}

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate 检查颜色和线宽
func (o Options) Validate() error {
	if !hexColorPattern.MatchString(o.Color) {
		return fmt.Errorf("无效的颜色值: %q (应为 #RRGGBB 形式)", o.Color)
	}
	if o.LineWidth <= 0 {
		return fmt.Errorf("线宽必须大于0,当前值: %v", o.LineWidth)
	}
	return nil
}

// Rect 一个叶子节点对应的矩形, 左上角 (X0,Y0) 右下角 (X1,Y1)
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Rects 计算所有叶子节点的矩形
func Rects(root *models.Node) []Rect {
	leaves := dom.Leaves(root)
	rects := make([]Rect, 0, len(leaves))
	for _, leaf := range leaves {
		b := leaf.BoxInfo
		rects = append(rects, Rect{X0: b.Left, Y0: b.Top, X1: b.Right(), Y1: b.Bottom()})
	}
	return rects
}

// DrawBoxes 直接在 img 上为每个叶子节点绘制描边矩形, 返回绘制的矩形数
// 坐标取整后描边向内绘制: 矩形覆盖 [X0,X1]x[Y0,Y1] 闭区间的像素, 边框宽 LineWidth 像素, 不做抗锯齿
func DrawBoxes(img *image.RGBA, root *models.Node, opts Options) int {
	rects := Rects(root)
	if len(rects) == 0 {
		return 0
	}

	lw := math.Max(1, math.Round(opts.LineWidth))
	dc := gg.NewContextForRGBA(img)
	dc.SetHexColor(opts.Color)
	for _, r := range rects {
		x0, y0 := math.Round(r.X0), math.Round(r.Y0)
		x1, y1 := math.Round(r.X1)+1, math.Round(r.Y1)+1
		w, h := x1-x0, y1-y0

		// 四条边各是一个整像素对齐的实心矩形, 同向子路径重叠处只填充一次
		dc.DrawRectangle(x0, y0, w, math.Min(lw, h))
		dc.DrawRectangle(x0, math.Max(y0, y1-lw), w, math.Min(lw, h))
		dc.DrawRectangle(x0, y0, math.Min(lw, w), h)
		dc.DrawRectangle(math.Max(x0, x1-lw), y0, math.Min(lw, w), h)
		dc.Fill()
	}
	return len(rects)
}

// Annotate 解码截图到新的RGBA图像上绘制, 重新编码为PNG
// 传入的 screenshot 字节不会被修改
func Annotate(screenshot []byte, root *models.Node, opts Options) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("解码截图失败: %w", err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, src, bounds.Min, draw.Src)

	DrawBoxes(rgba, root, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("编码标注图片失败: %w", err)
	}
	return buf.Bytes(), nil
}
