package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/RecoveryAshes/PageTreeShot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func singleLeafTree(top, left, width, height float64) *models.Node {
	return &models.Node{
		Type:    models.NodeTypeElement,
		TagName: "body",
		XPath:   models.RootXPath,
		Children: []*models.Node{
			{
				Type:    models.NodeTypeElement,
				TagName: "div",
				XPath:   "/html/body/node()[1]",
				BoxInfo: models.BoxInfo{Top: top, Left: left, Width: width, Height: height},
			},
		},
	}
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 == 255 && g>>8 == 255 && b>>8 == 255
}

func TestRects_Corners(t *testing.T) {
	rects := Rects(singleLeafTree(10, 20, 30, 40))
	require.Len(t, rects, 1)
	assert.Equal(t, Rect{X0: 20, Y0: 10, X1: 50, Y1: 50}, rects[0])
}

func TestDrawBoxes_InPlace(t *testing.T) {
	img := whiteImage(100, 100)
	n := DrawBoxes(img, singleLeafTree(10, 10, 40, 40), DefaultOptions())
	assert.Equal(t, 1, n)

	// 矩形 x,y 范围 10..50, 2像素边框向内绘制
	for _, x := range []int{10, 11, 49, 50} {
		assert.True(t, isRed(img.At(x, 30)), "x=%d 应为边框", x)
	}
	for _, y := range []int{10, 11, 49, 50} {
		assert.True(t, isRed(img.At(30, y)), "y=%d 应为边框", y)
	}

	// 边框不越出矩形
	assert.True(t, isWhite(img.At(9, 30)), "左边外侧不应绘制")
	assert.True(t, isWhite(img.At(51, 30)), "右边外侧不应绘制")
	assert.True(t, isWhite(img.At(30, 9)), "上边外侧不应绘制")
	assert.True(t, isWhite(img.At(30, 51)), "下边外侧不应绘制")

	// 只描边不填充
	assert.True(t, isWhite(img.At(12, 30)), "边框只有2像素宽")
	assert.True(t, isWhite(img.At(30, 30)), "矩形内部不应填充")
	assert.True(t, isWhite(img.At(80, 80)), "矩形外部不应绘制")
}

func TestDrawBoxes_FractionalCoordinates(t *testing.T) {
	img := whiteImage(60, 60)
	DrawBoxes(img, singleLeafTree(9.6, 9.6, 30.2, 30.2), DefaultOptions())

	// 坐标取整到 10..40, 边框是纯色, 相邻像素保持白色
	red := color.RGBA{R: 255, A: 255}
	for _, x := range []int{10, 11, 39, 40} {
		assert.Equal(t, red, img.RGBAAt(x, 25), "x=%d", x)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, x := range []int{9, 12, 38, 41} {
		assert.Equal(t, white, img.RGBAAt(x, 25), "x=%d", x)
	}
}

func TestDrawBoxes_NoLeaves(t *testing.T) {
	img := whiteImage(20, 20)
	n := DrawBoxes(img, singleLeafTree(0, 0, 10, 10), DefaultOptions())
	assert.Equal(t, 0, n)

	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			require.True(t, isWhite(img.At(x, y)))
		}
	}
}

func TestAnnotate_CopyAndEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, whiteImage(64, 64)))
	original := append([]byte(nil), buf.Bytes()...)

	out, err := Annotate(buf.Bytes(), singleLeafTree(8, 8, 32, 32), DefaultOptions())
	require.NoError(t, err)

	// 原始截图字节保持不变
	assert.Equal(t, original, buf.Bytes())

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), decoded.Bounds())
	assert.True(t, isRed(decoded.At(8, 20)))
	assert.True(t, isWhite(decoded.At(24, 24)))
}

func TestAnnotate_InvalidImage(t *testing.T) {
	_, err := Annotate([]byte("not a png"), singleLeafTree(1, 1, 1, 1), DefaultOptions())
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.NoError(t, Options{Color: "00ff00", LineWidth: 1}.Validate())
	assert.Error(t, Options{Color: "red", LineWidth: 2}.Validate())
	assert.Error(t, Options{Color: "#FF0000", LineWidth: 0}.Validate())
}
