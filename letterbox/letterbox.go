// Package letterbox 等比缩放 + 居中填充到固定画布, 以及从画布还原到原图尺寸
//
// PadAndResize 与 CropToOriginal 必须成对使用: 还原时传入的 CropParams/Shape
// 必须来自同一张图的 PadAndResize, 混用属于调用方违约, 这里不做检查.
package letterbox

import (
	"fmt"
	"github.com/disintegration/imaging"
	"github.com/getcharzp/go-segcompare"
	"github.com/pkg/errors"
	"image"
	"image/color"
	"math"
)

// Size 画布尺寸
type Size struct {
	Width, Height int
}

// CropParams 真实内容在画布中的位置
type CropParams struct {
	XOffset, YOffset          int // 左/上填充
	ScaledWidth, ScaledHeight int // 缩放后的内容尺寸
}

// Rect 内容区域
func (c CropParams) Rect() image.Rectangle {
	return image.Rect(c.XOffset, c.YOffset, c.XOffset+c.ScaledWidth, c.YOffset+c.ScaledHeight)
}

// Shape 原图尺寸 (高, 宽)
type Shape struct {
	Height, Width int
}

// Filter 重采样方式
type Filter int

const (
	FilterNearest Filter = iota // 最近邻, 用于类别/二值 Mask
	FilterLinear                // 双线性
	FilterArea                  // 盒式 (区域平均)
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	case FilterArea:
		return "area"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter 解析重采样方式: nearest / linear / area
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "nearest":
		return FilterNearest, nil
	case "linear", "":
		return FilterLinear, nil
	case "area":
		return FilterArea, nil
	}
	return 0, fmt.Errorf("未知的重采样方式: %q", s)
}

func (f Filter) resample() imaging.ResampleFilter {
	switch f {
	case FilterNearest:
		return imaging.NearestNeighbor
	case FilterArea:
		return imaging.Box
	default:
		return imaging.Linear
	}
}

// Plan 计算缩放尺寸和填充偏移
//
// scale = min(W/w, H/h), 缩放尺寸四舍五入并限制在 [1, 画布尺寸] 内,
// 偏移 = (画布尺寸 - 缩放尺寸) / 2 向下取整
func Plan(srcW, srcH int, target Size) (CropParams, error) {
	if srcW <= 0 || srcH <= 0 {
		return CropParams{}, errors.Wrapf(segcompare.ErrInvalidInput, "图片尺寸非法: %dx%d", srcW, srcH)
	}
	if target.Width <= 0 || target.Height <= 0 {
		return CropParams{}, errors.Wrapf(segcompare.ErrInvalidInput, "画布尺寸非法: %dx%d", target.Width, target.Height)
	}

	scale := math.Min(float64(target.Width)/float64(srcW), float64(target.Height)/float64(srcH))
	newW := clamp(int(math.Round(float64(srcW)*scale)), 1, target.Width)
	newH := clamp(int(math.Round(float64(srcH)*scale)), 1, target.Height)

	return CropParams{
		XOffset:      (target.Width - newW) / 2,
		YOffset:      (target.Height - newH) / 2,
		ScaledWidth:  newW,
		ScaledHeight: newH,
	}, nil
}

// PadAndResize 等比缩放并居中粘贴到黑色画布
//
// # Params:
//
//	img: 原图
//	target: 画布尺寸
//	filter: 缩放使用的重采样方式, 一般为 FilterLinear 或 FilterArea
func PadAndResize(img image.Image, target Size, filter Filter) (*image.NRGBA, CropParams, Shape, error) {
	if img == nil {
		return nil, CropParams{}, Shape{}, errors.Wrap(segcompare.ErrInvalidInput, "图片为空")
	}
	bounds := img.Bounds()
	crop, err := Plan(bounds.Dx(), bounds.Dy(), target)
	if err != nil {
		return nil, CropParams{}, Shape{}, err
	}

	resized := imaging.Resize(img, crop.ScaledWidth, crop.ScaledHeight, filter.resample())
	canvas := imaging.New(target.Width, target.Height, color.NRGBA{A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(crop.XOffset, crop.YOffset))

	return canvas, crop, Shape{Height: bounds.Dy(), Width: bounds.Dx()}, nil
}

// CropToOriginal 去掉填充并缩放回原图尺寸
//
// # Params:
//
//	canvas: 画布尺寸的图像 (着色后的 Mask 或者画布本身)
//	crop: 对应 PadAndResize 返回的 CropParams
//	orig: 对应 PadAndResize 返回的原图尺寸
//	filter: Mask 必须使用 FilterNearest, 否则边界处会混出不存在的颜色/类别
func CropToOriginal(canvas image.Image, crop CropParams, orig Shape, filter Filter) *image.NRGBA {
	b := canvas.Bounds()
	content := imaging.Crop(canvas, crop.Rect().Add(b.Min))
	return imaging.Resize(content, orig.Width, orig.Height, filter.resample())
}

// CropLabels 类别图的还原, 固定为最近邻
func CropLabels(labels *segcompare.LabelMap, crop CropParams, orig Shape) *segcompare.LabelMap {
	out := segcompare.NewLabelMap(orig.Width, orig.Height)
	for y := 0; y < orig.Height; y++ {
		sy := crop.YOffset + nearest(y, orig.Height, crop.ScaledHeight)
		for x := 0; x < orig.Width; x++ {
			sx := crop.XOffset + nearest(x, orig.Width, crop.ScaledWidth)
			out.Set(x, y, labels.At(sx, sy))
		}
	}
	return out
}

// nearest 目标坐标 i (共 dst 个) 对应的源坐标 (共 src 个), 按像素中心对齐
func nearest(i, dst, src int) int {
	s := int((float64(i) + 0.5) * float64(src) / float64(dst))
	return clamp(s, 0, src-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
