// Package overlay 将分割结果渲染为彩色图像
package overlay

import (
	"encoding/binary"
	"fmt"
	"github.com/cespare/xxhash/v2"
	"github.com/disintegration/imaging"
	"github.com/getcharzp/go-segcompare"
	"github.com/up-zero/gotool/imageutil"
	"image"
	"image/color"
	"math"
)

var (
	// ForegroundColor 语义分割前景色 (黄)
	ForegroundColor = color.NRGBA{R: 255, G: 255, A: 255}
	// BackgroundColor 语义分割背景色 (深蓝)
	BackgroundColor = color.NRGBA{B: 128, A: 255}
)

// Palette 实例着色的调色板
var Palette = []color.NRGBA{
	{230, 180, 80, 255},
	{180, 120, 240, 255},
	{150, 230, 230, 255},
	{240, 130, 40, 255},
	{255, 100, 100, 255},
	{100, 255, 100, 255},
	{100, 100, 255, 255},
}

// DefaultAlpha 实例颜色的混合权重, 底图权重为 1-DefaultAlpha
const DefaultAlpha = 0.3

// PaletteMode 实例颜色的分配方式
type PaletteMode int

const (
	// PaletteIndex 按检测结果的顺序轮流取色
	PaletteIndex PaletteMode = iota
	// PaletteStable 按类别和检测框的哈希取色, 与检测顺序无关
	PaletteStable
)

func (m PaletteMode) String() string {
	switch m {
	case PaletteIndex:
		return "index"
	case PaletteStable:
		return "stable"
	}
	return fmt.Sprintf("PaletteMode(%d)", int(m))
}

// ParsePaletteMode 解析调色方式: index / stable
func ParsePaletteMode(s string) (PaletteMode, error) {
	switch s {
	case "index", "":
		return PaletteIndex, nil
	case "stable":
		return PaletteStable, nil
	}
	return 0, fmt.Errorf("未知的调色方式: %q", s)
}

// ColorFor 第 i 个检测结果的颜色
func (m PaletteMode) ColorFor(i int, inst segcompare.Instance) color.NRGBA {
	if m == PaletteStable {
		return Palette[stableHash(inst)%uint64(len(Palette))]
	}
	return Palette[i%len(Palette)]
}

func stableHash(inst segcompare.Instance) uint64 {
	var buf [40]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(inst.ClassID))
	binary.LittleEndian.PutUint64(buf[8:], uint64(inst.Box.Min.X))
	binary.LittleEndian.PutUint64(buf[16:], uint64(inst.Box.Min.Y))
	binary.LittleEndian.PutUint64(buf[24:], uint64(inst.Box.Max.X))
	binary.LittleEndian.PutUint64(buf[32:], uint64(inst.Box.Max.Y))
	return xxhash.Sum64(buf[:])
}

// Semantic 语义分割着色, 类别 0 为背景色, 其他类别统一为前景色
func Semantic(labels *segcompare.LabelMap) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, labels.Width, labels.Height))
	for i, l := range labels.Labels {
		c := BackgroundColor
		if l != 0 {
			c = ForegroundColor
		}
		dst.Pix[i*4+0] = c.R
		dst.Pix[i*4+1] = c.G
		dst.Pix[i*4+2] = c.B
		dst.Pix[i*4+3] = 255
	}
	return dst
}

// InstanceOptions 实例着色参数
type InstanceOptions struct {
	Alpha     float64     // 颜色权重, 默认 DefaultAlpha
	Mode      PaletteMode // 调色方式
	DrawBoxes bool        // 是否绘制检测框
	Thickness int         // 检测框线宽, 默认 2
	// Labeler 不为空且 DrawBoxes 时, 在检测框左上角绘制 "类别 分数"
	Labeler *segcompare.TextDrawer
}

// DefaultInstanceOptions 默认的实例着色参数
func DefaultInstanceOptions() InstanceOptions {
	return InstanceOptions{
		Alpha:     DefaultAlpha,
		Mode:      PaletteIndex,
		Thickness: 2,
	}
}

// Instances 实例着色
//
// 按顺序处理检测结果: Mask 覆盖的像素变为 round((1-alpha)*当前值 + alpha*颜色),
// 不被任何 Mask 覆盖的像素保持原值
//
// # Params:
//
//	base: 底图, 与 Mask 同尺寸
//	dets: 检测结果, 一般已经过 FilterByScore
//	opts: 着色参数
func Instances(base image.Image, dets []segcompare.Instance, opts InstanceOptions) *image.NRGBA {
	dst := imaging.Clone(base)
	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	for i, det := range dets {
		c := opts.Mode.ColorFor(i, det)
		if det.Mask != nil {
			blendMask(dst, det.Mask, c, alpha)
		}
	}

	if opts.DrawBoxes {
		thickness := opts.Thickness
		if thickness <= 0 {
			thickness = 2
		}
		// 底图已是不透明像素, RGBA 与 NRGBA 共用同一块内存
		canvas := &image.RGBA{Pix: dst.Pix, Stride: dst.Stride, Rect: dst.Rect}
		for i, det := range dets {
			c := opts.Mode.ColorFor(i, det)
			imageutil.DrawThickRectOutline(canvas, det.Box, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}, thickness)
			if opts.Labeler != nil {
				text := fmt.Sprintf("%d %.2f", det.ClassID, det.Score)
				opts.Labeler.DrawText(dst, text, det.Box.Min.X+thickness, det.Box.Min.Y+thickness+12, c)
			}
		}
	}
	return dst
}

// blendMask 只混合 Mask 非 0 的像素
func blendMask(dst *image.NRGBA, mask *image.Gray, c color.NRGBA, alpha float64) {
	r := dst.Bounds().Intersect(mask.Bounds().Sub(mask.Bounds().Min))
	mb := mask.Bounds().Min
	for y := r.Min.Y; y < r.Max.Y; y++ {
		mi := mask.PixOffset(mb.X+r.Min.X, mb.Y+y)
		di := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			if mask.Pix[mi] != 0 {
				dst.Pix[di+0] = blend(dst.Pix[di+0], c.R, alpha)
				dst.Pix[di+1] = blend(dst.Pix[di+1], c.G, alpha)
				dst.Pix[di+2] = blend(dst.Pix[di+2], c.B, alpha)
			}
			mi++
			di += 4
		}
	}
}

func blend(base, c uint8, alpha float64) uint8 {
	v := math.Round((1-alpha)*float64(base) + alpha*float64(c))
	return uint8(min(255, max(0, v)))
}
