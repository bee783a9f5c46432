// Package figure 将多张结果图拼接为带标题的对比图, 并编码保存
package figure

import (
	"fmt"
	"github.com/fogleman/gg"
	"github.com/getcharzp/go-segcompare"
	"image"
	"image/color"
)

// Panel 对比图中的一栏
type Panel struct {
	Title string
	Image image.Image
}

// Options 对比图的布局参数
type Options struct {
	Margin     int         // 外边距及栏间距, 默认 20
	FontSize   float64     // 标题字号, 0 表示按栏宽自动计算
	FontPath   string      // 标题字体, 为空时使用内置字体
	Background color.Color // 背景色, 默认白色
	TextColor  color.Color // 标题颜色, 默认黑色
}

// DefaultOptions 默认布局
func DefaultOptions() Options {
	return Options{
		Margin:     20,
		Background: color.White,
		TextColor:  color.Black,
	}
}

// Layout 各栏在对比图中的位置
type Layout struct {
	Size     image.Point       // 对比图尺寸
	Panels   []image.Rectangle // 每栏图像区域
	TitleY   int               // 标题中心线的纵坐标
	FontSize float64
}

// Plan 计算布局: 各栏左右排列, 顶部为标题栏, 图像顶端对齐
func Plan(panels []Panel, opts Options) (Layout, error) {
	if len(panels) == 0 {
		return Layout{}, fmt.Errorf("对比图至少需要一栏")
	}
	margin := max(opts.Margin, 0)

	maxH, minW := 0, 0
	for i, p := range panels {
		if p.Image == nil || p.Image.Bounds().Empty() {
			return Layout{}, fmt.Errorf("第 %d 栏(%s)图像为空", i, p.Title)
		}
		b := p.Image.Bounds()
		maxH = max(maxH, b.Dy())
		if i == 0 || b.Dx() < minW {
			minW = b.Dx()
		}
	}

	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = max(12, float64(minW)/20)
	}
	band := int(fontSize * 2)

	layout := Layout{
		Panels:   make([]image.Rectangle, len(panels)),
		TitleY:   margin + band/2,
		FontSize: fontSize,
	}
	x := margin
	top := margin + band
	for i, p := range panels {
		b := p.Image.Bounds()
		layout.Panels[i] = image.Rect(x, top, x+b.Dx(), top+b.Dy())
		x += b.Dx() + margin
	}
	layout.Size = image.Pt(x, top+maxH+margin)
	return layout, nil
}

// Compose 绘制对比图
//
// # Params:
//
//	panels: 从左到右的各栏, 例如 原图 / 语义分割 / 实例分割
//	opts: 布局参数
func Compose(panels []Panel, opts Options) (image.Image, error) {
	layout, err := Plan(panels, opts)
	if err != nil {
		return nil, err
	}

	td, err := segcompare.NewTextDrawer(opts.FontPath)
	if err != nil {
		return nil, err
	}
	defer td.Close()

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	fg := opts.TextColor
	if fg == nil {
		fg = color.Black
	}

	dc := gg.NewContext(layout.Size.X, layout.Size.Y)
	dc.SetColor(bg)
	dc.Clear()

	for i, p := range panels {
		r := layout.Panels[i]
		dc.DrawImage(p.Image, r.Min.X, r.Min.Y)

		if p.Title == "" {
			continue
		}
		// 标题超出栏宽时缩小字号
		size := layout.FontSize
		if err := td.SetSize(size); err != nil {
			return nil, fmt.Errorf("设置字号失败: %w", err)
		}
		for size > 6 && td.MeasureText(p.Title) > r.Dx() {
			size--
			if err := td.SetSize(size); err != nil {
				return nil, fmt.Errorf("设置字号失败: %w", err)
			}
		}
		dc.SetFontFace(td.Face())
		dc.SetColor(fg)
		dc.DrawStringAnchored(p.Title, float64(r.Min.X+r.Dx()/2), float64(layout.TitleY), 0.5, 0.5)
	}
	return dc.Image(), nil
}
