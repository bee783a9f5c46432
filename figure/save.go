package figure

import (
	"fmt"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Format 输出文件格式
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatWebP
)

// Ext 文件扩展名 (不含点)
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatWebP:
		return "webp"
	default:
		return "png"
	}
}

func (f Format) String() string {
	return f.Ext()
}

// ParseFormat 解析输出格式: png / jpg / jpeg / webp
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png", "":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return 0, fmt.Errorf("不支持的输出格式: %q", s)
}

// Save 保存图像
//
// # Params:
//
//	img: 图像
//	path: 保存路径
//	format: 输出格式
//	quality: JPEG/WebP 质量 (1-100), PNG 忽略; WebP 为 100 时使用无损编码
func Save(img image.Image, path string, format Format, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	switch format {
	case FormatWebP:
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("创建文件失败: %w", err)
		}
		opts := &webp.Options{Lossless: quality == 100, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return fmt.Errorf("WebP 编码失败: %w", err)
		}
		return f.Close()
	case FormatJPEG:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return imaging.Save(img, path)
	}
}

// OutputPath 结果文件路径 <dir>/<文件名去扩展名><suffix>.<ext>
//
// 例如 OutputPath("results", "images/cat.jpg", "_results", FormatPNG) = "results/cat_results.png"
func OutputPath(dir, input, suffix string, format Format) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+suffix+"."+format.Ext())
}
