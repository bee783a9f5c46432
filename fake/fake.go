// Package fake 提供不依赖模型运行时的确定性分割器, 用于测试和演示
//
// 同一个种子与同一张输入图总是得到相同的结果.
package fake

import (
	"github.com/getcharzp/go-segcompare"
	"github.com/pkg/errors"
	"image"
	"image/color"
	"math/rand"
)

// SemanticClass 语义分割的前景类别 (VOC: person)
const SemanticClass = 15

// Semantic 在图像中心标注一个椭圆区域
type Semantic struct {
	// Err 不为空时 Infer 直接返回该错误
	Err error
}

// Infer 中心椭圆, 横轴/纵轴为图像宽高的 1/3
func (s *Semantic) Infer(img image.Image) (*segcompare.LabelMap, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(segcompare.ErrInvalidInput, "图片尺寸非法: %dx%d", w, h)
	}

	labels := segcompare.NewLabelMap(w, h)
	fillEllipse(image.Rect(w/3, h/3, w-w/3, h-h/3), func(x, y int) {
		labels.Set(x, y, SemanticClass)
	})
	return labels, nil
}

// Instance 生成 Count 个随机检测结果
type Instance struct {
	Seed  int64
	Count int // 检测数量, 默认 3
	// Err 不为空时 Infer 直接返回该错误
	Err error
}

// classIDs 随机检测使用的 COCO 类别
var classIDs = []int{1, 3, 17, 18, 62}

// Infer 偶数下标生成矩形 Mask, 奇数下标生成椭圆 Mask, 分数位于 [0.5, 1)
func (s *Instance) Infer(img image.Image) ([]segcompare.Instance, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 4 || h < 4 {
		return nil, errors.Wrapf(segcompare.ErrInvalidInput, "图片尺寸过小: %dx%d", w, h)
	}

	count := s.Count
	if count <= 0 {
		count = 3
	}
	rng := rand.New(rand.NewSource(s.Seed))

	results := make([]segcompare.Instance, 0, count)
	for i := 0; i < count; i++ {
		bw := w/4 + rng.Intn(w/4+1)
		bh := h/4 + rng.Intn(h/4+1)
		x := rng.Intn(w - bw + 1)
		y := rng.Intn(h - bh + 1)
		box := image.Rect(x, y, x+bw, y+bh)

		mask := image.NewGray(image.Rect(0, 0, w, h))
		set := func(px, py int) { mask.SetGray(px, py, color.Gray{Y: 255}) }
		if i%2 == 0 {
			for py := box.Min.Y; py < box.Max.Y; py++ {
				for px := box.Min.X; px < box.Max.X; px++ {
					set(px, py)
				}
			}
		} else {
			fillEllipse(box, set)
		}

		results = append(results, segcompare.Instance{
			ClassID: classIDs[rng.Intn(len(classIDs))],
			Score:   0.5 + rng.Float32()*0.5,
			Box:     box,
			Mask:    mask,
		})
	}
	return results, nil
}

// fillEllipse 对矩形内切椭圆中的每个像素调用 fn
func fillEllipse(r image.Rectangle, fn func(x, y int)) {
	if r.Empty() {
		return
	}
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := r.Min.X; x < r.Max.X; x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			if dx*dx+dy*dy <= 1 {
				fn(x, y)
			}
		}
	}
}
