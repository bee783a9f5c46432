package segcompare

import (
	"fmt"
	"github.com/pkg/errors"
	"image"
)

var (
	// ErrInvalidInput 输入非法: 尺寸为 0 或负数、文件无法读取或解码
	ErrInvalidInput = errors.New("无效输入")
	// ErrModelInference 分割模型推理失败
	ErrModelInference = errors.New("模型推理失败")
)

// InferenceError 将模型返回的错误标记为 ErrModelInference, 原始错误仍可通过 errors.Is/As 匹配
func InferenceError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrModelInference, err)
}

// LabelMap 语义分割结果, 每个像素对应最可能的类别ID
type LabelMap struct {
	Width, Height int
	Labels        []int // 行优先, 长度 Width*Height
}

// NewLabelMap 创建全 0 (背景) 的类别图
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{
		Width:  width,
		Height: height,
		Labels: make([]int, width*height),
	}
}

// At 读取 (x, y) 的类别ID
func (m *LabelMap) At(x, y int) int {
	return m.Labels[y*m.Width+x]
}

// Set 设置 (x, y) 的类别ID
func (m *LabelMap) Set(x, y, label int) {
	m.Labels[y*m.Width+x] = label
}

// Foreground 非背景 (类别ID != 0) 像素占比
func (m *LabelMap) Foreground() float64 {
	if len(m.Labels) == 0 {
		return 0
	}
	n := 0
	for _, l := range m.Labels {
		if l != 0 {
			n++
		}
	}
	return float64(n) / float64(len(m.Labels))
}

// Instance 实例分割结果
type Instance struct {
	// 分类ID (COCO), 例如：
	//	1: person
	//	3: car
	ClassID int
	Score   float32
	Box     image.Rectangle // 画布坐标下的检测框
	Mask    *image.Gray     // 二值化后的 Mask (0 / 255), 与画布同尺寸
}

// FilterByScore 保留分数严格大于阈值的实例, 保持原有顺序
func FilterByScore(instances []Instance, threshold float32) []Instance {
	kept := make([]Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.Score > threshold {
			kept = append(kept, inst)
		}
	}
	return kept
}
