package yoloseg

import (
	"github.com/getcharzp/go-segcompare"
	"image"
)

// Config 引擎的初始化参数
type Config struct {
	ModelPath          string // ONNX 模型路径
	OnnxRuntimeLibPath string // ONNX Runtime 动态库路径

	// 推理参数
	ConfThreshold float32 // 置信度阈值 (默认 0.25, 最终阈值由调用方决定)
	IOUThreshold  float32 // NMS IOU 阈值 (默认 0.5)
	MaskThreshold float32 // Mask 二值化阈值 (默认 0.5)

	// 模型参数
	InputSize     int // 默认 640
	NumClasses    int // 默认 80
	NumMaskCoeffs int // 默认 32

	// 可选参数
	UseCuda    bool // (可选) 是否启用 CUDA
	NumThreads int  // (可选) ONNX 线程数, 默认由CPU核心数决定
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		ModelPath:          "./yolov11_weights/yolo11m-seg.onnx",
		OnnxRuntimeLibPath: segcompare.DefaultLibraryPath(),
		ConfThreshold:      0.25,
		IOUThreshold:       0.50,
		MaskThreshold:      0.50,
		InputSize:          640,
		NumClasses:         80,
		NumMaskCoeffs:      32,
	}
}

// imageParams 输入图 (画布) 在模型输入中的位置
type imageParams struct {
	origW, origH     int
	scale            float32
	xOffset, yOffset float32
}

// toInput 输入图坐标 -> 模型输入坐标
func (p imageParams) toInput(x, y float32) (float32, float32) {
	return x*p.scale + p.xOffset, y*p.scale + p.yOffset
}

// fromInput 模型输入坐标 -> 输入图坐标
func (p imageParams) fromInput(x, y float32) (float32, float32) {
	return (x - p.xOffset) / p.scale, (y - p.yOffset) / p.scale
}

// 候选结果
type candidate struct {
	box        [4]float32      // 模型输入坐标下的 x1, y1, x2, y2
	origBox    image.Rectangle // 输入图的检测框
	score      float32
	classID    int
	maskCoeffs []float32 // Mask 系数
}
