package deeplab

import "github.com/getcharzp/go-segcompare"

// ImageNet 均值和方差
const (
	MeanR = 0.485
	MeanG = 0.456
	MeanB = 0.406

	StdR = 0.229
	StdG = 0.224
	StdB = 0.225
)

// Config 引擎的初始化参数
type Config struct {
	ModelPath          string // ONNX 模型路径
	OnnxRuntimeLibPath string // ONNX Runtime 动态库路径

	// 模型参数
	InputName  string // 输入节点, 默认 input
	OutputName string // 输出节点, 默认 out
	NumClasses int    // 默认 21 (Pascal VOC)

	// 可选参数
	UseCuda    bool // (可选) 是否启用 CUDA
	NumThreads int  // (可选) ONNX 线程数, 默认由CPU核心数决定
}

// DefaultConfig 默认配置
//
// 模型由 torchvision deeplabv3_resnet50 导出, 输入 [1, 3, H, W], 输出 [1, 21, H, W]
func DefaultConfig() Config {
	return Config{
		ModelPath:          "./deeplab_weights/deeplabv3_resnet50.onnx",
		OnnxRuntimeLibPath: segcompare.DefaultLibraryPath(),
		InputName:          "input",
		OutputName:         "out",
		NumClasses:         21,
	}
}
