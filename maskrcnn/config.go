package maskrcnn

import "github.com/getcharzp/go-segcompare"

// Config 引擎的初始化参数
type Config struct {
	ModelPath          string // ONNX 模型路径
	OnnxRuntimeLibPath string // ONNX Runtime 动态库路径

	// 推理参数
	ConfThreshold float32 // 引擎内的置信度下限 (默认 0, 全部返回, 由调用方按阈值过滤)
	MaskThreshold float32 // Mask 二值化阈值 (默认 0.5)

	// 模型参数
	InputName   string   // 默认 image
	OutputNames []string // boxes, labels, scores, masks 的节点名称 (顺序固定)

	// 可选参数
	UseCuda    bool // (可选) 是否启用 CUDA
	NumThreads int  // (可选) ONNX 线程数, 默认由CPU核心数决定
}

// DefaultConfig 默认配置
//
// 模型由 torchvision maskrcnn_resnet50_fpn 导出, 输入 [3, H, W] (0-1, 不做均值方差归一化)
func DefaultConfig() Config {
	return Config{
		ModelPath:          "./maskrcnn_weights/maskrcnn_resnet50_fpn.onnx",
		OnnxRuntimeLibPath: segcompare.DefaultLibraryPath(),
		ConfThreshold:      0,
		MaskThreshold:      0.5,
		InputName:          "image",
		OutputNames:        []string{"boxes", "labels", "scores", "masks"},
	}
}
