package deeplab

import (
	"fmt"
	"github.com/getcharzp/go-segcompare"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"image"
)

// Engine DeepLabV3 语义分割引擎
type Engine struct {
	session *ort.DynamicAdvancedSession
	config  Config
}

// NewEngine 初始化语义分割引擎
func NewEngine(cfg Config) (*Engine, error) {
	oc := new(segcompare.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, oc); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	// 初始化 ONNX
	if err := oc.New(); err != nil {
		return nil, err
	}
	defer oc.Destroy()

	session, err := oc.NewSession(cfg.ModelPath, []string{cfg.InputName}, []string{cfg.OutputName})
	if err != nil {
		return nil, err
	}

	return &Engine{
		session: session,
		config:  cfg,
	}, nil
}

// Destroy 释放相关资源
func (e *Engine) Destroy() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
}

// Infer 执行语义分割, 返回与输入同尺寸的类别图
func (e *Engine) Infer(img image.Image) (*segcompare.LabelMap, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// 预处理
	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, int64(h), int64(w)), normalize(img))
	if err != nil {
		return nil, fmt.Errorf("创建 Input Tensor 失败: %w", err)
	}
	defer inputTensor.Destroy()

	// 推理
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("推理失败: %w", err)
	}
	defer outputs[0].Destroy()

	// 后处理
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("输出类型非 float32: %T", outputs[0])
	}
	shape := out.GetShape() // [1, 21, H, W]
	if len(shape) != 4 {
		return nil, fmt.Errorf("输出形状非法: %v", shape)
	}
	c, oh, ow := int(shape[1]), int(shape[2]), int(shape[3])
	if oh != h || ow != w {
		return nil, fmt.Errorf("输出尺寸 %dx%d 与输入 %dx%d 不一致", ow, oh, w, h)
	}
	if e.config.NumClasses > 0 && c != e.config.NumClasses {
		return nil, fmt.Errorf("输出类别数(%d)与预期(%d)不匹配", c, e.config.NumClasses)
	}

	return argmax(out.GetData(), c, oh, ow), nil
}
