package maskrcnn

import (
	"fmt"
	"github.com/getcharzp/go-segcompare"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"image"
)

// Engine Mask R-CNN 实例分割引擎
type Engine struct {
	session *ort.DynamicAdvancedSession
	config  Config
}

// NewEngine 初始化实例分割引擎
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.OutputNames) != 4 {
		return nil, fmt.Errorf("OutputNames 需要 4 个节点(boxes, labels, scores, masks), 实际 %d 个", len(cfg.OutputNames))
	}
	oc := new(segcompare.OnnxConfig)
	if err := convertutil.CopyProperties(cfg, oc); err != nil {
		return nil, fmt.Errorf("复制参数失败: %w", err)
	}
	// 初始化 ONNX
	if err := oc.New(); err != nil {
		return nil, err
	}
	defer oc.Destroy()

	session, err := oc.NewSession(cfg.ModelPath, []string{cfg.InputName}, cfg.OutputNames)
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

// Infer 执行实例分割, Mask 与输入同尺寸
func (e *Engine) Infer(img image.Image) ([]segcompare.Instance, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// 预处理
	inputTensor, err := ort.NewTensor(ort.NewShape(3, int64(h), int64(w)), toCHW(img))
	if err != nil {
		return nil, fmt.Errorf("创建 Input Tensor 失败: %w", err)
	}
	defer inputTensor.Destroy()

	// 推理
	outputs := make([]ort.Value, 4)
	if err := e.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("推理失败: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	// boxes [N, 4], labels [N], scores [N], masks [N, 1, H, W]
	out, err := parseOutputs(outputs)
	if err != nil {
		return nil, err
	}

	// 后处理
	return e.postprocess(out, w, h)
}

// postprocess 后处理
func (e *Engine) postprocess(out rawOutputs, w, h int) ([]segcompare.Instance, error) {
	n := len(out.scores)
	if len(out.boxes) != n*4 || len(out.labels) != n {
		return nil, fmt.Errorf("输出数量不一致: boxes=%d labels=%d scores=%d", len(out.boxes)/4, len(out.labels), n)
	}
	if out.maskH != h || out.maskW != w {
		return nil, fmt.Errorf("Mask 尺寸 %dx%d 与输入 %dx%d 不一致", out.maskW, out.maskH, w, h)
	}
	plane := w * h
	if len(out.masks) != n*plane {
		return nil, fmt.Errorf("Mask 数据长度 %d 与 %d 个 %dx%d 的 Mask 不一致", len(out.masks), n, w, h)
	}

	results := make([]segcompare.Instance, 0, n)
	for i := 0; i < n; i++ {
		score := out.scores[i]
		if score < e.config.ConfThreshold {
			continue
		}
		results = append(results, segcompare.Instance{
			ClassID: int(out.labels[i]),
			Score:   score,
			Box:     toRect(out.boxes[i*4:i*4+4], w, h),
			Mask:    binarize(out.masks[i*plane:(i+1)*plane], w, h, e.config.MaskThreshold),
		})
	}
	return results, nil
}
