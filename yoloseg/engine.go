package yoloseg

import (
	"fmt"
	"github.com/getcharzp/go-segcompare"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"image"
	"image/color"
	"math"
)

// Engine YOLOv11-seg 实例分割引擎
//
// 输出的 ClassID 为 COCO 80 类的下标 (0: person), 与 Mask R-CNN 的 91 类编号不同
type Engine struct {
	session *ort.DynamicAdvancedSession
	config  Config
}

// NewEngine 初始化分割引擎
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("InputSize 非法: %d", cfg.InputSize)
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

	// 创建 Session
	session, err := oc.NewSession(cfg.ModelPath, []string{"images"}, []string{"output0", "output1"})
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

// Infer 执行分割推理, 检测框与 Mask 均位于输入图坐标系
func (e *Engine) Infer(img image.Image) ([]segcompare.Instance, error) {
	// 预处理
	inputTensor, params, err := preprocess(img, e.config.InputSize)
	if err != nil {
		return nil, fmt.Errorf("预处理失败: %w", err)
	}
	defer inputTensor.Destroy()

	// 推理
	outputs := make([]ort.Value, 2)
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

	// output0: Detections [1, 116, 8400]
	// output1: Mask Protos [1, 32, 160, 160]
	out0, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output0 类型非 float32: %T", outputs[0])
	}
	out1, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output1 类型非 float32: %T", outputs[1])
	}

	// 后处理
	return e.postprocess(out0.GetData(), out0.GetShape(), out1.GetData(), out1.GetShape(), params)
}

// postprocess 后处理
func (e *Engine) postprocess(data0 []float32, shape0 ort.Shape, data1 []float32, shape1 ort.Shape, params imageParams) ([]segcompare.Instance, error) {
	if len(shape0) != 3 || len(shape1) != 4 {
		return nil, fmt.Errorf("输出形状非法: %v, %v", shape0, shape1)
	}
	numChannels := int(shape0[1]) // 4 (box) + 80 (cls) + 32 (mask) = 116
	numAnchors := int(shape0[2])  // 8400
	protoC, protoH, protoW := int(shape1[1]), int(shape1[2]), int(shape1[3])

	// 检查通道数
	expectedChannels := 4 + e.config.NumClasses + e.config.NumMaskCoeffs
	if numChannels != expectedChannels {
		return nil, fmt.Errorf("输出通道数(%d)与预期(%d)不匹配", numChannels, expectedChannels)
	}
	if protoC != e.config.NumMaskCoeffs {
		return nil, fmt.Errorf("原型掩码通道数(%d)与预期(%d)不匹配", protoC, e.config.NumMaskCoeffs)
	}

	// 解析候选框
	candidates := e.parseCandidates(data0, numAnchors, params)
	// NMS
	keptIndices := nms(candidates, e.config.IOUThreshold)

	results := make([]segcompare.Instance, 0, len(keptIndices))

	// 生成 Mask
	for _, idx := range keptIndices {
		cand := candidates[idx]
		results = append(results, segcompare.Instance{
			ClassID: cand.classID,
			Score:   cand.score,
			Box:     cand.origBox,
			Mask:    e.decodeMask(cand, data1, protoC, protoH, protoW, params),
		})
	}

	return results, nil
}

// parseCandidates 解析候选框
//
// # Params:
//
//	data: 模型输出的数组
//		[x1, x2 ..., x8400]
//		[y1, y2 ..., y8400]
//		[w1, w2 ..., w8400]
//		[h1, h2 ..., h8400]
//		[c1_1, c1_2 ..., c1_8400]
//		...
//		[m1, m2 ..., m8400]
//	anchors: 模型输出的锚点数
//	params: 图片尺寸信息
func (e *Engine) parseCandidates(data []float32, anchors int, params imageParams) []candidate {
	var cands []candidate

	for i := 0; i < anchors; i++ {
		// 找最大分类分数
		maxScore := float32(0.0)
		classID := -1
		for c := 0; c < e.config.NumClasses; c++ {
			score := data[(4+c)*anchors+i]
			if score > maxScore {
				maxScore = score
				classID = c
			}
		}
		if classID < 0 || maxScore < e.config.ConfThreshold {
			continue
		}

		// 提取坐标
		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		// 提取 Mask 系数
		coeffs := make([]float32, e.config.NumMaskCoeffs)
		for j := 0; j < e.config.NumMaskCoeffs; j++ {
			coeffs[j] = data[(4+e.config.NumClasses+j)*anchors+i]
		}

		x1, y1 := cx-w/2, cy-h/2
		x2, y2 := cx+w/2, cy+h/2

		// 转换回输入图坐标
		ox1, oy1 := params.fromInput(x1, y1)
		ox2, oy2 := params.fromInput(x2, y2)
		origBox := image.Rect(
			max(0, int(math.Floor(float64(ox1)))),
			max(0, int(math.Floor(float64(oy1)))),
			min(params.origW, int(math.Ceil(float64(ox2)))),
			min(params.origH, int(math.Ceil(float64(oy2)))),
		)
		if origBox.Empty() {
			continue
		}

		cands = append(cands, candidate{
			box:        [4]float32{x1, y1, x2, y2},
			origBox:    origBox,
			score:      maxScore,
			classID:    classID,
			maskCoeffs: coeffs,
		})
	}
	return cands
}

// decodeMask Mask解码, 仅计算检测框内的像素
//
// # Params:
//
//	cand: 候选结果
//	protos: 模型输出的 Mask 原型图
//	c: 原型掩码的通道数
//	h: 单个原型掩码的高度
//	w: 单个原型掩码的宽度
//	params: 图片尺寸信息
func (e *Engine) decodeMask(cand candidate, protos []float32, c, h, w int, params imageParams) *image.Gray {
	finalMask := image.NewGray(image.Rect(0, 0, params.origW, params.origH))

	// Mask 原型图相对于 InputSize(640) 的缩放比例
	maskStride := float32(e.config.InputSize) / float32(w)

	coeffs := cand.maskCoeffs
	for y := cand.origBox.Min.Y; y < cand.origBox.Max.Y; y++ {
		for x := cand.origBox.Min.X; x < cand.origBox.Max.X; x++ {
			// 像素中心映射到 640 尺度
			inputX, inputY := params.toInput(float32(x)+0.5, float32(y)+0.5)

			// 映射到 160 Mask 尺度
			mx := int(inputX / maskStride)
			my := int(inputY / maskStride)
			if mx < 0 || mx >= w || my < 0 || my >= h {
				continue
			}

			// 计算该像素的 Mask 值 (Dot Product)
			sum := float32(0.0)
			for k := 0; k < c; k++ {
				sum += coeffs[k] * protos[k*h*w+my*w+mx]
			}
			if sigmoid(sum) > e.config.MaskThreshold {
				finalMask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return finalMask
}
