package yoloseg

import (
	"github.com/getcharzp/go-segcompare/letterbox"
	ort "github.com/yalue/onnxruntime_go"
	"image"
	"math"
	"sort"
)

// preprocess 预处理, 等比缩放并居中填充到 inputSize x inputSize
func preprocess(img image.Image, inputSize int) (*ort.Tensor[float32], imageParams, error) {
	canvas, crop, orig, err := letterbox.PadAndResize(img, letterbox.Size{Width: inputSize, Height: inputSize}, letterbox.FilterLinear)
	if err != nil {
		return nil, imageParams{}, err
	}
	params := imageParams{
		origW:   orig.Width,
		origH:   orig.Height,
		scale:   float32(crop.ScaledWidth) / float32(orig.Width),
		xOffset: float32(crop.XOffset),
		yOffset: float32(crop.YOffset),
	}

	// 准备 Tensor 数据 (CHW + Normalize 0-1)
	plane := inputSize * inputSize
	data := make([]float32, 3*plane)
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			i := y*canvas.Stride + x*4
			idx := y*inputSize + x
			data[idx] = float32(canvas.Pix[i+0]) / 255.0         // R
			data[plane+idx] = float32(canvas.Pix[i+1]) / 255.0   // G
			data[2*plane+idx] = float32(canvas.Pix[i+2]) / 255.0 // B
		}
	}

	shape := ort.NewShape(1, 3, int64(inputSize), int64(inputSize))
	tensor, err := ort.NewTensor(shape, data)
	return tensor, params, err
}

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

// nms 非极大值抑制，过滤掉重叠度过高的检测框
//
// # Params:
//
//	cands: 候选框, 会按分数降序原地排序
//	iouThresh: IOU 阈值
func nms(cands []candidate, iouThresh float32) []int {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})

	keep := make([]int, 0)
	suppressed := make([]bool, len(cands))

	for i := 0; i < len(cands); i++ {
		if suppressed[i] {
			continue
		}
		keep = append(keep, i)

		for j := i + 1; j < len(cands); j++ {
			if suppressed[j] {
				continue
			}
			if computeIOU(cands[i].origBox, cands[j].origBox) > iouThresh {
				suppressed[j] = true
			}
		}
	}
	return keep
}

func computeIOU(r1, r2 image.Rectangle) float32 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}

	interArea := intersect.Dx() * intersect.Dy()
	area1 := r1.Dx() * r1.Dy()
	area2 := r2.Dx() * r2.Dy()

	return float32(interArea) / float32(area1+area2-interArea)
}
