package maskrcnn

import (
	"fmt"
	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"image"
	"math"
)

// rawOutputs 模型原始输出
type rawOutputs struct {
	boxes        []float32
	labels       []int64
	scores       []float32
	masks        []float32
	maskH, maskW int
}

// parseOutputs 按 boxes, labels, scores, masks 的顺序取出数据
func parseOutputs(outputs []ort.Value) (rawOutputs, error) {
	var out rawOutputs

	boxes, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return out, fmt.Errorf("boxes 类型非 float32: %T", outputs[0])
	}
	labels, ok := outputs[1].(*ort.Tensor[int64])
	if !ok {
		return out, fmt.Errorf("labels 类型非 int64: %T", outputs[1])
	}
	scores, ok := outputs[2].(*ort.Tensor[float32])
	if !ok {
		return out, fmt.Errorf("scores 类型非 float32: %T", outputs[2])
	}
	masks, ok := outputs[3].(*ort.Tensor[float32])
	if !ok {
		return out, fmt.Errorf("masks 类型非 float32: %T", outputs[3])
	}

	shape := masks.GetShape() // [N, 1, H, W]
	if err := checkMaskShape(shape); err != nil {
		return out, err
	}

	out.boxes = boxes.GetData()
	out.labels = labels.GetData()
	out.scores = scores.GetData()
	out.masks = masks.GetData()
	out.maskH, out.maskW = int(shape[2]), int(shape[3])
	return out, nil
}

// checkMaskShape masks 必须为 [N, 1, H, W]
func checkMaskShape(shape ort.Shape) error {
	if len(shape) != 4 || shape[1] != 1 {
		return fmt.Errorf("masks 形状非法: %v", shape)
	}
	return nil
}

// toCHW 转为 CHW, 0-1
func toCHW(img image.Image) []float32 {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			idx := y*w + x
			data[idx] = float32(src.Pix[i+0]) / 255.0         // R
			data[plane+idx] = float32(src.Pix[i+1]) / 255.0   // G
			data[2*plane+idx] = float32(src.Pix[i+2]) / 255.0 // B
		}
	}
	return data
}

// binarize Mask 概率图按阈值二值化 (0 / 255)
func binarize(prob []float32, w, h int, threshold float32) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i, p := range prob {
		if p > threshold {
			mask.Pix[i] = 255
		}
	}
	return mask
}

// toRect x1, y1, x2, y2 转为限制在图像内的整数矩形
func toRect(box []float32, w, h int) image.Rectangle {
	x1 := max(0, int(math.Floor(float64(box[0]))))
	y1 := max(0, int(math.Floor(float64(box[1]))))
	x2 := min(w, int(math.Ceil(float64(box[2]))))
	y2 := min(h, int(math.Ceil(float64(box[3]))))
	return image.Rect(x1, y1, x2, y2)
}
