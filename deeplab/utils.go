package deeplab

import (
	"github.com/disintegration/imaging"
	"github.com/getcharzp/go-segcompare"
	"image"
)

// normalize 转为 CHW 并按 ImageNet 均值方差归一化
func normalize(img image.Image) []float32 {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			rf := float32(src.Pix[i+0]) / 255.0
			gf := float32(src.Pix[i+1]) / 255.0
			bf := float32(src.Pix[i+2]) / 255.0

			idx := y*w + x
			data[idx] = (rf - MeanR) / StdR
			data[plane+idx] = (gf - MeanG) / StdG
			data[2*plane+idx] = (bf - MeanB) / StdB
		}
	}
	return data
}

// argmax 逐像素取得分最高的类别
//
// # Params:
//
//	logits: [C, H, W] 的输出
//	c, h, w: 维度
func argmax(logits []float32, c, h, w int) *segcompare.LabelMap {
	labels := segcompare.NewLabelMap(w, h)
	plane := h * w
	for idx := 0; idx < plane; idx++ {
		best := 0
		bestScore := logits[idx]
		for k := 1; k < c; k++ {
			if s := logits[k*plane+idx]; s > bestScore {
				bestScore = s
				best = k
			}
		}
		labels.Labels[idx] = best
	}
	return labels
}
