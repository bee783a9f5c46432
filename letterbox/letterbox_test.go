package letterbox

import (
	"github.com/getcharzp/go-segcompare"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var sizes = [][2]int{
	{800, 400}, {400, 800}, {300, 300}, {512, 512}, {1, 1}, {1, 1000}, {1000, 1},
	{640, 480}, {1920, 1080}, {333, 777}, {513, 511}, {7, 3},
}

var targets = []Size{{512, 512}, {640, 480}, {300, 500}, {1, 1}}

func TestPlan_Scenario800x400(t *testing.T) {
	crop, err := Plan(800, 400, Size{512, 512})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, crop, test.ShouldResemble, CropParams{XOffset: 0, YOffset: 128, ScaledWidth: 512, ScaledHeight: 256})
}

func TestPlan_Scenario300x300(t *testing.T) {
	crop, err := Plan(300, 300, Size{512, 512})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, crop, test.ShouldResemble, CropParams{XOffset: 0, YOffset: 0, ScaledWidth: 512, ScaledHeight: 512})
}

func TestPlan_FitsAndFillsLimitingDimension(t *testing.T) {
	for _, target := range targets {
		for _, s := range sizes {
			crop, err := Plan(s[0], s[1], target)
			test.That(t, err, test.ShouldBeNil)

			test.That(t, crop.ScaledWidth, test.ShouldBeLessThanOrEqualTo, target.Width)
			test.That(t, crop.ScaledHeight, test.ShouldBeLessThanOrEqualTo, target.Height)
			filled := crop.ScaledWidth == target.Width || crop.ScaledHeight == target.Height
			test.That(t, filled, test.ShouldBeTrue)

			test.That(t, crop.XOffset, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, crop.YOffset, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, 2*crop.XOffset+crop.ScaledWidth, test.ShouldBeLessThanOrEqualTo, target.Width)
			test.That(t, 2*crop.YOffset+crop.ScaledHeight, test.ShouldBeLessThanOrEqualTo, target.Height)

			right := target.Width - crop.XOffset - crop.ScaledWidth
			bottom := target.Height - crop.YOffset - crop.ScaledHeight
			test.That(t, right-crop.XOffset, test.ShouldBeIn, 0, 1)
			test.That(t, bottom-crop.YOffset, test.ShouldBeIn, 0, 1)
		}
	}
}

func TestPlan_InvalidInput(t *testing.T) {
	cases := []struct {
		w, h   int
		target Size
	}{
		{0, 10, Size{512, 512}},
		{10, 0, Size{512, 512}},
		{-5, 10, Size{512, 512}},
		{10, 10, Size{0, 512}},
		{10, 10, Size{512, -1}},
	}
	for _, c := range cases {
		_, err := Plan(c.w, c.h, c.target)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, segcompare.ErrInvalidInput), test.ShouldBeTrue)
	}
}

func TestPadAndResize_InvalidInput(t *testing.T) {
	_, _, _, err := PadAndResize(nil, Size{512, 512}, FilterLinear)
	test.That(t, errors.Is(err, segcompare.ErrInvalidInput), test.ShouldBeTrue)

	empty := image.NewNRGBA(image.Rect(0, 0, 0, 10))
	_, _, _, err = PadAndResize(empty, Size{512, 512}, FilterLinear)
	test.That(t, errors.Is(err, segcompare.ErrInvalidInput), test.ShouldBeTrue)
}

func TestPadAndResize_CentersContent(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	canvas, crop, orig, err := PadAndResize(solidImage(800, 400, white), Size{512, 512}, FilterLinear)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, canvas.Bounds(), test.ShouldResemble, image.Rect(0, 0, 512, 512))
	test.That(t, orig, test.ShouldResemble, Shape{Height: 400, Width: 800})
	test.That(t, crop.Rect(), test.ShouldResemble, image.Rect(0, 128, 512, 384))

	black := color.NRGBA{0, 0, 0, 255}
	for _, x := range []int{0, 100, 511} {
		test.That(t, canvas.NRGBAAt(x, 0), test.ShouldResemble, black)
		test.That(t, canvas.NRGBAAt(x, 127), test.ShouldResemble, black)
		test.That(t, canvas.NRGBAAt(x, 128), test.ShouldResemble, white)
		test.That(t, canvas.NRGBAAt(x, 383), test.ShouldResemble, white)
		test.That(t, canvas.NRGBAAt(x, 384), test.ShouldResemble, black)
		test.That(t, canvas.NRGBAAt(x, 511), test.ShouldResemble, black)
	}
}

func TestPadAndResize_NoPaddingForSquare(t *testing.T) {
	gray := color.NRGBA{90, 90, 90, 255}
	canvas, crop, _, err := PadAndResize(solidImage(300, 300, gray), Size{512, 512}, FilterArea)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, crop, test.ShouldResemble, CropParams{ScaledWidth: 512, ScaledHeight: 512})
	test.That(t, canvas.NRGBAAt(0, 0), test.ShouldResemble, gray)
	test.That(t, canvas.NRGBAAt(511, 511), test.ShouldResemble, gray)
}

func TestRoundTrip_RestoresOriginalShape(t *testing.T) {
	for _, target := range targets {
		for _, s := range sizes {
			src := solidImage(s[0], s[1], color.NRGBA{10, 20, 30, 255})
			canvas, crop, orig, err := PadAndResize(src, target, FilterLinear)
			test.That(t, err, test.ShouldBeNil)

			for _, f := range []Filter{FilterNearest, FilterLinear, FilterArea} {
				back := CropToOriginal(canvas, crop, orig, f)
				test.That(t, back.Bounds().Dx(), test.ShouldEqual, s[0])
				test.That(t, back.Bounds().Dy(), test.ShouldEqual, s[1])
			}
		}
	}
}

func TestCropToOriginal_NearestKeepsBinaryMask(t *testing.T) {
	_, crop, orig, err := PadAndResize(solidImage(333, 777, color.NRGBA{A: 255}), Size{512, 512}, FilterLinear)
	test.That(t, err, test.ShouldBeNil)

	// 0/1 棋盘格 Mask
	mask := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			v := uint8(((x / 3) + (y / 5)) % 2)
			mask.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}

	back := CropToOriginal(mask, crop, orig, FilterNearest)
	test.That(t, back.Bounds().Dx(), test.ShouldEqual, 333)
	test.That(t, back.Bounds().Dy(), test.ShouldEqual, 777)
	values := map[uint8]int{}
	for i := 0; i < len(back.Pix); i += 4 {
		values[back.Pix[i]]++
	}
	test.That(t, len(values), test.ShouldEqual, 2)
	test.That(t, values[0], test.ShouldBeGreaterThan, 0)
	test.That(t, values[1], test.ShouldBeGreaterThan, 0)
}

func TestCropLabels(t *testing.T) {
	// 4x2 原图 -> 8x8 画布, 内容位于第 2..5 行
	crop, err := Plan(4, 2, Size{8, 8})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, crop, test.ShouldResemble, CropParams{XOffset: 0, YOffset: 2, ScaledWidth: 8, ScaledHeight: 4})

	labels := segcompare.NewLabelMap(8, 8)
	for y := 2; y < 6; y++ {
		for x := 0; x < 8; x++ {
			if x >= 4 {
				labels.Set(x, y, 15)
			}
		}
	}
	// 填充区域的类别不应影响还原结果
	labels.Set(0, 0, 99)

	back := CropLabels(labels, crop, Shape{Height: 2, Width: 4})
	test.That(t, back.Width, test.ShouldEqual, 4)
	test.That(t, back.Height, test.ShouldEqual, 2)
	test.That(t, back.Labels, test.ShouldResemble, []int{0, 0, 15, 15, 0, 0, 15, 15})
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("nearest")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, FilterNearest)

	f, err = ParseFilter("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, FilterLinear)

	f, err = ParseFilter("area")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.String(), test.ShouldEqual, "area")

	_, err = ParseFilter("bicubic")
	test.That(t, err, test.ShouldNotBeNil)
}
