package segcompare

import (
	"go.viam.com/test"
	"image"
	"image/color"
	"testing"
)

func TestTextDrawer_DrawText(t *testing.T) {
	d, err := NewTextDrawer("")
	test.That(t, err, test.ShouldBeNil)
	defer d.Close()

	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	d.DrawText(img, "Hello World", 10, 25, color.White)

	painted := false
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			painted = true
			break
		}
	}
	test.That(t, painted, test.ShouldBeTrue)
}

func TestTextDrawer_SetSize(t *testing.T) {
	d, err := NewTextDrawer("")
	test.That(t, err, test.ShouldBeNil)
	defer d.Close()

	small := d.MeasureText("Semantic Segmentation")
	test.That(t, d.SetSize(24), test.ShouldBeNil)
	large := d.MeasureText("Semantic Segmentation")
	test.That(t, large, test.ShouldBeGreaterThan, small)
	test.That(t, d.Face(), test.ShouldNotBeNil)
}

func TestNewTextDrawer_MissingFont(t *testing.T) {
	_, err := NewTextDrawer("./fonts/not-exist.ttf")
	test.That(t, err, test.ShouldNotBeNil)
}
