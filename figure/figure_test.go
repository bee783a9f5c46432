package figure

import (
	"github.com/disintegration/imaging"
	"go.viam.com/test"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func panel(title string, w, h int, c color.NRGBA) Panel {
	return Panel{Title: title, Image: imaging.New(w, h, c)}
}

func TestPlan(t *testing.T) {
	panels := []Panel{
		panel("Original", 200, 100, color.NRGBA{255, 0, 0, 255}),
		panel("Semantic Segmentation", 200, 100, color.NRGBA{0, 255, 0, 255}),
		panel("Instance Segmentation", 200, 100, color.NRGBA{0, 0, 255, 255}),
	}
	opts := DefaultOptions()
	opts.FontSize = 10

	layout, err := Plan(panels, opts)
	test.That(t, err, test.ShouldBeNil)
	// 宽: 20 + 3*(200+20), 高: 20 + 20(标题栏) + 100 + 20
	test.That(t, layout.Size, test.ShouldResemble, image.Pt(680, 160))
	test.That(t, layout.Panels[0], test.ShouldResemble, image.Rect(20, 40, 220, 140))
	test.That(t, layout.Panels[2], test.ShouldResemble, image.Rect(460, 40, 660, 140))
	test.That(t, layout.TitleY, test.ShouldEqual, 30)
}

func TestPlan_AutoFontSize(t *testing.T) {
	layout, err := Plan([]Panel{panel("a", 800, 10, color.NRGBA{A: 255})}, DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.FontSize, test.ShouldEqual, 40.0)

	layout, err = Plan([]Panel{panel("a", 50, 10, color.NRGBA{A: 255})}, DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.FontSize, test.ShouldEqual, 12.0)
}

func TestPlan_Invalid(t *testing.T) {
	_, err := Plan(nil, DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Plan([]Panel{{Title: "empty"}}, DefaultOptions())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCompose(t *testing.T) {
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	panels := []Panel{
		panel("Original", 120, 80, red),
		panel("Instance Segmentation", 120, 80, blue),
	}
	opts := DefaultOptions()
	layout, err := Plan(panels, opts)
	test.That(t, err, test.ShouldBeNil)

	img, err := Compose(panels, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Size(), test.ShouldResemble, layout.Size)

	at := func(p image.Point) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
	}
	test.That(t, at(layout.Panels[0].Min.Add(image.Pt(5, 5))), test.ShouldResemble, red)
	test.That(t, at(layout.Panels[1].Max.Sub(image.Pt(5, 5))), test.ShouldResemble, blue)
	test.That(t, at(image.Pt(1, layout.Size.Y-1)), test.ShouldResemble, color.NRGBA{255, 255, 255, 255})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, FormatPNG)

	f, err = ParseFormat("JPEG")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Ext(), test.ShouldEqual, "jpg")

	f, err = ParseFormat("webp")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, FormatWebP)

	_, err = ParseFormat("gif")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOutputPath(t *testing.T) {
	test.That(t, OutputPath("results", "images/image1.jpg", "_results", FormatPNG), test.ShouldEqual, filepath.Join("results", "image1_results.png"))
	test.That(t, OutputPath("out", "/tmp/a.b.png", "_x", FormatWebP), test.ShouldEqual, filepath.Join("out", "a.b_x.webp"))
	test.That(t, OutputPath("", "noext", "_results", FormatJPEG), test.ShouldEqual, "noext_results.jpg")
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(16, 8, color.NRGBA{10, 200, 30, 255})

	for _, f := range []Format{FormatPNG, FormatJPEG, FormatWebP} {
		path := OutputPath(dir, "sample.jpg", "_results", f)
		test.That(t, Save(img, path, f, 90), test.ShouldBeNil)

		info, err := os.Stat(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
	}

	back, err := imaging.Open(OutputPath(dir, "sample.jpg", "_results", FormatPNG))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Bounds().Size(), test.ShouldResemble, image.Pt(16, 8))
}
