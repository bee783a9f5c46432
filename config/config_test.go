package config

import (
	"github.com/getcharzp/go-segcompare"
	"github.com/getcharzp/go-segcompare/figure"
	"github.com/getcharzp/go-segcompare/letterbox"
	"github.com/getcharzp/go-segcompare/overlay"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.Images, test.ShouldResemble, []string{"images/image1.jpg", "images/image2.jpg", "images/image3.jpg"})
	test.That(t, cfg.Target(), test.ShouldResemble, letterbox.Size{Width: 512, Height: 512})
	test.That(t, cfg.InstanceScoreThreshold, test.ShouldEqual, float32(0.7))
	test.That(t, cfg.Seed, test.ShouldEqual, int64(42))
	test.That(t, cfg.OutputDir, test.ShouldEqual, "results")
	test.That(t, cfg.OutputSuffix, test.ShouldEqual, "_results")
	test.That(t, cfg.Filter(), test.ShouldEqual, letterbox.FilterLinear)
	test.That(t, cfg.PaletteMode(), test.ShouldEqual, overlay.PaletteIndex)
	test.That(t, cfg.Format(), test.ShouldEqual, figure.FormatPNG)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SEGCOMPARE_TEST_OUT", "/tmp/segcompare-out")
	path := writeFile(t, `{
		"images": ["a.png"],
		"output_dir": "${SEGCOMPARE_TEST_OUT}",
		"target_size": [640, 480],
		"palette": "stable",
		"instance": {"backend": "fake", "fake_count": 5}
	}`)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Images, test.ShouldResemble, []string{"a.png"})
	test.That(t, cfg.OutputDir, test.ShouldEqual, "/tmp/segcompare-out")
	test.That(t, cfg.Target(), test.ShouldResemble, letterbox.Size{Width: 640, Height: 480})
	test.That(t, cfg.PaletteMode(), test.ShouldEqual, overlay.PaletteStable)
	test.That(t, cfg.Instance.Backend, test.ShouldEqual, BackendFake)
	test.That(t, cfg.Instance.FakeCount, test.ShouldEqual, 5)

	// 未出现的字段保持默认值
	test.That(t, cfg.InstanceScoreThreshold, test.ShouldEqual, float32(0.7))
	test.That(t, cfg.Semantic.Backend, test.ShouldEqual, BackendONNX)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Load(writeFile(t, `{"images": `))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Load(writeFile(t, `{"target_size": [0, 512]}`))
	test.That(t, errors.Is(err, segcompare.ErrInvalidInput), test.ShouldBeTrue)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.TargetSize = [2]int{-1, 512}
	cfg.InstanceScoreThreshold = 1.5
	cfg.ImageFilter = "cubic"
	cfg.Semantic.Backend = "tflite"

	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 4)
	test.That(t, err.Error(), test.ShouldContainSubstring, "instance_score_threshold")
}

func TestWithImages(t *testing.T) {
	cfg := Default()
	single := cfg.WithImages("one.jpg")
	test.That(t, single.Images, test.ShouldResemble, []string{"one.jpg"})
	test.That(t, len(cfg.Images), test.ShouldEqual, 3)

	list := cfg.ImageList()
	list[0] = "changed.jpg"
	test.That(t, cfg.Images[0], test.ShouldEqual, "images/image1.jpg")
}
