// Package config 运行配置: 默认值, 从 JSON 文件加载 (支持 ${VAR} 环境变量替换) 以及校验
//
// Config 以值传递, 加载完成后不再修改.
package config

import (
	"encoding/json"
	"fmt"
	"github.com/a8m/envsubst"
	"github.com/getcharzp/go-segcompare"
	"github.com/getcharzp/go-segcompare/figure"
	"github.com/getcharzp/go-segcompare/letterbox"
	"github.com/getcharzp/go-segcompare/overlay"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// 后端名称
const (
	BackendONNX     = "onnx"
	BackendMaskRCNN = "maskrcnn"
	BackendYOLO     = "yolo"
	BackendFake     = "fake"
)

// Config 运行配置
type Config struct {
	Images       []string `json:"images"`        // 未指定命令行参数时处理的图片
	OutputDir    string   `json:"output_dir"`    // 结果目录, 不存在时自动创建
	OutputSuffix string   `json:"output_suffix"` // 结果文件名后缀
	OutputFormat string   `json:"output_format"` // png / jpg / webp
	Quality      int      `json:"quality"`       // JPEG/WebP 质量

	TargetSize             [2]int  `json:"target_size"`              // 模型画布尺寸 (宽, 高)
	InstanceScoreThreshold float32 `json:"instance_score_threshold"` // 实例分数阈值 (严格大于)
	Seed                   int64   `json:"seed"`                     // 随机种子
	ImageFilter            string  `json:"image_filter"`             // 彩色图缩放方式: linear / area / nearest
	Palette                string  `json:"palette"`                  // 实例调色方式: index / stable
	DrawBoxes              bool    `json:"draw_boxes"`               // 是否绘制实例检测框
	FontPath               string  `json:"font_path"`                // 标题字体, 为空时使用内置字体

	Log      LogConfig      `json:"log"`
	Onnx     OnnxConfig     `json:"onnx"`
	Semantic SemanticConfig `json:"semantic"`
	Instance InstanceConfig `json:"instance"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"` // debug / info / warn / error
}

// OnnxConfig ONNX Runtime 配置, 所有引擎共用
type OnnxConfig struct {
	LibPath    string `json:"lib_path"`
	UseCuda    bool   `json:"use_cuda"`
	NumThreads int    `json:"num_threads"`
}

// SemanticConfig 语义分割后端
type SemanticConfig struct {
	Backend   string `json:"backend"`    // onnx / fake
	ModelPath string `json:"model_path"` // 为空时使用 deeplab 默认路径
}

// InstanceConfig 实例分割后端
type InstanceConfig struct {
	Backend   string `json:"backend"`    // maskrcnn / yolo / fake
	ModelPath string `json:"model_path"` // 为空时使用对应引擎的默认路径
	FakeCount int    `json:"fake_count"` // fake 后端生成的实例数量
}

// Default 默认配置
func Default() Config {
	return Config{
		Images:                 []string{"images/image1.jpg", "images/image2.jpg", "images/image3.jpg"},
		OutputDir:              "results",
		OutputSuffix:           "_results",
		OutputFormat:           "png",
		Quality:                95,
		TargetSize:             [2]int{512, 512},
		InstanceScoreThreshold: 0.7,
		Seed:                   42,
		ImageFilter:            "linear",
		Palette:                "index",
		Log:                    LogConfig{Level: "info"},
		Onnx:                   OnnxConfig{LibPath: segcompare.DefaultLibraryPath()},
		Semantic:               SemanticConfig{Backend: BackendONNX},
		Instance:               InstanceConfig{Backend: BackendMaskRCNN, FakeCount: 3},
	}
}

// Load 读取 JSON 配置文件, 文件中未出现的字段保持默认值
//
// # Params:
//
//	path: 配置文件路径, 内容中的 ${VAR} 会被替换为环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "读取配置文件 %s 失败", path)
	}
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "解析配置文件 %s 失败", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验配置, 返回所有错误
func (c Config) Validate() error {
	var err error
	if c.TargetSize[0] <= 0 || c.TargetSize[1] <= 0 {
		err = multierr.Append(err, errors.Wrapf(segcompare.ErrInvalidInput, "target_size 必须为正数: %v", c.TargetSize))
	}
	if c.InstanceScoreThreshold < 0 || c.InstanceScoreThreshold > 1 {
		err = multierr.Append(err, fmt.Errorf("instance_score_threshold 必须在 [0, 1] 内: %v", c.InstanceScoreThreshold))
	}
	if c.OutputDir == "" {
		err = multierr.Append(err, fmt.Errorf("output_dir 不能为空"))
	}
	if c.Quality < 0 || c.Quality > 100 {
		err = multierr.Append(err, fmt.Errorf("quality 必须在 [0, 100] 内: %d", c.Quality))
	}
	if _, e := letterbox.ParseFilter(c.ImageFilter); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := overlay.ParsePaletteMode(c.Palette); e != nil {
		err = multierr.Append(err, e)
	}
	if _, e := figure.ParseFormat(c.OutputFormat); e != nil {
		err = multierr.Append(err, e)
	}
	switch c.Semantic.Backend {
	case BackendONNX, BackendFake:
	default:
		err = multierr.Append(err, fmt.Errorf("未知的语义分割后端: %q", c.Semantic.Backend))
	}
	switch c.Instance.Backend {
	case BackendMaskRCNN, BackendYOLO, BackendFake:
	default:
		err = multierr.Append(err, fmt.Errorf("未知的实例分割后端: %q", c.Instance.Backend))
	}
	if c.Onnx.NumThreads < 0 {
		err = multierr.Append(err, fmt.Errorf("onnx.num_threads 不能为负数: %d", c.Onnx.NumThreads))
	}
	return err
}

// WithImages 返回替换了图片列表的副本
func (c Config) WithImages(images ...string) Config {
	c.Images = append([]string(nil), images...)
	return c
}

// ImageList 图片列表的副本
func (c Config) ImageList() []string {
	return append([]string(nil), c.Images...)
}

// Target 画布尺寸
func (c Config) Target() letterbox.Size {
	return letterbox.Size{Width: c.TargetSize[0], Height: c.TargetSize[1]}
}

// Filter 彩色图的缩放方式, 配置非法时为 FilterLinear
func (c Config) Filter() letterbox.Filter {
	f, err := letterbox.ParseFilter(c.ImageFilter)
	if err != nil {
		return letterbox.FilterLinear
	}
	return f
}

// PaletteMode 实例调色方式, 配置非法时为 PaletteIndex
func (c Config) PaletteMode() overlay.PaletteMode {
	m, err := overlay.ParsePaletteMode(c.Palette)
	if err != nil {
		return overlay.PaletteIndex
	}
	return m
}

// Format 输出格式, 配置非法时为 PNG
func (c Config) Format() figure.Format {
	f, err := figure.ParseFormat(c.OutputFormat)
	if err != nil {
		return figure.FormatPNG
	}
	return f
}
