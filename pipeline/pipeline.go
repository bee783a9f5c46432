// Package pipeline 逐张处理图片: 读取, 语义/实例分割, 着色, 拼接对比图并保存
package pipeline

import (
	"context"
	"fmt"
	"github.com/disintegration/imaging"
	"github.com/getcharzp/go-segcompare"
	"github.com/getcharzp/go-segcompare/config"
	"github.com/getcharzp/go-segcompare/figure"
	"github.com/getcharzp/go-segcompare/letterbox"
	"github.com/getcharzp/go-segcompare/overlay"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"image"
	"os"
)

// SemanticSegmenter 语义分割: 输入画布, 返回同尺寸的类别图
type SemanticSegmenter interface {
	Infer(img image.Image) (*segcompare.LabelMap, error)
}

// InstanceSegmenter 实例分割: 输入画布, 返回画布坐标下的实例
type InstanceSegmenter interface {
	Infer(img image.Image) ([]segcompare.Instance, error)
}

// 对比图各栏标题
const (
	TitleOriginal = "Original"
	TitleSemantic = "Semantic Segmentation"
	TitleInstance = "Instance Segmentation"
)

// Pipeline 图片处理流程
type Pipeline struct {
	cfg    config.Config
	sem    SemanticSegmenter
	inst   InstanceSegmenter
	logger *zap.SugaredLogger
}

// Summary 批处理结果统计
type Summary struct {
	Succeeded int
	Failed    int
}

// New 创建处理流程
//
// # Params:
//
//	cfg: 运行配置 (需已通过 Validate)
//	sem: 语义分割器
//	inst: 实例分割器
//	logger: 日志, 为空时不输出
func New(cfg config.Config, sem SemanticSegmenter, inst InstanceSegmenter, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{
		cfg:    cfg,
		sem:    sem,
		inst:   inst,
		logger: logger,
	}
}

// LoadImage 读取图片 (按 EXIF 方向旋转), 统一转为不透明的 NRGBA
func LoadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(segcompare.ErrInvalidInput, "读取图片 %s 失败: %v", path, err)
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrapf(segcompare.ErrInvalidInput, "图片 %s 尺寸为 0", path)
	}

	// 丢弃透明通道, 只保留 RGB
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst, nil
}

// ProcessImage 处理单张图片, 返回结果文件路径
func (p *Pipeline) ProcessImage(path string) (string, error) {
	img, err := LoadImage(path)
	if err != nil {
		return "", err
	}

	filter := p.cfg.Filter()
	canvas, crop, orig, err := letterbox.PadAndResize(img, p.cfg.Target(), filter)
	if err != nil {
		return "", err
	}
	p.logger.Debugf("%s: 原图 %dx%d, 内容区域 %v", path, orig.Width, orig.Height, crop.Rect())

	// 语义分割
	labels, err := p.sem.Infer(canvas)
	if err != nil {
		return "", segcompare.InferenceError(fmt.Errorf("语义分割: %w", err))
	}
	if labels == nil || labels.Width != canvas.Bounds().Dx() || labels.Height != canvas.Bounds().Dy() {
		return "", segcompare.InferenceError(fmt.Errorf("语义分割结果尺寸与画布 %v 不一致", canvas.Bounds().Size()))
	}
	p.logger.Debugf("%s: 前景占比 %.3f", path, letterbox.CropLabels(labels, crop, orig).Foreground())
	semantic := letterbox.CropToOriginal(overlay.Semantic(labels), crop, orig, letterbox.FilterNearest)

	// 实例分割
	dets, err := p.inst.Infer(canvas)
	if err != nil {
		return "", segcompare.InferenceError(fmt.Errorf("实例分割: %w", err))
	}
	kept := segcompare.FilterByScore(dets, p.cfg.InstanceScoreThreshold)
	p.logger.Debugf("%s: 检测到 %d 个实例, 分数大于 %.2f 的 %d 个", path, len(dets), p.cfg.InstanceScoreThreshold, len(kept))

	instance, err := p.renderInstances(canvas, kept)
	if err != nil {
		return "", err
	}
	instance = letterbox.CropToOriginal(instance, crop, orig, filter)

	original := letterbox.CropToOriginal(canvas, crop, orig, filter)

	// 拼接并保存
	figOpts := figure.DefaultOptions()
	figOpts.FontPath = p.cfg.FontPath
	fig, err := figure.Compose([]figure.Panel{
		{Title: TitleOriginal, Image: original},
		{Title: TitleSemantic, Image: semantic},
		{Title: TitleInstance, Image: instance},
	}, figOpts)
	if err != nil {
		return "", errors.Wrap(err, "绘制对比图失败")
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "创建目录 %s 失败", p.cfg.OutputDir)
	}
	format := p.cfg.Format()
	output := figure.OutputPath(p.cfg.OutputDir, path, p.cfg.OutputSuffix, format)
	if err := figure.Save(fig, output, format, p.cfg.Quality); err != nil {
		return "", errors.Wrapf(err, "保存 %s 失败", output)
	}
	p.logger.Infof("Result saved: %s", output)
	return output, nil
}

// renderInstances 在画布上混合实例颜色
func (p *Pipeline) renderInstances(canvas *image.NRGBA, dets []segcompare.Instance) (*image.NRGBA, error) {
	opts := overlay.DefaultInstanceOptions()
	opts.Mode = p.cfg.PaletteMode()
	opts.DrawBoxes = p.cfg.DrawBoxes
	if opts.DrawBoxes {
		td, err := segcompare.NewTextDrawer(p.cfg.FontPath)
		if err != nil {
			return nil, err
		}
		defer td.Close()
		opts.Labeler = td
	}
	return overlay.Instances(canvas, dets, opts), nil
}

// Run 按顺序处理所有图片, 单张失败只记录日志并继续
//
// 返回成功/失败数量以及所有失败原因的合并错误; ctx 取消后不再处理剩余图片
func (p *Pipeline) Run(ctx context.Context, paths []string) (Summary, error) {
	var (
		summary Summary
		errs    error
	)
	p.logger.Info("=== Starting image processing ===")
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if _, err := p.ProcessImage(path); err != nil {
			p.logger.Errorf("Error processing %s: %v", path, err)
			summary.Failed++
			errs = multierr.Append(errs, errors.Wrap(err, path))
			continue
		}
		summary.Succeeded++
	}
	p.logger.Infow("Processing complete!", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, errs
}
