package pipeline

import (
	"fmt"
	"github.com/getcharzp/go-segcompare/config"
	"github.com/getcharzp/go-segcompare/deeplab"
	"github.com/getcharzp/go-segcompare/fake"
	"github.com/getcharzp/go-segcompare/maskrcnn"
	"github.com/getcharzp/go-segcompare/yoloseg"
	"go.uber.org/zap"
)

// Open 按配置创建分割器和处理流程, 返回的 closer 负责释放所有引擎
//
// closer 不会释放 ONNX Runtime 环境, 进程退出前由调用方执行 segcompare.Shutdown
func Open(cfg config.Config, logger *zap.SugaredLogger) (*Pipeline, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	sem, err := openSemantic(cfg, &closers)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	inst, err := openInstance(cfg, &closers)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	logger.Infof("语义分割后端: %s, 实例分割后端: %s, seed: %d", cfg.Semantic.Backend, cfg.Instance.Backend, cfg.Seed)

	return New(cfg, sem, inst, logger), closeAll, nil
}

func openSemantic(cfg config.Config, closers *[]func()) (SemanticSegmenter, error) {
	switch cfg.Semantic.Backend {
	case config.BackendFake:
		return &fake.Semantic{}, nil
	case config.BackendONNX:
		dc := deeplab.DefaultConfig()
		if cfg.Semantic.ModelPath != "" {
			dc.ModelPath = cfg.Semantic.ModelPath
		}
		dc.OnnxRuntimeLibPath = cfg.Onnx.LibPath
		dc.UseCuda = cfg.Onnx.UseCuda
		dc.NumThreads = cfg.Onnx.NumThreads

		engine, err := deeplab.NewEngine(dc)
		if err != nil {
			return nil, fmt.Errorf("初始化语义分割引擎失败: %w", err)
		}
		*closers = append(*closers, engine.Destroy)
		return engine, nil
	}
	return nil, fmt.Errorf("未知的语义分割后端: %q", cfg.Semantic.Backend)
}

func openInstance(cfg config.Config, closers *[]func()) (InstanceSegmenter, error) {
	switch cfg.Instance.Backend {
	case config.BackendFake:
		return &fake.Instance{Seed: cfg.Seed, Count: cfg.Instance.FakeCount}, nil
	case config.BackendMaskRCNN:
		mc := maskrcnn.DefaultConfig()
		if cfg.Instance.ModelPath != "" {
			mc.ModelPath = cfg.Instance.ModelPath
		}
		mc.OnnxRuntimeLibPath = cfg.Onnx.LibPath
		mc.UseCuda = cfg.Onnx.UseCuda
		mc.NumThreads = cfg.Onnx.NumThreads

		engine, err := maskrcnn.NewEngine(mc)
		if err != nil {
			return nil, fmt.Errorf("初始化实例分割引擎失败: %w", err)
		}
		*closers = append(*closers, engine.Destroy)
		return engine, nil
	case config.BackendYOLO:
		yc := yoloseg.DefaultConfig()
		if cfg.Instance.ModelPath != "" {
			yc.ModelPath = cfg.Instance.ModelPath
		}
		yc.OnnxRuntimeLibPath = cfg.Onnx.LibPath
		yc.UseCuda = cfg.Onnx.UseCuda
		yc.NumThreads = cfg.Onnx.NumThreads

		engine, err := yoloseg.NewEngine(yc)
		if err != nil {
			return nil, fmt.Errorf("初始化实例分割引擎失败: %w", err)
		}
		*closers = append(*closers, engine.Destroy)
		return engine, nil
	}
	return nil, fmt.Errorf("未知的实例分割后端: %q", cfg.Instance.Backend)
}
