// Package main 命令行入口
//
//	segcompare [image]
//
// 指定图片时只处理该图片, 否则处理配置中的图片列表. 配置文件路径由环境变量
// SEGCOMPARE_CONFIG 指定, 未设置时使用默认配置.
package main

import (
	"context"
	"fmt"
	"github.com/getcharzp/go-segcompare"
	"github.com/getcharzp/go-segcompare/config"
	"github.com/getcharzp/go-segcompare/pipeline"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"os"
	"os/signal"
	"syscall"
)

// ConfigEnv 配置文件路径的环境变量
const ConfigEnv = "SEGCOMPARE_CONFIG"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "segcompare",
		Usage:           "compare semantic and instance segmentation on images",
		ArgsUsage:       "[image]",
		HideHelpCommand: true,
		Action:          run,
	}
}

// loadConfig 读取 SEGCOMPARE_CONFIG 指定的配置, 未设置时使用默认配置
func loadConfig() (config.Config, error) {
	path := os.Getenv(ConfigEnv)
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func run(c *cli.Context) (err error) {
	if c.Args().Len() > 1 {
		return errors.Errorf("最多只能指定一张图片, 实际 %d 个参数", c.Args().Len())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Args().Len() == 1 {
		cfg = cfg.WithImages(c.Args().First())
	}

	logger, err := segcompare.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		// stderr 上的 Sync 可能返回 EINVAL, 忽略
		_ = logger.Sync()
	}()

	p, closer, err := pipeline.Open(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "初始化失败")
	}
	defer func() {
		closer()
		err = multierr.Append(err, segcompare.Shutdown())
	}()

	images := cfg.ImageList()
	summary, runErr := p.Run(c.Context, images)
	if len(images) > 0 && summary.Succeeded == 0 {
		return errors.Wrap(runErr, "所有图片均处理失败")
	}
	if c.Context.Err() != nil {
		return c.Context.Err()
	}
	return nil
}
