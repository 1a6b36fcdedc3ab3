package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"order-prefill/internal/audit"
	"order-prefill/internal/config"
	"order-prefill/internal/engine"
	"order-prefill/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 组装引擎与 HTTP 服务并阻塞到收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("预填服务已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.Int("port", a.cfg.Server.Port),
	)

	if a.cfg.Database.SeedDemoData {
		if err := a.store.SeedDemoData(ctx); err != nil {
			return fmt.Errorf("填充演示数据失败: %w", err)
		}
	}

	eng, err := engine.New(a.cfg.Engine, a.store, a.logger)
	if err != nil {
		return fmt.Errorf("初始化预填引擎失败: %w", err)
	}

	auditSvc, err := audit.NewService(a.store, a.logger)
	if err != nil {
		return fmt.Errorf("初始化审计服务失败: %w", err)
	}

	handler := newRouter(a.cfg.Server, eng, a.store, auditSvc, a.logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	a.logger.Info("HTTP 服务已启动", zap.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			a.logger.Warn("关闭 HTTP 服务失败", zap.Error(shutdownErr))
		}
		a.logger.Info("系统收到退出信号，正在停止")
		return nil
	case serveErr := <-errCh:
		return fmt.Errorf("HTTP 服务异常: %w", serveErr)
	}
}
