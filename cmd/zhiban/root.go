package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/internal/database"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

var (
	cfgPath     string
	metricsAddr string
	logLevel    string

	cfg *config.Config

	// 指标服务关闭函数（启用时设置）
	metricsShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "zhiban",
	Short: "值班排班引擎",
	Long: `值班排班引擎：对单位状态快照求解班次分配，
并生成多日在营/归家轮换排班。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.App.LogLevel = logLevel
		}
		logger.Init(cfg.LoggerConfig())

		if metricsAddr != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = metricsAddr
		}
		if cfg.Metrics.Enabled {
			metricsShutdown = metrics.Serve(cfg.Metrics.Addr, cfg.Metrics.Path)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = metricsShutdown(ctx)
		}
	},
}

// Execute 运行根命令
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Msg("命令执行失败")
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "配置文件路径 (yaml/json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "指标服务监听地址（设置后启用）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug/info/warn/error)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zhiban v%s\n", Version)
		fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	},
}

// loadState 加载单位状态快照
// 优先从快照文件读取，否则按单位 ID 从数据库装配；
// 从数据库装配时返回连接供回写使用
func loadState(ctx context.Context, snapshotPath, orgIDStr string, from, to time.Time) (*model.OrgState, *database.DB, func(), error) {
	noop := func() {}

	if snapshotPath != "" {
		data, err := os.ReadFile(snapshotPath)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("读取快照文件失败: %w", err)
		}
		state := &model.OrgState{Settings: model.DefaultSettings()}
		if err := json.Unmarshal(data, state); err != nil {
			return nil, nil, noop, fmt.Errorf("解析快照文件失败: %w", err)
		}
		state.BuildIndexes()
		return state, nil, noop, nil
	}

	if orgIDStr == "" {
		return nil, nil, noop, fmt.Errorf("需要 --snapshot 或 --org 之一")
	}
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("单位 ID 无效: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, noop, err
	}
	cleanup := func() { _ = db.Close() }

	state, err := repository.NewSnapshotRepository(db).LoadOrgState(ctx, orgID, from, to)
	if err != nil {
		cleanup()
		return nil, nil, noop, err
	}
	return state, db, cleanup, nil
}

// writeOutput 将结果写为 JSON（路径为空时写标准输出）
func writeOutput(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写出结果失败: %w", err)
	}
	return nil
}
