package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/roster"
	"github.com/zhiban/zhiban/pkg/stats"
)

var (
	rosterSnapshot string
	rosterOrg      string
	rosterStart    string
	rosterDays     int
	rosterRatio    float64
	rosterOut      string
	rosterSave     bool
)

// rosterOutput 轮换排班命令输出
type rosterOutput struct {
	Result       *roster.GenerateResult `json:"result"`
	Understaffed []stats.StaffingDay    `json:"understaffed,omitempty"`
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "生成轮换排班",
	Long: `按 14 天周期生成多日在营/归家轮换排班，
修复周六进出营并校验不可用约束。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rosterStart == "" {
			rosterStart = time.Now().Format("2006-01-02")
		}
		start, err := time.ParseInLocation("2006-01-02", rosterStart, time.Local)
		if err != nil {
			return fmt.Errorf("日期无效 %q: %w", rosterStart, err)
		}
		days := rosterDays
		if days <= 0 {
			days = cfg.Roster.Days
		}
		if days <= 0 {
			days = roster.CycleLength
		}
		end := start.AddDate(0, 0, days)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.Timeout)
		defer cancel()

		state, db, cleanup, err := loadState(ctx, rosterSnapshot, rosterOrg, start, end)
		if err != nil {
			return err
		}
		defer cleanup()

		input := &roster.GenerateInput{
			State:             state,
			StartDate:         rosterStart,
			Days:              days,
			BaseRatioOverride: rosterRatio,
		}
		if rosterRatio == 0 {
			input.BaseRatioOverride = cfg.Roster.BaseRatioOverride
		}

		// 数据库输入时带上排班衔接历史
		if db != nil {
			history, err := repository.NewRosterRepository(db).LoadHistory(ctx, state.OrgID, rosterStart)
			if err != nil {
				return err
			}
			input.History = history
		}

		result, err := roster.NewGenerator().Generate(ctx, input)
		if cfg.Metrics.Enabled {
			m := metrics.Get()
			if err != nil {
				m.ObserveRoster(0, 0, false)
			} else {
				m.ObserveRoster(result.Duration, result.Stats.FulfillmentRate, true)
			}
		}
		if err != nil {
			return err
		}

		output := &rosterOutput{
			Result: result,
			Understaffed: stats.NewCoverageAnalyzer().
				AnalyzeRoster(result.Entries, state.Settings.MinDailyStaff),
		}

		if rosterSave {
			if db == nil {
				return fmt.Errorf("--save 仅在数据库输入下可用")
			}
			// 整批条目在一个事务内落库
			err := db.Transaction(ctx, func(tx *sql.Tx) error {
				return repository.NewRosterRepository(tx).SaveEntries(ctx, state.OrgID, result.Entries)
			})
			if err != nil {
				return err
			}
		}
		return writeOutput(rosterOut, output)
	},
}

func init() {
	rosterCmd.Flags().StringVar(&rosterSnapshot, "snapshot", "", "状态快照 JSON 文件")
	rosterCmd.Flags().StringVar(&rosterOrg, "org", "", "单位 ID（从数据库装配快照）")
	rosterCmd.Flags().StringVar(&rosterStart, "start", "", "起始日期 YYYY-MM-DD（默认今天）")
	rosterCmd.Flags().IntVar(&rosterDays, "days", 0, "排班天数（默认一个周期）")
	rosterCmd.Flags().Float64Var(&rosterRatio, "ratio", 0, "在营比例覆盖（0 表示按轮换模式推算）")
	rosterCmd.Flags().StringVar(&rosterOut, "out", "", "结果输出文件（默认标准输出）")
	rosterCmd.Flags().BoolVar(&rosterSave, "save", false, "保存轮换条目到数据库")
}
