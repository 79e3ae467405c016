package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/pkg/scheduler/availability"
	"github.com/zhiban/zhiban/pkg/scheduler/solver"
	"github.com/zhiban/zhiban/pkg/stats"
	"github.com/zhiban/zhiban/pkg/validator"
)

var (
	solveSnapshot      string
	solveOrg           string
	solveDate          string
	solveEndDate       string
	solveStrictOrganic bool
	solveVersion       int
	solveOut           string
	solveSave          bool
)

// solveOutput 求解命令输出
type solveOutput struct {
	Result    *solver.SolveResult    `json:"result"`
	Conflicts []validator.Conflict   `json:"conflicts,omitempty"`
	Fairness  *stats.FairnessMetrics `json:"fairness,omitempty"`
	Coverage  *stats.CoverageMetrics `json:"coverage,omitempty"`
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "求解班次分配",
	Long: `对目标日期（或日期区间）的班次求解人员分配，
输出分配结果、失败诊断、负载与公平性统计。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if solveDate == "" {
			solveDate = time.Now().Format("2006-01-02")
		}
		start, err := time.ParseInLocation("2006-01-02", solveDate, time.Local)
		if err != nil {
			return fmt.Errorf("日期无效 %q: %w", solveDate, err)
		}
		end := start.AddDate(0, 0, 1)
		if solveEndDate != "" {
			parsed, err := time.ParseInLocation("2006-01-02", solveEndDate, time.Local)
			if err != nil {
				return fmt.Errorf("日期无效 %q: %w", solveEndDate, err)
			}
			end = parsed.AddDate(0, 0, 1)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Engine.Timeout)
		defer cancel()

		state, db, cleanup, err := loadState(ctx, solveSnapshot, solveOrg, start, end)
		if err != nil {
			return err
		}
		defer cleanup()

		version := availability.EngineVersion(solveVersion)
		if solveVersion == 0 {
			version = availability.EngineVersion(cfg.Engine.Version)
		}

		engine := solver.NewEngine()
		result, err := engine.Solve(ctx, &solver.SolveInput{
			State:         state,
			StartDate:     solveDate,
			EndDate:       solveEndDate,
			StrictOrganic: solveStrictOrganic || cfg.Engine.StrictOrganic,
			Version:       version,
		})

		if cfg.Metrics.Enabled {
			m := metrics.Get()
			if err != nil {
				m.ObserveSolve(0, 0, 0, false)
			} else {
				m.ObserveSolve(result.Duration, result.Stats.FilledSlots, result.Stats.TotalSlots, true)
				for _, f := range result.Failures {
					m.ObserveFailure(string(f.Reason))
				}
			}
		}
		if err != nil {
			return err
		}

		output := &solveOutput{
			Result:    result,
			Conflicts: validator.NewConflictDetector(nil).DetectAll(result.Shifts, state),
			Fairness:  stats.NewFairnessAnalyzer(state.Settings).Analyze(result.Loads, result.Shifts),
			Coverage:  stats.NewCoverageAnalyzer().AnalyzeShifts(result.Shifts),
		}

		if solveSave {
			if db == nil {
				return fmt.Errorf("--save 仅在数据库输入下可用")
			}
			// 整批分配在一个事务内回写
			err := db.Transaction(ctx, func(tx *sql.Tx) error {
				return repository.NewShiftRepository(tx).SaveAssignments(ctx, result.Shifts)
			})
			if err != nil {
				return err
			}
		}
		return writeOutput(solveOut, output)
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveSnapshot, "snapshot", "", "状态快照 JSON 文件")
	solveCmd.Flags().StringVar(&solveOrg, "org", "", "单位 ID（从数据库装配快照）")
	solveCmd.Flags().StringVar(&solveDate, "date", "", "目标日期 YYYY-MM-DD（默认今天）")
	solveCmd.Flags().StringVar(&solveEndDate, "end", "", "结束日期 YYYY-MM-DD（含，连排时设置）")
	solveCmd.Flags().BoolVar(&solveStrictOrganic, "strict-organic", false, "保持团队建制（缺口转建议，不跨团队补位）")
	solveCmd.Flags().IntVar(&solveVersion, "engine-version", 0, "出勤语义版本 1/2（默认取配置）")
	solveCmd.Flags().StringVar(&solveOut, "out", "", "结果输出文件（默认标准输出）")
	solveCmd.Flags().BoolVar(&solveSave, "save", false, "回写分配结果到数据库")
}
