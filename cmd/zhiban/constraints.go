package main

import (
	"github.com/spf13/cobra"

	"github.com/zhiban/zhiban/internal/constraints"
)

var constraintsOut string

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "列出支持的约束类型",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(constraintsOut, constraints.Library())
	},
}

func init() {
	constraintsCmd.Flags().StringVar(&constraintsOut, "out", "", "结果输出文件（默认标准输出）")
	rootCmd.AddCommand(constraintsCmd)
}
