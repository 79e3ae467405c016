// Package repository 提供数据访问层
//
// 各仓储只依赖最小的 DB 接口，*sql.DB、*sql.Tx 与
// database.DB 均可直接传入，批量写入可整体放进事务。
package repository

import (
	"context"
	"database/sql"
)

// DB 数据库执行接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口，*sql.Row 与 *sql.Rows 均满足
type Scanner interface {
	Scan(dest ...interface{}) error
}
