// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// RosterRepository 轮换排班仓储
type RosterRepository struct {
	db DB
}

// NewRosterRepository 创建轮换排班仓储
func NewRosterRepository(db DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// SaveEntries 批量保存轮换条目（同人同日覆盖写入）
func (r *RosterRepository) SaveEntries(ctx context.Context, orgID uuid.UUID, entries []model.RosterEntry) error {
	query := `
		INSERT INTO roster_entries (id, org_id, person_id, date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, person_id, date)
		DO UPDATE SET status = EXCLUDED.status, created_at = EXCLUDED.created_at
	`
	now := time.Now()
	for _, e := range entries {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New(), orgID, e.PersonID, e.Date, e.Status, now)
		if err != nil {
			return fmt.Errorf("保存轮换条目失败: %w", err)
		}
	}
	return nil
}

// ListEntries 查询日期范围内的轮换条目
func (r *RosterRepository) ListEntries(ctx context.Context, orgID uuid.UUID, from, to string) ([]model.RosterEntry, error) {
	query := `
		SELECT person_id, date, status FROM roster_entries
		WHERE org_id = $1 AND date >= $2 AND date <= $3
		ORDER BY person_id, date
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("查询轮换条目失败: %w", err)
	}
	defer rows.Close()

	var entries []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.PersonID, &e.Date, &e.Status); err != nil {
			return nil, fmt.Errorf("扫描轮换条目失败: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadHistory 加载排班衔接历史
// 取 before 之前每人最近的连续同状态天数，供下一轮排班衔接
func (r *RosterRepository) LoadHistory(ctx context.Context, orgID uuid.UUID, before string) (map[uuid.UUID]model.ContinuationHistory, error) {
	query := `
		SELECT person_id, date, status FROM roster_entries
		WHERE org_id = $1 AND date < $2
		ORDER BY person_id, date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, orgID, before)
	if err != nil {
		return nil, fmt.Errorf("查询排班历史失败: %w", err)
	}
	defer rows.Close()

	history := make(map[uuid.UUID]model.ContinuationHistory)
	var currentPerson uuid.UUID
	var counting bool
	for rows.Next() {
		var personID uuid.UUID
		var date string
		var status model.RosterStatus
		if err := rows.Scan(&personID, &date, &status); err != nil {
			return nil, fmt.Errorf("扫描排班历史失败: %w", err)
		}

		if personID != currentPerson {
			currentPerson = personID
			counting = status == model.RosterBase || status == model.RosterHome
			if counting {
				history[personID] = model.ContinuationHistory{LastStatus: status, ConsecutiveDays: 1}
			}
			continue
		}
		if !counting {
			continue
		}
		h := history[personID]
		if status == h.LastStatus {
			h.ConsecutiveDays++
			history[personID] = h
		} else {
			counting = false
		}
	}
	return history, rows.Err()
}
