// Package repository 提供数据访问层
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/zhiban/zhiban/pkg/model"
)

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, s *model.Shift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	rolesJSON, _ := json.Marshal(s.Roles)

	query := `
		INSERT INTO shifts (
			id, org_id, task_id, segment_id, team_id, start_at, end_at,
			assigned_person_ids, locked, cancelled, roles, required_count,
			min_rest_hours, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OrgID, s.TaskID, s.SegmentID, s.TeamID, s.Start, s.End,
		pq.Array(uuidStrings(s.AssignedPersonIDs)), s.Locked, s.Cancelled,
		rolesJSON, s.RequiredCount, s.MinRestHours, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}
	return nil
}

// ListByRange 获取单位在时间范围内的班次
func (r *ShiftRepository) ListByRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]*model.Shift, error) {
	query := shiftSelect + `
		WHERE org_id = $1 AND start_at < $3 AND end_at > $2 AND deleted_at IS NULL
		ORDER BY start_at, id`
	rows, err := r.db.QueryContext(ctx, query, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		s, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// SaveAssignments 回写求解结果（分配名单与锁定状态）
func (r *ShiftRepository) SaveAssignments(ctx context.Context, shifts []*model.Shift) error {
	query := `
		UPDATE shifts SET
			assigned_person_ids = $2, locked = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	now := time.Now()
	for _, s := range shifts {
		_, err := r.db.ExecContext(ctx, query,
			s.ID, pq.Array(uuidStrings(s.AssignedPersonIDs)), s.Locked, now)
		if err != nil {
			return fmt.Errorf("回写班次 %s 失败: %w", s.ID, err)
		}
	}
	return nil
}

const shiftSelect = `
	SELECT id, org_id, task_id, segment_id, team_id, start_at, end_at,
		assigned_person_ids, locked, cancelled, roles, required_count,
		min_rest_hours, created_at, updated_at
	FROM shifts`

// scanShift 扫描班次行
func (r *ShiftRepository) scanShift(row Scanner) (*model.Shift, error) {
	var s model.Shift
	var assigned pq.StringArray
	var rolesJSON []byte

	err := row.Scan(
		&s.ID, &s.OrgID, &s.TaskID, &s.SegmentID, &s.TeamID, &s.Start, &s.End,
		&assigned, &s.Locked, &s.Cancelled, &rolesJSON, &s.RequiredCount,
		&s.MinRestHours, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描班次失败: %w", err)
	}

	for _, raw := range assigned {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		s.AssignedPersonIDs = append(s.AssignedPersonIDs, id)
	}
	if len(rolesJSON) > 0 {
		_ = json.Unmarshal(rolesJSON, &s.Roles)
	}
	return &s, nil
}

// uuidStrings 转换 UUID 列表为字符串列表
func uuidStrings(ids []uuid.UUID) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = id.String()
	}
	return result
}
