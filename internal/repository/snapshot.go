// Package repository 提供数据访问层
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// SnapshotRepository 状态快照仓储
// 将单位的全部排班数据装配成引擎输入的状态快照
type SnapshotRepository struct {
	db      DB
	people  *PersonRepository
	shifts  *ShiftRepository
}

// NewSnapshotRepository 创建状态快照仓储
func NewSnapshotRepository(db DB) *SnapshotRepository {
	return &SnapshotRepository{
		db:     db,
		people: NewPersonRepository(db),
		shifts: NewShiftRepository(db),
	}
}

// LoadOrgState 装配单位状态快照
// from/to 限定班次的时间范围，其余集合全量加载
func (r *SnapshotRepository) LoadOrgState(ctx context.Context, orgID uuid.UUID, from, to time.Time) (*model.OrgState, error) {
	state := &model.OrgState{OrgID: orgID, Settings: model.DefaultSettings()}

	if err := r.loadSettings(ctx, orgID, state); err != nil {
		return nil, err
	}

	var err error
	if state.People, err = r.people.ListByOrg(ctx, orgID); err != nil {
		return nil, err
	}
	if state.Shifts, err = r.shifts.ListByRange(ctx, orgID, from, to); err != nil {
		return nil, err
	}
	if err = r.loadRoles(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadTeams(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadTaskTemplates(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadConstraints(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadAbsences(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadBlockages(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadRotations(ctx, orgID, state); err != nil {
		return nil, err
	}
	if err = r.loadInterPerson(ctx, orgID, state); err != nil {
		return nil, err
	}

	state.BuildIndexes()
	return state, nil
}

// loadSettings 加载单位排班设置
func (r *SnapshotRepository) loadSettings(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	var settingsJSON []byte
	query := `SELECT settings FROM organizations WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(&settingsJSON)
	if err != nil {
		return fmt.Errorf("加载单位设置失败: %w", err)
	}
	if len(settingsJSON) > 0 {
		_ = json.Unmarshal(settingsJSON, &state.Settings)
	}
	return nil
}

// loadRoles 加载角色
func (r *SnapshotRepository) loadRoles(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `SELECT id, org_id, name, code FROM roles WHERE org_id = $1 AND deleted_at IS NULL ORDER BY code, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询角色失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.OrgID, &role.Name, &role.Code); err != nil {
			return fmt.Errorf("扫描角色失败: %w", err)
		}
		state.Roles = append(state.Roles, &role)
	}
	return rows.Err()
}

// loadTeams 加载团队
func (r *SnapshotRepository) loadTeams(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `SELECT id, org_id, name, code FROM teams WHERE org_id = $1 AND deleted_at IS NULL ORDER BY code, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询团队失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var team model.Team
		if err := rows.Scan(&team.ID, &team.OrgID, &team.Name, &team.Code); err != nil {
			return fmt.Errorf("扫描团队失败: %w", err)
		}
		state.Teams = append(state.Teams, &team)
	}
	return rows.Err()
}

// loadTaskTemplates 加载任务模板（分段存 JSONB 列）
func (r *SnapshotRepository) loadTaskTemplates(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, name, code, description, difficulty, continuous, segments, is_active
		FROM task_templates WHERE org_id = $1 AND deleted_at IS NULL ORDER BY code, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询任务模板失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t model.TaskTemplate
		var segmentsJSON []byte
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Code, &t.Description,
			&t.Difficulty, &t.Continuous, &segmentsJSON, &t.IsActive); err != nil {
			return fmt.Errorf("扫描任务模板失败: %w", err)
		}
		if len(segmentsJSON) > 0 {
			_ = json.Unmarshal(segmentsJSON, &t.Segments)
		}
		state.TaskTemplates = append(state.TaskTemplates, &t)
	}
	return rows.Err()
}

// loadConstraints 加载排班约束
func (r *SnapshotRepository) loadConstraints(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, type, scope, scope_id, window, task_id, reason
		FROM scheduling_constraints WHERE org_id = $1 AND deleted_at IS NULL ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询排班约束失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.SchedulingConstraint
		var windowJSON []byte
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Type, &c.Scope, &c.ScopeID,
			&windowJSON, &c.TaskID, &c.Reason); err != nil {
			return fmt.Errorf("扫描排班约束失败: %w", err)
		}
		if len(windowJSON) > 0 && string(windowJSON) != "null" {
			_ = json.Unmarshal(windowJSON, &c.Window)
		}
		state.Constraints = append(state.Constraints, &c)
	}
	return rows.Err()
}

// loadAbsences 加载请假记录
func (r *SnapshotRepository) loadAbsences(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, person_id, start_date, end_date, status, reason
		FROM absences WHERE org_id = $1 AND deleted_at IS NULL ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询请假记录失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Absence
		if err := rows.Scan(&a.ID, &a.OrgID, &a.PersonID, &a.StartDate,
			&a.EndDate, &a.Status, &a.Reason); err != nil {
			return fmt.Errorf("扫描请假记录失败: %w", err)
		}
		state.Absences = append(state.Absences, &a)
	}
	return rows.Err()
}

// loadBlockages 加载小时级封锁
func (r *SnapshotRepository) loadBlockages(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, person_id, date, start_time, end_time, reason
		FROM hourly_blockages WHERE org_id = $1 AND deleted_at IS NULL ORDER BY date, start_time, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询小时级封锁失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b model.HourlyBlockage
		if err := rows.Scan(&b.ID, &b.OrgID, &b.PersonID, &b.Date,
			&b.StartTime, &b.EndTime, &b.Reason); err != nil {
			return fmt.Errorf("扫描小时级封锁失败: %w", err)
		}
		state.Blockages = append(state.Blockages, &b)
	}
	return rows.Err()
}

// loadRotations 加载团队轮换模式
func (r *SnapshotRepository) loadRotations(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, team_id, base_days, home_days, start_date
		FROM team_rotations WHERE org_id = $1 AND deleted_at IS NULL ORDER BY team_id, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询团队轮换失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rot model.TeamRotation
		if err := rows.Scan(&rot.ID, &rot.OrgID, &rot.TeamID, &rot.BaseDays,
			&rot.HomeDays, &rot.StartDate); err != nil {
			return fmt.Errorf("扫描团队轮换失败: %w", err)
		}
		state.Rotations = append(state.Rotations, &rot)
	}
	return rows.Err()
}

// loadInterPerson 加载人际互斥约束
func (r *SnapshotRepository) loadInterPerson(ctx context.Context, orgID uuid.UUID, state *model.OrgState) error {
	query := `
		SELECT id, org_id, type, selector_a, value_a, selector_b, value_b, reason
		FROM inter_person_constraints WHERE org_id = $1 AND deleted_at IS NULL ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("查询人际互斥约束失败: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.InterPersonConstraint
		var selA, selB []byte
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Type, &selA, &c.ValueA,
			&selB, &c.ValueB, &c.Reason); err != nil {
			return fmt.Errorf("扫描人际互斥约束失败: %w", err)
		}
		if len(selA) > 0 {
			_ = json.Unmarshal(selA, &c.SelectorA)
		}
		if len(selB) > 0 {
			_ = json.Unmarshal(selB, &c.SelectorB)
		}
		state.InterPerson = append(state.InterPerson, &c)
	}
	return rows.Err()
}
