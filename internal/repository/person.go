// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// PersonRepository 人员仓储
type PersonRepository struct {
	db DB
}

// NewPersonRepository 创建人员仓储
func NewPersonRepository(db DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// Create 创建人员
func (r *PersonRepository) Create(ctx context.Context, p *model.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	rolesJSON, _ := json.Marshal(p.RoleIDs)
	overridesJSON, _ := json.Marshal(p.DailyOverrides)
	rotationJSON, _ := json.Marshal(p.Rotation)
	fieldsJSON, _ := json.Marshal(p.CustomFields)

	query := `
		INSERT INTO people (
			id, org_id, name, code, status, role_ids, team_id,
			daily_overrides, rotation, custom_fields, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.Name, p.Code, p.Status, rolesJSON, p.TeamID,
		overridesJSON, rotationJSON, fieldsJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取人员
func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	query := personSelect + ` WHERE id = $1 AND deleted_at IS NULL`
	return r.scanPerson(r.db.QueryRowContext(ctx, query, id))
}

// ListByOrg 获取单位全部人员
func (r *PersonRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*model.Person, error) {
	query := personSelect + ` WHERE org_id = $1 AND deleted_at IS NULL ORDER BY code, id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("查询人员列表失败: %w", err)
	}
	defer rows.Close()

	var people []*model.Person
	for rows.Next() {
		p, err := r.scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// Update 更新人员
func (r *PersonRepository) Update(ctx context.Context, p *model.Person) error {
	p.UpdatedAt = time.Now()

	rolesJSON, _ := json.Marshal(p.RoleIDs)
	overridesJSON, _ := json.Marshal(p.DailyOverrides)
	rotationJSON, _ := json.Marshal(p.Rotation)
	fieldsJSON, _ := json.Marshal(p.CustomFields)

	query := `
		UPDATE people SET
			name = $2, code = $3, status = $4, role_ids = $5, team_id = $6,
			daily_overrides = $7, rotation = $8, custom_fields = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Code, p.Status, rolesJSON, p.TeamID,
		overridesJSON, rotationJSON, fieldsJSON, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}
	return nil
}

// Delete 软删除人员
func (r *PersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE people SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}
	return nil
}

const personSelect = `
	SELECT id, org_id, name, code, status, role_ids, team_id,
		daily_overrides, rotation, custom_fields, created_at, updated_at
	FROM people`

// scanPerson 扫描人员行
func (r *PersonRepository) scanPerson(row Scanner) (*model.Person, error) {
	var p model.Person
	var rolesJSON, overridesJSON, rotationJSON, fieldsJSON []byte

	err := row.Scan(
		&p.ID, &p.OrgID, &p.Name, &p.Code, &p.Status, &rolesJSON, &p.TeamID,
		&overridesJSON, &rotationJSON, &fieldsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("人员不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("扫描人员失败: %w", err)
	}

	if len(rolesJSON) > 0 {
		_ = json.Unmarshal(rolesJSON, &p.RoleIDs)
	}
	if len(overridesJSON) > 0 {
		_ = json.Unmarshal(overridesJSON, &p.DailyOverrides)
	}
	if len(rotationJSON) > 0 && string(rotationJSON) != "null" {
		_ = json.Unmarshal(rotationJSON, &p.Rotation)
	}
	if len(fieldsJSON) > 0 {
		_ = json.Unmarshal(fieldsJSON, &p.CustomFields)
	}
	return &p, nil
}
