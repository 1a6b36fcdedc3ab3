package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ClientProfile 描述客户的执行偏好。
type ClientProfile struct {
	CptyID           string  `json:"cpty_id"`
	ClientName       string  `json:"client_name"`
	UrgencyFactor    float64 `json:"urgency_factor"`
	PriceSensitivity string  `json:"price_sensitivity"`
	ExecutionModel   string  `json:"execution_model"`
}

// ClientProfile 按 cpty_id 返回客户档案，不存在时返回 ErrNotFound。
func (s *Store) ClientProfile(ctx context.Context, cptyID string) (ClientProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cpty_id, client_name, urgency_factor, price_sensitivity, execution_model
		 FROM client_profiles WHERE cpty_id = ?`,
		cptyID,
	)

	var profile ClientProfile
	err := row.Scan(&profile.CptyID, &profile.ClientName, &profile.UrgencyFactor,
		&profile.PriceSensitivity, &profile.ExecutionModel)
	if errors.Is(err, sql.ErrNoRows) {
		return ClientProfile{}, fmt.Errorf("客户 %s: %w", cptyID, ErrNotFound)
	}
	if err != nil {
		return ClientProfile{}, fmt.Errorf("查询客户档案失败: %w", err)
	}

	return profile, nil
}

// ListClients 返回全部客户档案，按 cpty_id 排序。
func (s *Store) ListClients(ctx context.Context) ([]ClientProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cpty_id, client_name, urgency_factor, price_sensitivity, execution_model
		 FROM client_profiles ORDER BY cpty_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("查询客户列表失败: %w", err)
	}
	defer rows.Close()

	profiles := make([]ClientProfile, 0, 8)
	for rows.Next() {
		var p ClientProfile
		if scanErr := rows.Scan(&p.CptyID, &p.ClientName, &p.UrgencyFactor,
			&p.PriceSensitivity, &p.ExecutionModel); scanErr != nil {
			return nil, fmt.Errorf("解析客户档案失败: %w", scanErr)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取客户列表失败: %w", err)
	}

	return profiles, nil
}

// UpsertClient 写入或覆盖客户档案。
func (s *Store) UpsertClient(ctx context.Context, profile ClientProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_profiles (cpty_id, client_name, urgency_factor, price_sensitivity, execution_model)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cpty_id) DO UPDATE SET
			client_name = excluded.client_name,
			urgency_factor = excluded.urgency_factor,
			price_sensitivity = excluded.price_sensitivity,
			execution_model = excluded.execution_model`,
		profile.CptyID, profile.ClientName, profile.UrgencyFactor,
		profile.PriceSensitivity, profile.ExecutionModel,
	)
	if err != nil {
		return fmt.Errorf("写入客户档案失败: %w", err)
	}
	return nil
}
