package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/store"
)

const ruleColumns = `id, guid, name, position, provider_type, provider_params, updated_at`

type ruleRepository struct {
	db *sql.DB
}

func newRuleRepository(db *sql.DB) *ruleRepository {
	return &ruleRepository{db: db}
}

func scanRule(scanner interface{ Scan(...any) error }) (RuleModel, error) {
	var m RuleModel
	err := scanner.Scan(&m.ID, &m.GUID, &m.Name, &m.Position, &m.ProviderType, &m.ProviderParams, &m.UpdatedAt)
	return m, err
}

// Load returns every rule ordered by position.
func (r *ruleRepository) Load(ctx context.Context) ([]store.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []RuleModel
	for rows.Next() {
		m, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	groups, err := r.loadGroups(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]store.Record, 0, len(models))
	for _, m := range models {
		records = append(records, m.toRecord(groups[m.ID]))
	}
	log.Debug(log.CatDB, "Loaded rules", "count", len(records))
	return records, nil
}

func (r *ruleRepository) loadGroups(ctx context.Context) (map[int64][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT rule_id, group_key FROM rule_groups ORDER BY rule_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	groups := make(map[int64][]string)
	for rows.Next() {
		var ruleID int64
		var key string
		if err := rows.Scan(&ruleID, &key); err != nil {
			return nil, fmt.Errorf("failed to scan rule group: %w", err)
		}
		groups[ruleID] = append(groups[ruleID], key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule groups: %w", err)
	}
	return groups, nil
}

// Save replaces all rules in one transaction.
func (r *ruleRepository) Save(ctx context.Context, records []store.Record) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// rule_groups rows go with their rule via ON DELETE CASCADE.
	if _, err = tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	insertRule, err := tx.PrepareContext(ctx,
		`INSERT INTO rules (guid, name, position, provider_type, provider_params, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare rule insert: %w", err)
	}
	defer func() { _ = insertRule.Close() }()

	insertGroup, err := tx.PrepareContext(ctx,
		`INSERT INTO rule_groups (rule_id, ordinal, group_key) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare group insert: %w", err)
	}
	defer func() { _ = insertGroup.Close() }()

	now := time.Now().Unix()
	for _, rec := range records {
		m := toRuleModel(rec, now)
		result, execErr := insertRule.ExecContext(ctx, m.GUID, m.Name, m.Position, m.ProviderType, m.ProviderParams, m.UpdatedAt)
		if execErr != nil {
			return fmt.Errorf("failed to insert rule %s: %w", rec.GUID, execErr)
		}
		id, idErr := result.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("failed to get last insert id: %w", idErr)
		}
		for i, key := range rec.Groups {
			if _, execErr := insertGroup.ExecContext(ctx, id, i, key); execErr != nil {
				return fmt.Errorf("failed to insert group %q of rule %s: %w", key, rec.GUID, execErr)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rules: %w", err)
	}
	log.Debug(log.CatDB, "Saved rules", "count", len(records))
	return nil
}
