// Package postgres stores resource documents as JSONB rows with the
// identifying columns extracted for filtering and sorting, and keeps
// scan-tagged finding generations behind a single-row current-scan pointer.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/rules"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements asset.Store, rules.Store, and findings.Store on a pgx
// pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("postgres: pool is nil")
	}
	return &Store{pool: pool}, nil
}

// --- asset.Store ---

func (s *Store) UpsertResources(ctx context.Context, batch []asset.Resource) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range batch {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		doc, err := json.Marshal(r.Fields)
		if err != nil {
			return 0, fmt.Errorf("encode resource %q: %w", r.Name, err)
		}
		b.Queue(`
			INSERT INTO resources (id, name, resource_type, region, doc)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				resource_type = EXCLUDED.resource_type,
				region = EXCLUDED.region,
				doc = EXCLUDED.doc,
				updated_at = now()`,
			r.ID, r.Name, r.ResourceType, r.Region, doc)
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range batch {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert resources: %w", err)
		}
	}
	return int64(len(batch)), nil
}

func (s *Store) ListResources(ctx context.Context, q asset.ListQuery) (asset.Page, error) {
	q = q.Normalized()

	where, args := resourceWhere(q.Filter)
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM resources"+clause, args...).Scan(&total); err != nil {
		return asset.Page{}, fmt.Errorf("count resources: %w", err)
	}

	order := q.SortBy // whitelisted by Normalized
	if q.SortOrder == "desc" {
		order += " DESC"
	}
	offset := (q.PageNumber - 1) * q.PageSize
	query := fmt.Sprintf(
		"SELECT id, name, resource_type, region, doc FROM resources%s ORDER BY %s, id LIMIT %d OFFSET %d",
		clause, order, q.PageSize, offset,
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return asset.Page{}, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	data, err := scanResources(rows)
	if err != nil {
		return asset.Page{}, err
	}
	return asset.Page{Data: data, Total: total, PageSize: q.PageSize, PageNumber: q.PageNumber}, nil
}

func (s *Store) SnapshotResources(ctx context.Context) ([]asset.Resource, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, resource_type, region, doc FROM resources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("snapshot resources: %w", err)
	}
	defer rows.Close()
	return scanResources(rows)
}

func (s *Store) DeleteResources(ctx context.Context, f asset.Filter) (int64, error) {
	where, args := resourceWhere(f)
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM resources"+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("delete resources: %w", err)
	}
	return tag.RowsAffected(), nil
}

// resourceWhere maps a top-level equality filter onto the extracted columns,
// falling back to JSONB containment for open fields.
func resourceWhere(f asset.Filter) ([]string, []any) {
	var where []string
	var args []any
	for key, want := range f {
		switch key {
		case "id", "name", "resource_type", "region":
			args = append(args, fmt.Sprint(want))
			where = append(where, fmt.Sprintf("%s = $%d", key, len(args)))
		default:
			contained, err := json.Marshal(map[string]any{key: want})
			if err != nil {
				continue
			}
			args = append(args, contained)
			where = append(where, fmt.Sprintf("doc @> $%d", len(args)))
		}
	}
	return where, args
}

func scanResources(rows pgx.Rows) ([]asset.Resource, error) {
	var out []asset.Resource
	for rows.Next() {
		var r asset.Resource
		var doc []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.ResourceType, &r.Region, &doc); err != nil {
			return nil, fmt.Errorf("scan resource row: %w", err)
		}
		if err := json.Unmarshal(doc, &r.Fields); err != nil {
			return nil, fmt.Errorf("decode resource %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- rules.Store ---

func (s *Store) UpsertRules(ctx context.Context, batch []rules.Rule) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range batch {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		value, err := json.Marshal(r.Value)
		if err != nil {
			return 0, fmt.Errorf("encode rule %q value: %w", r.Name, err)
		}
		b.Queue(`
			INSERT INTO rules (id, name, description, field, op, value, severity, resource_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				field = EXCLUDED.field,
				op = EXCLUDED.op,
				value = EXCLUDED.value,
				severity = EXCLUDED.severity,
				resource_type = EXCLUDED.resource_type,
				updated_at = now()`,
			r.ID, r.Name, r.Description, r.Field, string(r.Op), value, string(r.Severity), r.ResourceType)
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range batch {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("upsert rules: %w", err)
		}
	}
	return int64(len(batch)), nil
}

func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, description, field, op, value, severity, resource_type FROM rules ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		var op, severity string
		var value []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Field, &op, &value, &severity, &r.ResourceType); err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}
		if err := json.Unmarshal(value, &r.Value); err != nil {
			return nil, fmt.Errorf("decode rule %s value: %w", r.ID, err)
		}
		r.Op = rules.Operator(op)
		r.Severity = rules.Severity(severity)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteRules(ctx context.Context, f rules.Filter) (int64, error) {
	var where []string
	var args []any
	for key, want := range f {
		switch key {
		case "id", "name", "field", "op", "severity", "resource_type":
			args = append(args, fmt.Sprint(want))
			where = append(where, fmt.Sprintf("%s = $%d", key, len(args)))
		default:
			return 0, fmt.Errorf("unsupported rule filter key %q", key)
		}
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM rules"+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("delete rules: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- findings.Store ---

func (s *Store) InsertFindings(ctx context.Context, batch []findings.Finding) error {
	if len(batch) == 0 {
		return nil
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"findings"},
		[]string{
			"id", "scan_id", "resource_id", "resource_name", "resource_type", "region",
			"rule_name", "rule_description", "severity", "field",
			"actual_value", "expected_value", "operator", "created_at",
		},
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			f := batch[i]
			return []any{
				f.ID, f.ScanID, f.ResourceID, f.ResourceName, f.ResourceType, f.Region,
				f.RuleName, f.RuleDescription, string(f.Severity), f.Field,
				f.ActualValue, f.ExpectedValue, string(f.Operator), f.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert findings: %w", err)
	}
	return nil
}

func (s *Store) SetCurrentScan(ctx context.Context, scanID string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE scan_state SET current_scan_id = $1, updated_at = now() WHERE id = 1", scanID)
	if err != nil {
		return fmt.Errorf("set current scan: %w", err)
	}
	return nil
}

func (s *Store) CurrentScanID(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, "SELECT current_scan_id FROM scan_state WHERE id = 1").Scan(&id)
	if err != nil {
		return "", fmt.Errorf("read current scan: %w", err)
	}
	return id, nil
}

func (s *Store) ListCurrentFindings(ctx context.Context) ([]findings.Finding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, scan_id, resource_id, resource_name, resource_type, region,
		       rule_name, rule_description, severity, field,
		       actual_value, expected_value, operator, created_at
		FROM findings
		WHERE scan_id = (SELECT current_scan_id FROM scan_state WHERE id = 1)
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var out []findings.Finding
	for rows.Next() {
		var f findings.Finding
		var severity, operator string
		if err := rows.Scan(
			&f.ID, &f.ScanID, &f.ResourceID, &f.ResourceName, &f.ResourceType, &f.Region,
			&f.RuleName, &f.RuleDescription, &severity, &f.Field,
			&f.ActualValue, &f.ExpectedValue, &operator, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan finding row: %w", err)
		}
		f.Severity = rules.Severity(severity)
		f.Operator = rules.Operator(operator)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) DeleteScanGeneration(ctx context.Context, scanID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM findings WHERE scan_id = $1", scanID)
	if err != nil {
		return 0, fmt.Errorf("delete scan generation: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SeverityCounts(ctx context.Context) (map[rules.Severity]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT severity, count(*)
		FROM findings
		WHERE scan_id = (SELECT current_scan_id FROM scan_state WHERE id = 1)
		GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("severity counts: %w", err)
	}
	defer rows.Close()

	out := make(map[rules.Severity]int64)
	for rows.Next() {
		var severity string
		var n int64
		if err := rows.Scan(&severity, &n); err != nil {
			return nil, fmt.Errorf("scan severity row: %w", err)
		}
		out[rules.Severity(severity)] = n
	}
	return out, rows.Err()
}

func (s *Store) CountsByResourceType(ctx context.Context) ([]findings.TypeCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT resource_type, count(*)
		FROM findings
		WHERE scan_id = (SELECT current_scan_id FROM scan_state WHERE id = 1)
		GROUP BY resource_type`)
	if err != nil {
		return nil, fmt.Errorf("counts by resource type: %w", err)
	}
	defer rows.Close()

	var out []findings.TypeCount
	for rows.Next() {
		var tc findings.TypeCount
		if err := rows.Scan(&tc.ResourceType, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan type count row: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *Store) CountsByRegion(ctx context.Context) ([]findings.RegionCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT region, count(*)
		FROM findings
		WHERE scan_id = (SELECT current_scan_id FROM scan_state WHERE id = 1)
		GROUP BY region`)
	if err != nil {
		return nil, fmt.Errorf("counts by region: %w", err)
	}
	defer rows.Close()

	var out []findings.RegionCount
	for rows.Next() {
		var rc findings.RegionCount
		if err := rows.Scan(&rc.Region, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan region count row: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
