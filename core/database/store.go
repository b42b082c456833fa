package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"fixture-builder/core/utils"

	"gorm.io/gorm"
)

// Store exposes the table level operations the fixture builder needs on
// top of a GORM connection.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tables lists the tables of the database, sorted, without the skipped ones.
func (s *Store) Tables(ctx context.Context, skip []string) ([]string, error) {
	tables, err := s.db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	skipped := make(map[string]struct{}, len(skip))
	for _, t := range skip {
		skipped[t] = struct{}{}
	}

	result := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, ok := skipped[t]; ok {
			continue
		}
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// Columns returns the lower-cased column names of table.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	infos, err := GetTableColumns(s.db.WithContext(ctx), table)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(infos))
	for _, info := range infos {
		columns = append(columns, info.Field)
	}
	return columns, nil
}

// DeleteAll removes every row of table.
func (s *Store) DeleteAll(ctx context.Context, table string) error {
	query := "DELETE FROM " + s.db.Statement.Quote(table)
	if err := s.db.WithContext(ctx).Exec(query).Error; err != nil {
		return fmt.Errorf("failed to delete rows of %s: %w", table, err)
	}
	return nil
}

// Rows returns every row of table as a column map. Rows are ordered by
// their id column when the table has one. Byte slices are converted to
// strings so the rows serialize as text.
func (s *Store) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to select rows of %s: %w", table, err)
	}

	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return utils.Less(rows[i]["id"], rows[j]["id"])
	})
	return rows, nil
}

// Insert writes row into table.
func (s *Store) Insert(ctx context.Context, table string, row map[string]any) error {
	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Create inserts a GORM model.
func (s *Store) Create(ctx context.Context, model any) error {
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create %T: %w", model, err)
	}
	return nil
}

// Exec runs a raw statement.
func (s *Store) Exec(ctx context.Context, statement string) error {
	if err := s.db.WithContext(ctx).Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Identify resolves the table name and primary key value of a GORM model.
// A nil model or a zero primary key yields a nil id.
func (s *Store) Identify(model any) (string, any, error) {
	if model == nil {
		return "", nil, nil
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "", nil, nil
	}

	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return "", nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}

	field := stmt.Schema.PrioritizedPrimaryField
	if field == nil {
		return stmt.Schema.Table, nil, fmt.Errorf("model %T has no primary key", model)
	}

	value, zero := field.ValueOf(context.Background(), rv)
	if zero {
		return stmt.Schema.Table, nil, nil
	}
	return stmt.Schema.Table, value, nil
}
