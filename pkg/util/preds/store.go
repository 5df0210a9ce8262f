package preds

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/stattip/stattip/internal/logger"
)

// Store keeps a rolling history of predictions in sqlite so past tips
// can be evaluated against final scores. The connection is owned by the
// Store, not a package global, so tests and callers can run isolated
// databases side by side.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path and ensures
// the schema exists
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.CreateTable(&MatchPrediction{}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database initialized successfully", path)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateTable creates the table for the given persistable object using struct tags
func (s *Store) CreateTable(obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)

	logger.Debug("Creating table with SQL", createSQL)

	if _, err := s.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	for _, query := range generateIndexSQL(obj, tableName) {
		logger.Debug("Creating index with SQL", query)
		if _, err := s.db.Exec(query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}

	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so the save path can
// run standalone or inside a transaction
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Save persists the object (INSERT or UPDATE)
func (s *Store) Save(obj Persistable) error {
	return saveOn(s.db, obj)
}

func saveOn(db execer, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	exists, err := existsOn(db, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}

	if exists {
		return updateOn(db, obj)
	}
	return insertOn(db, obj)
}

func insertOn(db execer, obj Persistable) error {
	tableName := obj.GetTableName()
	columns, placeholders, values := getInsertData(obj)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	logger.Debug("Insert SQL", query)

	if _, err := db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}
	return nil
}

func updateOn(db execer, obj Persistable) error {
	tableName := obj.GetTableName()
	setPairs, values := getUpdateData(obj)

	whereClause, whereValues := buildWhereClause(obj.GetPrimaryKey())
	values = append(values, whereValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", tableName, strings.Join(setPairs, ", "), whereClause)

	logger.Debug("Update SQL", query)

	if _, err := db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", tableName, err)
	}
	return nil
}

// Exists checks if the object exists in the database
func (s *Store) Exists(obj Persistable) (bool, error) {
	return existsOn(s.db, obj)
}

func existsOn(db execer, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)

	var count int
	if err := db.QueryRow(query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return count > 0, nil
}

// FindWhere executes a custom WHERE query against the object's table,
// returning one newly allocated object per row
func (s *Store) FindWhere(obj Persistable, whereClause string, args ...any) ([]any, error) {
	tableName := obj.GetTableName()
	columns, _ := getSelectData(obj)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)

	logger.Debug("FindWhere SQL", query)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	var results []any
	objType := reflectBaseType(obj)

	for rows.Next() {
		newObj := newOf(objType)
		_, destinations := getSelectData(newObj)

		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		if h, ok := newObj.(loadHook); ok {
			h.AfterLoad()
		}
		results = append(results, newObj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}

	return results, nil
}

// BulkSave saves multiple objects in one transaction. A failure on any
// object rolls the whole batch back.
func (s *Store) BulkSave(objects []Persistable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objects {
		if err := saveOn(tx, obj); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

/////////////////////////////////////////////////////////////////////////
////// Prediction Queries
/////////////////////////////////////////////////////////////////////////

// SavePredictions persists a day's prediction set
func (s *Store) SavePredictions(preds []*MatchPrediction) error {
	objs := make([]Persistable, 0, len(preds))
	for _, p := range preds {
		objs = append(objs, p)
	}
	return s.BulkSave(objs)
}

// PredictionsForDate loads every stored prediction for a date
func (s *Store) PredictionsForDate(date string) ([]*MatchPrediction, error) {
	rows, err := s.FindWhere(&MatchPrediction{}, "date = ? ORDER BY created_at", date)
	if err != nil {
		return nil, err
	}
	out := make([]*MatchPrediction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.(*MatchPrediction))
	}
	return out, nil
}
