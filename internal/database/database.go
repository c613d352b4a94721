package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"briscola-env/internal/game"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	tableName = "briscola_results"
	columns   = "id, created_at, player0, player1, score0, score1, winner, tricks, seed, reason"
)

//go:embed schema.sql
var schema string

type Service struct {
	db         *sql.DB
	m          *sync.Mutex
	driver     string
	table_name string
}

// New opens the results store and creates its table. driver is "sqlite3"
// (the default when empty) or "pgx".
func New(driver, dsn string) (*Service, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", tableName, err)
	}

	return &Service{
		db:         db,
		m:          &sync.Mutex{},
		driver:     driver,
		table_name: tableName,
	}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) TableName() string {
	return s.table_name
}

// Ping checks the connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *Service) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var sb strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (GameResult, error) {
	var r GameResult
	var seed int64
	err := row.Scan(
		&r.ID,
		&r.CreatedAt,
		&r.Player0,
		&r.Player1,
		&r.Score0,
		&r.Score1,
		&r.Winner,
		&r.Tricks,
		&seed,
		&r.Reason)
	// Seeds are stored as the signed bit pattern; sqlite has no unsigned 64-bit column.
	r.Seed = uint64(seed)
	return r, err
}

func (s *Service) query(ctx context.Context, query string, args ...interface{}) ([]GameResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetAll returns every stored hand, oldest first.
func (s *Service) GetAll(ctx context.Context) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.query(ctx, "SELECT "+columns+" FROM "+s.table_name+" ORDER BY created_at, id")
}

func (s *Service) GetByID(ctx context.Context, id string) (GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+columns+" FROM "+s.table_name+" WHERE id = ?"), id)
	result, err := scanResult(row)
	if err != nil {
		return GameResult{}, err
	}
	return result, nil
}

func (s *Service) Insert(ctx context.Context, result GameResult) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO "+s.table_name+
		" ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		result.ID,
		result.CreatedAt,
		result.Player0,
		result.Player1,
		result.Score0,
		result.Score1,
		result.Winner,
		result.Tricks,
		int64(result.Seed),
		result.Reason)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", result.ID, err)
	}
	return nil
}

// GetByPlayer returns the hands a player took part in, or sql.ErrNoRows.
func (s *Service) GetByPlayer(ctx context.Context, player_name string) ([]GameResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	results, err := s.query(ctx, "SELECT "+columns+" FROM "+s.table_name+
		" WHERE player0 = ? OR player1 = ? ORDER BY created_at, id",
		player_name,
		player_name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows // No results found
	}
	return results, nil
}

// RecordResult stores a finished session hand.
func (s *Service) RecordResult(r game.HandResult) error {
	return s.Insert(context.Background(), FromHandResult(r))
}
