package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"cve_bot/internal/model"
	"cve_bot/migrations"
)

const (
	timeLayout = "2006-01-02T15:04:05Z"
	dayLayout  = "2006-01-02"

	// techSeparator joins technology tags in a single column; it is the
	// ASCII unit separator, which never appears in a tag.
	techSeparator = "\x1f"
)

const cveColumns = `c.id, c.title, c.description, c.severity, c.status,
	c.has_public_poc, c.is_docker_deployable, c.is_curl_testable, c.is_priority,
	c.url, c.source, c.published_at, c.created_at, c.updated_at,
	(SELECT group_concat(t.tech, char(31)) FROM cve_technologies t WHERE t.cve_id = c.id)`

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertCVE inserts a record or refreshes an existing one. Triage fields
// (status, priority) of an existing record are kept; exploit and
// deployability flags only ever go from false to true. Technologies are
// merged. It reports whether the record was new.
func (s *SQLite) UpsertCVE(ctx context.Context, c *model.CVE) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cves WHERE id = ?`, c.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check cve: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	published := c.PublishedAt.UTC().Format(timeLayout)
	status := c.Status
	if status == "" {
		status = model.StatusNew
	}

	if exists == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO cves (id, title, description, severity, status,
			   has_public_poc, is_docker_deployable, is_curl_testable, is_priority,
			   url, source, published_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.Description, string(c.Severity), string(status),
			boolToInt(c.HasPublicPoc), boolToInt(c.IsDockerDeployable), boolToInt(c.IsCurlTestable), boolToInt(c.IsPriority),
			c.URL, c.Source, published, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("insert cve: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE cves SET title = ?, description = ?, severity = ?,
			   has_public_poc = max(has_public_poc, ?),
			   is_docker_deployable = max(is_docker_deployable, ?),
			   is_curl_testable = max(is_curl_testable, ?),
			   url = ?, source = ?, published_at = ?, updated_at = ?
			 WHERE id = ?`,
			c.Title, c.Description, string(c.Severity),
			boolToInt(c.HasPublicPoc), boolToInt(c.IsDockerDeployable), boolToInt(c.IsCurlTestable),
			c.URL, c.Source, published, now, c.ID,
		)
		if err != nil {
			return false, fmt.Errorf("update cve: %w", err)
		}
	}

	for _, tech := range c.Technologies {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO cve_technologies (cve_id, tech) VALUES (?, ?)`, c.ID, tech,
		); err != nil {
			return false, fmt.Errorf("insert technology: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return exists == 0, nil
}

// GetCVE returns a single record by its ID.
func (s *SQLite) GetCVE(ctx context.Context, id string) (*model.CVE, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cveColumns+` FROM cves c WHERE c.id = ?`, id)
	c, err := scanCVE(row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCVEs returns the records selected by q, newest first.
func (s *SQLite) ListCVEs(ctx context.Context, q Query) ([]model.CVE, error) {
	where, args := buildWhere(q)
	query := `SELECT ` + cveColumns + ` FROM cves c` + where + ` ORDER BY c.published_at DESC, c.id`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cves: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cves []model.CVE
	for rows.Next() {
		c, err := scanCVE(rows)
		if err != nil {
			return nil, err
		}
		cves = append(cves, c)
	}
	return cves, rows.Err()
}

// CountCVEs returns how many records q selects, ignoring Limit and Offset.
func (s *SQLite) CountCVEs(ctx context.Context, q Query) (int, error) {
	where, args := buildWhere(q)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cves c`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cves: %w", err)
	}
	return n, nil
}

// UpdateStatus moves a record to another workflow stage.
func (s *SQLite) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	return s.updateOne(ctx, `UPDATE cves SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(timeLayout), id)
}

// SetPriority marks or unmarks a record as priority.
func (s *SQLite) SetPriority(ctx context.Context, id string, priority bool) error {
	return s.updateOne(ctx, `UPDATE cves SET is_priority = ?, updated_at = ? WHERE id = ?`,
		boolToInt(priority), time.Now().UTC().Format(timeLayout), id)
}

func (s *SQLite) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update cve: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update cve: %w", sql.ErrNoRows)
	}
	return nil
}

// ListTechnologies returns every known technology tag in order.
func (s *SQLite) ListTechnologies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tech FROM cve_technologies ORDER BY tech`)
	if err != nil {
		return nil, fmt.Errorf("query technologies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var techs []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan technology: %w", err)
		}
		techs = append(techs, t)
	}
	return techs, rows.Err()
}

// Subscribe registers chatID for new-CVE pushes.
func (s *SQLite) Subscribe(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscriptions (chat_id, created_at) VALUES (?, ?)`,
		chatID, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes chatID from pushes.
func (s *SQLite) Unsubscribe(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// ListSubscriptions returns all subscribed chats.
func (s *SQLite) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, created_at FROM subscriptions ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var created string
		if err := rows.Scan(&sub.ChatID, &created); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.CreatedAt, _ = time.Parse(timeLayout, created)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// buildWhere turns a query into a WHERE clause with the same semantics as
// filter.Match: AND across fields, IN within a set, HideDone last.
func buildWhere(q Query) (string, []any) {
	var clauses []string
	var args []any

	c := q.Criteria
	if !c.Severity.Empty() {
		clauses = append(clauses, `c.severity IN (`+placeholders(c.Severity.Len())+`)`)
		for _, v := range c.Severity.Values() {
			args = append(args, string(v))
		}
	}
	if !c.Technology.Empty() {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM cve_technologies t WHERE t.cve_id = c.id AND t.tech IN (`+
			placeholders(c.Technology.Len())+`))`)
		for _, v := range c.Technology.Values() {
			args = append(args, v)
		}
	}
	if !c.Status.Empty() {
		clauses = append(clauses, `c.status IN (`+placeholders(c.Status.Len())+`)`)
		for _, v := range c.Status.Values() {
			args = append(args, string(v))
		}
	}
	if c.HasPublicPoc {
		clauses = append(clauses, `c.has_public_poc = 1`)
	}
	if c.IsDockerDeployable {
		clauses = append(clauses, `c.is_docker_deployable = 1`)
	}
	if c.IsCurlTestable {
		clauses = append(clauses, `c.is_curl_testable = 1`)
	}
	if c.IsPriority {
		clauses = append(clauses, `c.is_priority = 1`)
	}
	if c.HideDone {
		clauses = append(clauses, `c.status != ?`)
		args = append(args, string(model.StatusDone))
	}

	// Range days are local to the range's location; published_at is UTC,
	// so the days are compared as the instants they span.
	if r := q.Range; r != nil {
		start, end := r.Bounds()
		if !start.IsZero() {
			clauses = append(clauses, `c.published_at >= ?`)
			args = append(args, start.UTC().Format(timeLayout))
		}
		if !end.IsZero() {
			clauses = append(clauses, `c.published_at < ?`)
			args = append(args, end.UTC().Format(timeLayout))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCVE(row scannable) (model.CVE, error) {
	var c model.CVE
	var severity, status, published, created, updated string
	var poc, docker, curl, priority int
	var techs sql.NullString
	err := row.Scan(&c.ID, &c.Title, &c.Description, &severity, &status,
		&poc, &docker, &curl, &priority,
		&c.URL, &c.Source, &published, &created, &updated, &techs)
	if err != nil {
		return c, fmt.Errorf("scan cve: %w", err)
	}
	c.Severity = model.Severity(severity)
	c.Status = model.Status(status)
	c.HasPublicPoc = poc == 1
	c.IsDockerDeployable = docker == 1
	c.IsCurlTestable = curl == 1
	c.IsPriority = priority == 1
	c.PublishedAt, _ = time.Parse(timeLayout, published)
	c.CreatedAt, _ = time.Parse(timeLayout, created)
	c.UpdatedAt, _ = time.Parse(timeLayout, updated)
	if techs.Valid && techs.String != "" {
		c.Technologies = strings.Split(techs.String, techSeparator)
		sort.Strings(c.Technologies)
	}
	return c, nil
}
