package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"cve_bot/internal/daterange"
	"cve_bot/internal/filter"
	"cve_bot/internal/model"
)

// criteriaDoc is the persisted form of filter.Criteria.
type criteriaDoc struct {
	Severity   []string `yaml:"severity,omitempty"`
	Technology []string `yaml:"technology,omitempty"`
	Status     []string `yaml:"status,omitempty"`
	PublicPoc  bool     `yaml:"poc,omitempty"`
	Docker     bool     `yaml:"docker,omitempty"`
	Curl       bool     `yaml:"curl,omitempty"`
	Priority   bool     `yaml:"priority,omitempty"`
	HideDone   bool     `yaml:"hide_done,omitempty"`
}

func encodeCriteria(c filter.Criteria) (string, error) {
	if c.IsEmpty() {
		return "", nil
	}
	doc := criteriaDoc{
		Technology: c.Technology.Values(),
		PublicPoc:  c.HasPublicPoc,
		Docker:     c.IsDockerDeployable,
		Curl:       c.IsCurlTestable,
		Priority:   c.IsPriority,
		HideDone:   c.HideDone,
	}
	for _, s := range c.Severity.Values() {
		doc.Severity = append(doc.Severity, string(s))
	}
	for _, s := range c.Status.Values() {
		doc.Status = append(doc.Status, string(s))
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal criteria: %w", err)
	}
	return string(out), nil
}

// decodeCriteria drops values that are no longer valid severities or
// statuses rather than failing the whole session.
func decodeCriteria(s string) (filter.Criteria, error) {
	var c filter.Criteria
	if s == "" {
		return c, nil
	}
	var doc criteriaDoc
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return c, fmt.Errorf("unmarshal criteria: %w", err)
	}
	for _, v := range doc.Severity {
		if sev, ok := model.ParseSeverity(v); ok {
			c.Severity = c.Severity.With(sev)
		}
	}
	for _, v := range doc.Status {
		if st, ok := model.ParseStatus(v); ok {
			c.Status = c.Status.With(st)
		}
	}
	c.Technology = filter.NewSet(doc.Technology...)
	c.HasPublicPoc = doc.PublicPoc
	c.IsDockerDeployable = doc.Docker
	c.IsCurlTestable = doc.Curl
	c.IsPriority = doc.Priority
	c.HideDone = doc.HideDone
	return c, nil
}

// GetSession returns the stored state of chatID, or an empty session if
// none has been saved yet.
func (s *SQLite) GetSession(ctx context.Context, chatID int64) (*Session, error) {
	var criteria string
	var from, to sql.NullString
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT criteria, range_from, range_to, updated_at FROM sessions WHERE chat_id = ?`, chatID,
	).Scan(&criteria, &from, &to, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &Session{ChatID: chatID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	sess := &Session{ChatID: chatID}
	if sess.Criteria, err = decodeCriteria(criteria); err != nil {
		return nil, err
	}
	sess.UpdatedAt, _ = time.Parse(timeLayout, updated)

	var r daterange.Range
	if from.Valid {
		if r.From, err = time.Parse(dayLayout, from.String); err != nil {
			return nil, fmt.Errorf("parse range start: %w", err)
		}
	}
	if to.Valid {
		if r.To, err = time.Parse(dayLayout, to.String); err != nil {
			return nil, fmt.Errorf("parse range end: %w", err)
		}
	}
	if !r.IsZero() {
		sess.Range = &r
	}
	return sess, nil
}

// SaveSession stores the criteria and range of a chat, replacing any
// previous state.
func (s *SQLite) SaveSession(ctx context.Context, sess *Session) error {
	criteria, err := encodeCriteria(sess.Criteria)
	if err != nil {
		return err
	}
	var from, to sql.NullString
	if sess.Range != nil {
		if !sess.Range.From.IsZero() {
			from = sql.NullString{String: sess.Range.From.Format(dayLayout), Valid: true}
		}
		if !sess.Range.To.IsZero() {
			to = sql.NullString{String: sess.Range.To.Format(dayLayout), Valid: true}
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (chat_id, criteria, range_from, range_to, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET
		   criteria = excluded.criteria,
		   range_from = excluded.range_from,
		   range_to = excluded.range_to,
		   updated_at = excluded.updated_at`,
		sess.ChatID, criteria, from, to, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
