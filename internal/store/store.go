// Package store persists parsed digest reports in SQLite and serves the
// read side for reports and analytics. Re-importing the same digest is
// idempotent: emails dedup on (subject, timestamp) and deals on their
// Intelligence ID.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"

	_ "modernc.org/sqlite"
)

// Metadata keys promoted to columns on the deals table.
var promotedKeys = map[string]bool{
	"Intelligence ID": true,
	"Source":          true,
	"Value":           true,
	"Stake Value":     true,
	"Grade":           true,
	"Alert":           true,
	"Size":            true,
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subject TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			parsed_date TEXT NOT NULL,
			UNIQUE(subject, timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS deals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			body TEXT,
			intelligence_id TEXT UNIQUE,
			source TEXT,
			value TEXT,
			stake_value TEXT,
			grade TEXT,
			alert_type TEXT,
			FOREIGN KEY (email_id) REFERENCES emails(id),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS deal_bullets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deal_id INTEGER NOT NULL,
			bullet_text TEXT NOT NULL,
			FOREIGN KEY (deal_id) REFERENCES deals(id),
			UNIQUE(deal_id, bullet_text)
		)`,
		`CREATE TABLE IF NOT EXISTS deal_links (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deal_id INTEGER NOT NULL,
			link_url TEXT NOT NULL,
			FOREIGN KEY (deal_id) REFERENCES deals(id),
			UNIQUE(deal_id, link_url)
		)`,
		`CREATE TABLE IF NOT EXISTS deal_metadata (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			deal_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT,
			FOREIGN KEY (deal_id) REFERENCES deals(id),
			UNIQUE(deal_id, key)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// ImportSummary reports what one import did.
type ImportSummary struct {
	EmailID      int64 `json:"email_id"`
	NewDeals     int   `json:"new_deals"`
	SkippedDeals int   `json:"skipped_deals"`
}

// ImportReport writes a parsed report into the database inside one
// transaction. Deals whose Intelligence ID already exists are skipped.
func (s *Store) ImportReport(ctx context.Context, rep *digest.Report) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	emailID, err := upsertEmail(ctx, tx, rep.Email)
	if err != nil {
		return summary, err
	}
	summary.EmailID = emailID

	for _, sec := range rep.Sections {
		categoryID, err := upsertCategory(ctx, tx, sec.Name)
		if err != nil {
			return summary, err
		}
		for _, item := range sec.Items {
			inserted, err := insertDeal(ctx, tx, emailID, categoryID, item)
			if err != nil {
				return summary, err
			}
			if inserted {
				summary.NewDeals++
			} else {
				summary.SkippedDeals++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit import: %w", err)
	}
	return summary, nil
}

func upsertEmail(ctx context.Context, tx *sql.Tx, email *digest.EmailMetadata) (int64, error) {
	subject, timestamp, parsedDate := "", "", ""
	if email != nil {
		subject = email.Subject
		timestamp = email.Timestamp
		if email.ParsedDate != nil {
			parsedDate = email.ParsedDate.Format("2006-01-02T15:04:05")
		}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO emails (subject, timestamp, parsed_date) VALUES (?, ?, ?)`,
		subject, timestamp, parsedDate)
	if err != nil {
		return 0, fmt.Errorf("insert email: %w", err)
	}
	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM emails WHERE subject = ? AND timestamp = ?`,
		subject, timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup email: %w", err)
	}
	return id, nil
}

func upsertCategory(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup category: %w", err)
	}
	return id, nil
}

func insertDeal(ctx context.Context, tx *sql.Tx, emailID, categoryID int64, item digest.Item) (bool, error) {
	var body string
	meta := digest.NewMetadata()
	if item.Details != nil {
		body = item.Details.Body
		if item.Details.Metadata != nil {
			meta = item.Details.Metadata
		}
	}

	get := func(key string) string {
		v, _ := meta.Get(key)
		return v
	}

	// Empty Intelligence IDs are stored as NULL so the uniqueness
	// constraint only binds real IDs.
	var intelligenceID sql.NullString
	if v := get("Intelligence ID"); v != "" {
		intelligenceID = sql.NullString{String: v, Valid: true}
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM deals WHERE intelligence_id = ?`, v).Scan(&existing)
		if err == nil {
			return false, nil
		}
		if err != sql.ErrNoRows {
			return false, fmt.Errorf("dedup lookup: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO deals (email_id, category_id, title, body, intelligence_id,
			source, value, stake_value, grade, alert_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emailID, categoryID, item.Title, body, intelligenceID,
		get("Source"), get("Value"), get("Stake Value"), get("Grade"), get("Alert"))
	if err != nil {
		return false, fmt.Errorf("insert deal: %w", err)
	}
	dealID, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("deal id: %w", err)
	}

	if item.Details == nil {
		return true, nil
	}

	for _, bullet := range item.Details.Bullets {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO deal_bullets (deal_id, bullet_text) VALUES (?, ?)`,
			dealID, bullet); err != nil {
			return false, fmt.Errorf("insert bullet: %w", err)
		}
	}
	for _, link := range item.Details.Links {
		if link == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO deal_links (deal_id, link_url) VALUES (?, ?)`,
			dealID, link); err != nil {
			return false, fmt.Errorf("insert link: %w", err)
		}
	}
	for _, key := range meta.Keys() {
		if promotedKeys[key] {
			continue
		}
		value, _ := meta.Get(key)
		if value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO deal_metadata (deal_id, key, value) VALUES (?, ?, ?)`,
			dealID, key, value); err != nil {
			return false, fmt.Errorf("insert metadata: %w", err)
		}
	}

	return true, nil
}

// EmailRow is one stored digest email.
type EmailRow struct {
	ID         int64  `json:"id"`
	Subject    string `json:"subject"`
	Timestamp  string `json:"timestamp"`
	ParsedDate string `json:"parsed_date"`
	DealCount  int    `json:"deal_count"`
}

// ListEmails returns stored emails, newest parsed date first.
func (s *Store) ListEmails(ctx context.Context) ([]EmailRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.subject, e.timestamp, e.parsed_date, COUNT(d.id)
		FROM emails e
		LEFT JOIN deals d ON d.email_id = e.id
		GROUP BY e.id
		ORDER BY e.parsed_date DESC, e.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	var out []EmailRow
	for rows.Next() {
		var r EmailRow
		if err := rows.Scan(&r.ID, &r.Subject, &r.Timestamp, &r.ParsedDate, &r.DealCount); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReport reconstructs a stored report by email ID.
func (s *Store) GetReport(ctx context.Context, emailID int64) (*digest.Report, error) {
	var subject, timestamp, parsedDate string
	err := s.db.QueryRowContext(ctx,
		`SELECT subject, timestamp, parsed_date FROM emails WHERE id = ?`,
		emailID).Scan(&subject, &timestamp, &parsedDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("email %d: not found", emailID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	rep := &digest.Report{}
	if subject != "" {
		rep.Email = &digest.EmailMetadata{Subject: subject, Timestamp: timestamp}
		if parsedDate != "" {
			if ts, err := time.Parse("2006-01-02T15:04:05", parsedDate); err == nil {
				rep.Email.ParsedDate = &ts
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, c.name, d.title, d.body, COALESCE(d.intelligence_id, ''),
			d.source, d.value, d.stake_value, d.grade, d.alert_type
		FROM deals d
		JOIN categories c ON c.id = d.category_id
		WHERE d.email_id = ?
		ORDER BY d.id`, emailID)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	type dealPos struct {
		id      int64
		section int
		item    int
	}
	sectionIdx := make(map[string]int)
	var positions []dealPos

	for rows.Next() {
		var dealID int64
		var category, title, body, intelligenceID string
		var source, value, stakeValue, grade, alertType string
		if err := rows.Scan(&dealID, &category, &title, &body, &intelligenceID,
			&source, &value, &stakeValue, &grade, &alertType); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}

		meta := digest.NewMetadata()
		setIf := func(key, v string) {
			if v != "" {
				meta.Set(key, v)
			}
		}
		setIf("Intelligence ID", intelligenceID)
		setIf("Source", source)
		setIf("Value", value)
		setIf("Stake Value", stakeValue)
		setIf("Grade", grade)
		setIf("Alert", alertType)

		item := digest.Item{
			Title:   title,
			Details: &digest.DetailBlock{Body: body, Metadata: meta},
		}

		si, ok := sectionIdx[category]
		if !ok {
			rep.Sections = append(rep.Sections, digest.Section{Name: category})
			si = len(rep.Sections) - 1
			sectionIdx[category] = si
		}
		rep.Sections[si].Items = append(rep.Sections[si].Items, item)
		positions = append(positions, dealPos{dealID, si, len(rep.Sections[si].Items) - 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range positions {
		details := rep.Sections[p.section].Items[p.item].Details
		if err := s.fillDealChildren(ctx, p.id, details); err != nil {
			return nil, err
		}
	}

	return rep, nil
}

func (s *Store) fillDealChildren(ctx context.Context, dealID int64, d *digest.DetailBlock) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bullet_text FROM deal_bullets WHERE deal_id = ? ORDER BY id`, dealID)
	if err != nil {
		return fmt.Errorf("list bullets: %w", err)
	}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			rows.Close()
			return err
		}
		d.Bullets = append(d.Bullets, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT link_url FROM deal_links WHERE deal_id = ? ORDER BY id`, dealID)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			rows.Close()
			return err
		}
		d.Links = append(d.Links, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT key, value FROM deal_metadata WHERE deal_id = ? ORDER BY id`, dealID)
	if err != nil {
		return fmt.Errorf("list metadata: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return err
		}
		d.Metadata.Set(k, v)
	}
	rows.Close()
	return rows.Err()
}

// CountRow is one labeled count from a grouped analytics query.
type CountRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountDeals returns the number of deals, optionally restricted to
// emails whose parsed date falls in [start, end].
func (s *Store) CountDeals(ctx context.Context, start, end string) (int, error) {
	var n int
	var err error
	if start != "" && end != "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM deals d
			JOIN emails e ON d.email_id = e.id
			WHERE e.parsed_date BETWEEN ? AND ?`, start, end).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deals`).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count deals: %w", err)
	}
	return n, nil
}

// DealsBySector returns deal counts grouped by category.
func (s *Store) DealsBySector(ctx context.Context, start, end string) ([]CountRow, error) {
	if start != "" && end != "" {
		return s.countRows(ctx, `
			SELECT c.name, COUNT(*) FROM deals d
			JOIN categories c ON d.category_id = c.id
			JOIN emails e ON d.email_id = e.id
			WHERE e.parsed_date BETWEEN ? AND ?
			GROUP BY c.name ORDER BY COUNT(*) DESC, c.name`, start, end)
	}
	return s.countRows(ctx, `
		SELECT c.name, COUNT(*) FROM deals d
		JOIN categories c ON d.category_id = c.id
		GROUP BY c.name ORDER BY COUNT(*) DESC, c.name`)
}

// DealsByGrade returns deal counts grouped by grade.
func (s *Store) DealsByGrade(ctx context.Context, start, end string) ([]CountRow, error) {
	if start != "" && end != "" {
		return s.countRows(ctx, `
			SELECT CASE WHEN d.grade = '' THEN 'Unknown' ELSE d.grade END, COUNT(*)
			FROM deals d JOIN emails e ON d.email_id = e.id
			WHERE e.parsed_date BETWEEN ? AND ?
			GROUP BY 1 ORDER BY COUNT(*) DESC, 1`, start, end)
	}
	return s.countRows(ctx, `
		SELECT CASE WHEN d.grade = '' THEN 'Unknown' ELSE d.grade END, COUNT(*)
		FROM deals d GROUP BY 1 ORDER BY COUNT(*) DESC, 1`)
}

// DealsByRegion returns deal counts grouped by alert type, the digest's
// geographic marker.
func (s *Store) DealsByRegion(ctx context.Context, start, end string) ([]CountRow, error) {
	if start != "" && end != "" {
		return s.countRows(ctx, `
			SELECT CASE WHEN d.alert_type = '' THEN 'Unknown' ELSE d.alert_type END, COUNT(*)
			FROM deals d JOIN emails e ON d.email_id = e.id
			WHERE e.parsed_date BETWEEN ? AND ?
			GROUP BY 1 ORDER BY COUNT(*) DESC, 1`, start, end)
	}
	return s.countRows(ctx, `
		SELECT CASE WHEN d.alert_type = '' THEN 'Unknown' ELSE d.alert_type END, COUNT(*)
		FROM deals d GROUP BY 1 ORDER BY COUNT(*) DESC, 1`)
}

func (s *Store) countRows(ctx context.Context, query string, args ...any) ([]CountRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("grouped count: %w", err)
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Label, &r.Count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DealText is the body and metadata of one deal, the inputs the firm
// extractor needs.
type DealText struct {
	ID       int64
	Body     string
	Metadata map[string]string
}

// DealTexts returns every deal's body and metadata, optionally filtered
// by email parsed date.
func (s *Store) DealTexts(ctx context.Context, start, end string) ([]DealText, error) {
	query := `
		SELECT d.id, d.body, d.source, d.value, d.stake_value, d.grade, d.alert_type
		FROM deals d`
	var args []any
	if start != "" && end != "" {
		query += ` JOIN emails e ON d.email_id = e.id WHERE e.parsed_date BETWEEN ? AND ?`
		args = append(args, start, end)
	}
	query += ` ORDER BY d.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deal texts: %w", err)
	}
	defer rows.Close()

	var out []DealText
	for rows.Next() {
		var dt DealText
		var source, value, stakeValue, grade, alertType string
		if err := rows.Scan(&dt.ID, &dt.Body, &source, &value, &stakeValue, &grade, &alertType); err != nil {
			return nil, fmt.Errorf("scan deal text: %w", err)
		}
		dt.Metadata = map[string]string{}
		for k, v := range map[string]string{
			"Source": source, "Value": value, "Stake Value": stakeValue,
			"Grade": grade, "Alert": alertType,
		} {
			if v != "" {
				dt.Metadata[k] = v
			}
		}
		out = append(out, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		mrows, err := s.db.QueryContext(ctx,
			`SELECT key, value FROM deal_metadata WHERE deal_id = ? ORDER BY id`, out[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list deal metadata: %w", err)
		}
		for mrows.Next() {
			var k, v string
			if err := mrows.Scan(&k, &v); err != nil {
				mrows.Close()
				return nil, err
			}
			out[i].Metadata[k] = v
		}
		mrows.Close()
		if err := mrows.Err(); err != nil {
			return nil, err
		}
	}

	return out, nil
}
