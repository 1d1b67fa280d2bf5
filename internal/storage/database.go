package storage

import (
	"database/sql"
	"fmt"

	"github.com/memoline/memoline/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB is the durable store: two independent keyed-record tables, "texts"
// (auto-assigned integer keys, JSON record values) and "sessions" (date
// keys, no value). It knows nothing about record shape; the repository
// owns all encoding. No operation spans both tables atomically.
//
// Every failure wraps domain.ErrStorageUnavailable. Nothing here retries.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to
// date. The handle is meant to be opened once and injected wherever it is
// needed for the life of the process.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorageUnavailable, dsn, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", domain.ErrStorageUnavailable, dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("%w: apply schema: %v", domain.ErrStorageUnavailable, err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// TextRow is one raw row of the texts table.
type TextRow struct {
	ID     int64
	Record []byte
}

// InsertText inserts a new record and returns the generated key. This is
// the only way a fresh text id comes into existence.
func (db *DB) InsertText(record []byte) (int64, error) {
	res, err := db.conn.Exec(`INSERT INTO texts (record) VALUES (?)`, string(record))
	if err != nil {
		return 0, fmt.Errorf("%w: insert text: %v", domain.ErrStorageUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert text id: %v", domain.ErrStorageUnavailable, err)
	}
	return id, nil
}

// UpsertText writes the record under an explicit key, replacing any
// previous record for that key.
func (db *DB) UpsertText(id int64, record []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO texts (id, record) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET record = excluded.record
	`, id, string(record))
	if err != nil {
		return fmt.Errorf("%w: upsert text %d: %v", domain.ErrStorageUnavailable, id, err)
	}
	return nil
}

// GetText retrieves one record by key, or nil if the key is absent.
func (db *DB) GetText(id int64) ([]byte, error) {
	var record string
	err := db.conn.QueryRow(`SELECT record FROM texts WHERE id = ?`, id).Scan(&record)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Text not found
		}
		return nil, fmt.Errorf("%w: get text %d: %v", domain.ErrStorageUnavailable, id, err)
	}
	return []byte(record), nil
}

// GetAllTexts retrieves every stored text row, ordered by key.
func (db *DB) GetAllTexts() ([]TextRow, error) {
	rows, err := db.conn.Query(`SELECT id, record FROM texts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: get all texts: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var all []TextRow
	for rows.Next() {
		var row TextRow
		var record string
		if err := rows.Scan(&row.ID, &record); err != nil {
			return nil, fmt.Errorf("%w: scan text row: %v", domain.ErrStorageUnavailable, err)
		}
		row.Record = []byte(record)
		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate texts: %v", domain.ErrStorageUnavailable, err)
	}
	return all, nil
}

// DeleteText removes the record under the given key. Deleting an absent
// key is not an error at this layer.
func (db *DB) DeleteText(id int64) error {
	_, err := db.conn.Exec(`DELETE FROM texts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete text %d: %v", domain.ErrStorageUnavailable, id, err)
	}
	return nil
}

// UpsertSession records that the user practiced on the given date.
// Writing the same date twice is idempotent.
func (db *DB) UpsertSession(date string) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (date) VALUES (?)
		ON CONFLICT(date) DO NOTHING
	`, date)
	if err != nil {
		return fmt.Errorf("%w: upsert session %s: %v", domain.ErrStorageUnavailable, date, err)
	}
	return nil
}

// GetAllSessions retrieves every practiced date, most recent first.
func (db *DB) GetAllSessions() ([]string, error) {
	rows, err := db.conn.Query(`SELECT date FROM sessions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: get all sessions: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%w: scan session row: %v", domain.ErrStorageUnavailable, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", domain.ErrStorageUnavailable, err)
	}
	return dates, nil
}
