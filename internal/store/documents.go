package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// Logical document keys.
const (
	KeyUser     = "user"
	KeyDraft    = "draft"
	KeyDarkMode = "dark_mode"
)

// DocumentVersion is the envelope schema version written by this build.
const DocumentVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// Revision is one historical body of a document.
type Revision struct {
	Seq         int64     `json:"seq"`
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	WrittenAt   time.Time `json:"written_at"`
}

func hashDomain(key string) string {
	switch key {
	case KeyUser:
		return domain.DomainUser
	case KeyDraft:
		return domain.DomainDraft
	default:
		return domain.DomainSetting
	}
}

func encodeEnvelope(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{SchemaVersion: DocumentVersion, Data: data}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// decodeBody returns the data payload of a stored body, upgrading
// pre-envelope bodies on the fly.
func decodeBody(body []byte, version int) (json.RawMessage, error) {
	if version < 1 {
		if !json.Valid(body) {
			return nil, fmt.Errorf("legacy body is not valid JSON")
		}
		return body, nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.SchemaVersion > DocumentVersion {
		return nil, fmt.Errorf("document schema version %d is newer than supported %d", env.SchemaVersion, DocumentVersion)
	}
	return env.Data, nil
}

// Get loads the document stored under key into dst.
// Returns false with a nil error when the key has never been written.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	var body []byte
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT body, schema_version FROM documents WHERE key = ?`, key,
	).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.Persistence("get "+key, err)
	}

	data, err := decodeBody(body, version)
	if err != nil {
		return false, domain.Persistence("get "+key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, domain.Persistence("get "+key, fmt.Errorf("decode data: %w", err))
	}
	return true, nil
}

// Document is one keyed value for PutAll.
type Document struct {
	Key   string
	Value any
}

// Put stores v under key as canonical JSON.
//
// A write whose content hash equals the stored hash is skipped, which makes
// repeated saves of an unchanged aggregate free. Otherwise the document and
// a new revision are written in one transaction.
func (s *Store) Put(ctx context.Context, key string, v any) error {
	return s.PutAll(ctx, Document{Key: key, Value: v})
}

// PutAll stores several documents in one transaction: either every changed
// document is written or none is.
func (s *Store) PutAll(ctx context.Context, docs ...Document) error {
	type encoded struct {
		key  string
		body []byte
		hash string
	}
	pending := make([]encoded, 0, len(docs))
	for _, d := range docs {
		data, err := domain.MarshalCanonical(d.Value)
		if err != nil {
			return domain.Persistence("put "+d.Key, err)
		}
		body, err := encodeEnvelope(data)
		if err != nil {
			return domain.Persistence("put "+d.Key, err)
		}
		pending = append(pending, encoded{key: d.Key, body: body, hash: domain.HashWithDomain(hashDomain(d.Key), data)})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Persistence("put", err)
	}
	defer tx.Rollback()

	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, e := range pending {
		if err := s.putTx(ctx, tx, e.key, e.body, e.hash, now); err != nil {
			return domain.Persistence("put "+e.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("put", err)
	}
	return nil
}

func (s *Store) putTx(ctx context.Context, tx *sql.Tx, key string, body []byte, hash, now string) error {
	var existing string
	err := tx.QueryRowContext(ctx, `SELECT content_hash FROM documents WHERE key = ?`, key).Scan(&existing)
	switch {
	case err == nil && existing == hash:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (key, body, schema_version, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			schema_version = excluded.schema_version,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, key, body, DocumentVersion, hash, now); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (key, body, content_hash, written_at)
		VALUES (?, ?, ?, ?)
	`, key, body, hash, now); err != nil {
		return err
	}

	if s.maxRevision > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM revisions
			WHERE key = ? AND seq NOT IN (
				SELECT seq FROM revisions WHERE key = ? ORDER BY seq DESC LIMIT ?
			)
		`, key, key, s.maxRevision); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the document stored under key. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return domain.Persistence("delete "+key, err)
	}
	return nil
}

// Revisions lists the stored revisions of key, newest first.
func (s *Store) Revisions(ctx context.Context, key string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, key, content_hash, written_at
		FROM revisions
		WHERE key = ?
		ORDER BY seq DESC
	`, key)
	if err != nil {
		return nil, domain.Persistence("list revisions", err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var rev Revision
		var written string
		if err := rows.Scan(&rev.Seq, &rev.Key, &rev.ContentHash, &written); err != nil {
			return nil, domain.Persistence("list revisions", err)
		}
		rev.WrittenAt, err = time.Parse(time.RFC3339Nano, written)
		if err != nil {
			return nil, domain.Persistence("list revisions", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list revisions", err)
	}
	return revs, nil
}

// LoadRevision decodes the body of revision seq into dst.
// Returns a NOT_FOUND error when seq does not exist for key.
func (s *Store) LoadRevision(ctx context.Context, key string, seq int64, dst any) error {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM revisions WHERE key = ? AND seq = ?`, key, seq,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("load revision", "revision", fmt.Sprintf("%s@%d", key, seq))
	}
	if err != nil {
		return domain.Persistence("load revision", err)
	}
	data, err := decodeBody(body, DocumentVersion)
	if err != nil {
		return domain.Persistence("load revision", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return domain.Persistence("load revision", err)
	}
	return nil
}

// upgradeDocuments wraps pre-envelope bodies in the current envelope.
// Rows are collected before updating because the pool holds one connection.
func upgradeDocuments(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT key, body FROM documents WHERE schema_version < ?`, DocumentVersion)
	if err != nil {
		return fmt.Errorf("scan legacy documents: %w", err)
	}
	type legacy struct {
		key  string
		body []byte
	}
	var pending []legacy
	for rows.Next() {
		var l legacy
		if err := rows.Scan(&l.key, &l.body); err != nil {
			rows.Close()
			return fmt.Errorf("scan legacy documents: %w", err)
		}
		pending = append(pending, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan legacy documents: %w", err)
	}

	for _, l := range pending {
		data, err := decodeBody(l.body, 0)
		if err != nil {
			return fmt.Errorf("upgrade %s: %w", l.key, err)
		}
		canonical, err := domain.MarshalCanonical(data)
		if err != nil {
			return fmt.Errorf("upgrade %s: %w", l.key, err)
		}
		body, err := encodeEnvelope(canonical)
		if err != nil {
			return fmt.Errorf("upgrade %s: %w", l.key, err)
		}
		if _, err := db.ExecContext(ctx, `
			UPDATE documents SET body = ?, schema_version = ?, content_hash = ?
			WHERE key = ?
		`, body, DocumentVersion, domain.HashWithDomain(hashDomain(l.key), canonical), l.key); err != nil {
			return fmt.Errorf("upgrade %s: %w", l.key, err)
		}
	}
	return nil
}
