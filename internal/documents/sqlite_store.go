package documents

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	sq "github.com/Masterminds/squirrel"

	"github.com/localrivet/docsummary/internal/errortypes"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		content BLOB NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS summaries (
		document_name TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		provider TEXT NOT NULL,
		language TEXT NOT NULL,
		requirement TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
}

var metadataColumns = []string{"path", "id", "name", "content_type", "size", "checksum", "created_at", "updated_at"}

// SQLiteStore is an implementation of Store that uses SQLite.
// A single connection is shared and guarded by a mutex.
type SQLiteStore struct {
	conn   *sqlite.Conn
	dbPath string
	mu     sync.Mutex
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{now: time.Now}
}

// Initialize initializes the store with the given database path.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to open SQLite database").WithField("path", dbPath)
	}
	s.conn = conn

	for _, stmt := range schema {
		if err := sqlitex.ExecTransient(s.conn, stmt, nil); err != nil {
			s.conn.Close()
			s.conn = nil
			return errortypes.DatabaseError(err, "failed to create tables")
		}
	}

	return nil
}

// Close closes the store and releases any resources.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// exec prepares the squirrel-built query, binds its args and calls fn for
// every result row. fn may be nil for statements without results.
func (s *SQLiteStore) exec(builder sq.Sqlizer, fn func(stmt *sqlite.Stmt) error) error {
	if s.conn == nil {
		return errortypes.DatabaseError(nil, "store is not initialized")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return errortypes.InternalError(err, "failed to build query")
	}

	stmt, err := s.conn.Prepare(query)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to prepare statement").WithField("query", query)
	}
	defer stmt.Reset()

	// Parameter indices in sqlite are 1-based
	for i, arg := range args {
		if err := bind(stmt, i+1, arg); err != nil {
			return err
		}
	}

	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return errortypes.DatabaseError(err, "failed to execute statement").WithField("query", query)
		}
		if !hasRow {
			return nil
		}
		if fn != nil {
			if err := fn(stmt); err != nil {
				return err
			}
		}
	}
}

func bind(stmt *sqlite.Stmt, param int, arg interface{}) error {
	switch v := arg.(type) {
	case nil:
		stmt.BindNull(param)
	case string:
		stmt.BindText(param, v)
	case []byte:
		// BindBytes binds NULL for an empty slice
		if len(v) == 0 {
			stmt.BindZeroBlob(param, 0)
		} else {
			stmt.BindBytes(param, v)
		}
	case int:
		stmt.BindInt64(param, int64(v))
	case int64:
		stmt.BindInt64(param, v)
	case bool:
		stmt.BindBool(param, v)
	case float64:
		stmt.BindFloat(param, v)
	case time.Time:
		stmt.BindInt64(param, v.UnixNano())
	default:
		return errortypes.InternalError(nil, fmt.Sprintf("unsupported bind type %T", arg))
	}
	return nil
}

func columnTime(stmt *sqlite.Stmt, col int) time.Time {
	return time.Unix(0, stmt.ColumnInt64(col)).UTC()
}

// scanMetadata reads the metadataColumns of the current row.
func scanMetadata(stmt *sqlite.Stmt) Document {
	return Document{
		Path:        stmt.ColumnText(0),
		ID:          stmt.ColumnText(1),
		Name:        stmt.ColumnText(2),
		ContentType: stmt.ColumnText(3),
		Size:        stmt.ColumnInt64(4),
		Checksum:    stmt.ColumnText(5),
		CreatedAt:   columnTime(stmt, 6),
		UpdatedAt:   columnTime(stmt, 7),
	}
}

// SaveDocument inserts doc, replacing any document stored at the same path.
// The original creation time of a replaced document is kept.
func (s *SQLiteStore) SaveDocument(doc *Document) error {
	if doc == nil || doc.Path == "" {
		return errortypes.ValidationError(nil, "document path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	content := doc.Content
	if content == nil {
		content = []byte{}
	}

	insert := sq.Insert("documents").
		Columns("path", "id", "name", "content_type", "size", "checksum", "content", "text", "created_at", "updated_at").
		Values(doc.Path, doc.ID, doc.Name, doc.ContentType, doc.Size, doc.Checksum, content, doc.Text, doc.CreatedAt, doc.UpdatedAt).
		Suffix(`ON CONFLICT(path) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			content_type = excluded.content_type,
			size = excluded.size,
			checksum = excluded.checksum,
			content = excluded.content,
			text = excluded.text,
			updated_at = excluded.updated_at`)

	if err := s.exec(insert, nil); err != nil {
		return err
	}

	// Report the creation time actually stored for replaced documents.
	return s.exec(sq.Select("created_at").From("documents").Where(sq.Eq{"path": doc.Path}), func(stmt *sqlite.Stmt) error {
		doc.CreatedAt = columnTime(stmt, 0)
		return nil
	})
}

// GetDocument returns the document at path including its content and text.
func (s *SQLiteStore) GetDocument(path string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc *Document
	query := sq.Select(append(metadataColumns, "content", "text")...).
		From("documents").
		Where(sq.Eq{"path": path})

	err := s.exec(query, func(stmt *sqlite.Stmt) error {
		d := scanMetadata(stmt)
		d.Content = make([]byte, stmt.ColumnLen(8))
		stmt.ColumnBytes(8, d.Content)
		d.Text = stmt.ColumnText(9)
		doc = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errortypes.NotFoundError(nil, "document not found").WithField("path", path)
	}
	return doc, nil
}

// ListDocuments returns metadata of the documents under prefix, newest first.
func (s *SQLiteStore) ListDocuments(prefix string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := sq.Select(metadataColumns...).From("documents").OrderBy("updated_at DESC", "path")
	if prefix != "" {
		// substr counts characters, and unlike LIKE it needs no escaping
		query = query.Where("substr(path, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix)
	}

	docs := []Document{}
	err := s.exec(query, func(stmt *sqlite.Stmt) error {
		docs = append(docs, scanMetadata(stmt))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes the document at path and the summary stored under
// its name. A missing summary is not an error; a missing document is.
func (s *SQLiteStore) DeleteDocument(path string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errortypes.DatabaseError(nil, "store is not initialized")
	}

	defer sqlitex.Save(s.conn)(&err)

	if err := s.exec(sq.Delete("documents").Where(sq.Eq{"path": path}), nil); err != nil {
		return err
	}
	if s.conn.Changes() == 0 {
		return errortypes.NotFoundError(nil, "document not found").WithField("path", path)
	}

	return s.exec(sq.Delete("summaries").Where(sq.Eq{"document_name": NameOf(path)}), nil)
}

// SaveSummary inserts or replaces the summary of summary.DocumentName.
func (s *SQLiteStore) SaveSummary(summary *Summary) error {
	if summary == nil || summary.DocumentName == "" {
		return errortypes.ValidationError(nil, "summary document name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now

	insert := sq.Insert("summaries").
		Columns("document_name", "summary", "provider", "language", "requirement", "created_at", "updated_at").
		Values(summary.DocumentName, summary.Summary, summary.Provider, summary.Language, summary.Requirement, summary.CreatedAt, summary.UpdatedAt).
		Suffix(`ON CONFLICT(document_name) DO UPDATE SET
			summary = excluded.summary,
			provider = excluded.provider,
			language = excluded.language,
			requirement = excluded.requirement,
			updated_at = excluded.updated_at`)

	return s.exec(insert, nil)
}

// GetSummary returns the summary stored for documentName.
func (s *SQLiteStore) GetSummary(documentName string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary *Summary
	query := sq.Select("document_name", "summary", "provider", "language", "requirement", "created_at", "updated_at").
		From("summaries").
		Where(sq.Eq{"document_name": documentName})

	err := s.exec(query, func(stmt *sqlite.Stmt) error {
		summary = &Summary{
			DocumentName: stmt.ColumnText(0),
			Summary:      stmt.ColumnText(1),
			Provider:     stmt.ColumnText(2),
			Language:     stmt.ColumnText(3),
			Requirement:  stmt.ColumnText(4),
			CreatedAt:    columnTime(stmt, 5),
			UpdatedAt:    columnTime(stmt, 6),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, errortypes.NotFoundError(nil, "summary not found").WithField("document", documentName)
	}
	return summary, nil
}
