package sqliteDB

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	source      TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	vector      BLOB NOT NULL,
	ingested_at INTEGER NOT NULL
);`

// Index is a file-backed vector index searched by brute force.
// Records with equal scores come back in insertion order.
type Index struct {
	db        *sql.DB
	path      string
	dimension int
	logger    *logger_i.Logger
}

var _ vectorDB.VectorIndex = (*Index)(nil)

// New opens (or creates) the index file under dataDir.
func New(ctx context.Context, dataDir string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, goerr.New("sqlite index needs a positive dimension", goerr.V("dimension", dimension))
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, ragErrors.Index(err, "creating data directory", goerr.V("dir", dataDir))
	}
	path := filepath.Join(dataDir, config.SQLiteIndexFile)
	return open(ctx, path, dimension)
}

func open(ctx context.Context, path string, dimension int) (*Index, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", path, config.SQLiteBusyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ragErrors.Index(err, "opening sqlite index", goerr.V("path", path))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, ragErrors.Index(err, "creating sqlite index schema", goerr.V("path", path))
	}

	idx := &Index{db: db, path: path, dimension: dimension, logger: logger_i.NewLogger("SQLite Index")}
	if err := idx.checkDimension(ctx); err != nil {
		db.Close()
		return nil, err
	}
	idx.logger.Info("SQLite index ready", "path", path, "dimension", dimension)
	return idx, nil
}

// checkDimension pins the index to the dimension it was created with.
func (s *Index) checkDimension(ctx context.Context) error {
	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'dimension'`).Scan(&stored)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES ('dimension', ?)`, strconv.Itoa(s.dimension))
		if err != nil {
			return ragErrors.Index(err, "storing index dimension")
		}
		return nil
	}
	if err != nil {
		return ragErrors.Index(err, "reading index dimension")
	}
	if stored != strconv.Itoa(s.dimension) {
		return ragErrors.Index(nil, "index was created with another embedding dimension",
			goerr.V("stored", stored), goerr.V("configured", s.dimension))
	}
	return nil
}

func (s *Index) Close() error {
	return s.db.Close()
}

// Insert writes all records in one transaction.
func (s *Index) Insert(ctx context.Context, records []commonModels.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return ragErrors.Index(nil, "vector dimension mismatch",
				goerr.V("want", s.dimension), goerr.V("got", len(r.Vector)))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ragErrors.Index(err, "beginning insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, source, chunk_index, content, vector, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ragErrors.Index(err, "preparing insert")
	}
	defer stmt.Close()

	for _, r := range records {
		id := r.Id
		if id == "" {
			id = uuid.NewString()
		}
		ingested := r.Metadata.IngestedAt
		if ingested.IsZero() {
			ingested = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, id, r.Metadata.Source, r.Metadata.ChunkIndex, r.Text,
			encodeVector(r.Vector), ingested.UnixNano()); err != nil {
			return ragErrors.Index(err, "inserting record", goerr.V("id", id))
		}
	}
	if err := tx.Commit(); err != nil {
		return ragErrors.Index(err, "committing insert", goerr.V("records", len(records)))
	}
	return nil
}

func (s *Index) Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredRecord, error) {
	if k <= 0 {
		return []commonModels.ScoredRecord{}, nil
	}
	if len(vector) != s.dimension {
		return nil, ragErrors.Index(nil, "query dimension mismatch",
			goerr.V("want", s.dimension), goerr.V("got", len(vector)))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, chunk_index, content, vector, ingested_at
		FROM records ORDER BY seq`)
	if err != nil {
		return nil, ragErrors.Index(err, "querying records")
	}
	defer rows.Close()

	hits := []commonModels.ScoredRecord{}
	for rows.Next() {
		var (
			r        commonModels.ScoredRecord
			blob     []byte
			ingested int64
		)
		if err := rows.Scan(&r.Id, &r.Metadata.Source, &r.Metadata.ChunkIndex, &r.Text, &blob, &ingested); err != nil {
			return nil, ragErrors.Index(err, "scanning record")
		}
		vec, err := decodeVector(blob, s.dimension)
		if err != nil {
			return nil, ragErrors.Index(err, "corrupt vector", goerr.V("id", r.Id))
		}
		r.Vector = vec
		r.Metadata.IngestedAt = time.Unix(0, ingested).UTC()
		r.Score = embedding.Dot(vector, vec)
		hits = append(hits, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ragErrors.Index(err, "iterating records")
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte, dimension int) ([]float32, error) {
	if len(data) != dimension*4 {
		return nil, goerr.New("vector blob has wrong length", goerr.V("bytes", len(data)), goerr.V("dimension", dimension))
	}
	floats := make([]float32, dimension)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}
