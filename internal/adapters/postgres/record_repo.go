package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/mapsearch/internal/core/domain"
)

// RecordRepo implements ports.RecordStorage on the record store's
// PostgreSQL backend (the "records" table).
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

func bucketURI(bucket string) string {
	return "/buckets/" + bucket
}

func collectionURI(bucket, collection string) string {
	return "/buckets/" + bucket + "/collections/" + collection
}

// CollectionMetadata returns the collection object's attributes.
func (r *RecordRepo) CollectionMetadata(ctx context.Context, bucket, collection string) (map[string]json.RawMessage, error) {
	var data []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT data
		FROM records
		WHERE parent_id = $1 AND collection_id = 'collection' AND id = $2 AND NOT deleted
	`, bucketURI(bucket), collection).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query collection %s/%s: %w", bucket, collection, err)
	}

	var meta map[string]json.RawMessage
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode collection %s/%s: %w", bucket, collection, err)
	}
	return meta, nil
}

// recordsPageQuery builds the page query, newest first.
func recordsPageQuery(parentID string, before *int64, limit int) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, as_epoch(last_modified) AS last_modified, data
		FROM records
		WHERE parent_id = $1 AND collection_id = 'record' AND NOT deleted`)
	args := []any{parentID}
	if before != nil {
		args = append(args, *before)
		fmt.Fprintf(&sb, "\n\t\t  AND as_epoch(last_modified) < $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, "\n\t\tORDER BY last_modified DESC\n\t\tLIMIT $%d", len(args))
	return sb.String(), args
}

// RecordsPage returns up to limit records, newest first, strictly older than
// before when set.
func (r *RecordRepo) RecordsPage(ctx context.Context, bucket, collection string, before *int64, limit int) ([]domain.Record, error) {
	sql, args := recordsPageQuery(collectionURI(bucket, collection), before, limit)
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			id           string
			lastModified int64
			data         []byte
		)
		if err := rows.Scan(&id, &lastModified, &data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		rec, err := decodeRecord(id, lastModified, data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// decodeRecord keeps the full stored body; id and last_modified come from
// their columns.
func decodeRecord(id string, lastModified int64, data []byte) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	rec.ID = id
	rec.LastModified = lastModified
	return rec, nil
}
