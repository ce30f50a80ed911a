package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"kadryhr/internal/core/id"
	"kadryhr/internal/domain/audit"
)

// DefaultCompressThreshold is the snapshot size above which snapshots are stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

const auditColumns = "id, organisation_id, actor_id, action, entity_type, entity_id, before, after, before_zstd, after_zstd, created_at"

var _ audit.Store = (*AuditRepo)(nil)

// AuditRepo is the append-only audit_log store.
type AuditRepo struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditRepo creates the audit store.
func NewAuditRepo(txManager *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRepo{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// snapshot is a stored before/after pair: exactly one of plain or packed is set.
type snapshot struct {
	plain  []byte
	packed []byte
}

func (r *AuditRepo) pack(raw json.RawMessage) snapshot {
	if len(raw) == 0 {
		return snapshot{}
	}
	if len(raw) > r.compressThreshold {
		return snapshot{packed: r.encoder.EncodeAll(raw, nil)}
	}
	return snapshot{plain: raw}
}

func (r *AuditRepo) unpack(plain, packed []byte) (json.RawMessage, error) {
	if len(packed) > 0 {
		out, err := r.decoder.DecodeAll(packed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		return out, nil
	}
	if len(plain) == 0 {
		return nil, nil
	}
	return plain, nil
}

// nullable turns an empty slice into SQL NULL.
func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Append implements audit.Store.
func (r *AuditRepo) Append(ctx context.Context, e audit.Entry) error {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	before, after := r.pack(e.Before), r.pack(e.After)

	_, err := r.txManager.Querier(ctx).Exec(ctx, `
		INSERT INTO audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		e.ID, e.OrganisationID, e.ActorID, e.Action, e.EntityType, e.EntityID,
		nullable(before.plain), nullable(after.plain), nullable(before.packed), nullable(after.packed),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// listAuditQuery builds the filtered query without ordering or pagination.
func listAuditQuery(f audit.Filter) squirrel.SelectBuilder {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(auditColumns).
		From("audit_log").
		Where(squirrel.Eq{"organisation_id": f.OrganisationID})
	if f.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": f.EntityType})
	}
	if f.Action != "" {
		q = q.Where(squirrel.Eq{"action": f.Action})
	}
	if f.EntityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *f.EntityID})
	}
	if f.ActorID != nil {
		q = q.Where(squirrel.Eq{"actor_id": *f.ActorID})
	}
	return q
}

// List implements audit.Store. Entries are returned newest first.
func (r *AuditRepo) List(ctx context.Context, f audit.Filter) (audit.Page, error) {
	page := audit.Page{Items: []audit.Entry{}, Skip: f.Skip, Take: f.Take}
	q := listAuditQuery(f)
	querier := r.txManager.Querier(ctx)

	countSQL, countArgs, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return page, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&page.Total); err != nil {
		return page, fmt.Errorf("count audit entries: %w", err)
	}

	sql, args, err := q.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Take)).
		Offset(uint64(f.Skip)).
		ToSql()
	if err != nil {
		return page, fmt.Errorf("build query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return page, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e audit.Entry
		var before, after, beforeZ, afterZ []byte
		if err := rows.Scan(
			&e.ID, &e.OrganisationID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&before, &after, &beforeZ, &afterZ, &e.CreatedAt,
		); err != nil {
			return page, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.Before, err = r.unpack(before, beforeZ); err != nil {
			return page, err
		}
		if e.After, err = r.unpack(after, afterZ); err != nil {
			return page, err
		}
		page.Items = append(page.Items, e)
	}
	return page, rows.Err()
}
