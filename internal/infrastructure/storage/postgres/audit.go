package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "tradedesk/internal/core/context"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/audit"
)

// CompressionAlgo specifies the compression applied to stored changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditEntry is a single row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	ClientID          string          `db:"client_id"`
	RequestID         string          `db:"request_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes submitted documents to the audit log.
type AuditService struct {
	txManager *TxManager
	codec     *changeCodec
}

var _ audit.Trail = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	codec, err := newChangeCodec(DefaultCompressThreshold)
	if err != nil {
		return nil, err
	}
	return &AuditService{txManager: txManager, codec: codec}, nil
}

// Log records an audit entry inside the transaction in ctx, if any.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.ClientID == "" {
		entry.ClientID = appctx.GetClientID(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = appctx.GetRequestID(ctx)
	}

	entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo = s.codec.encode(entry.Changes)

	const q = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, client_id, request_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, q,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.ClientID, entry.RequestID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// LogChange implements audit.Trail.
func (s *AuditService) LogChange(ctx context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    raw,
	})
}

// History returns the newest entries for an entity with changes decompressed.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	const q = `
		SELECT id, entity_type, entity_id, action, client_id, request_id,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, q, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ClientID, &e.RequestID,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Changes, err = s.codec.decode(e.Changes, e.ChangesCompressed, e.CompressionAlgo); err != nil {
			return nil, err
		}
		e.ChangesCompressed = nil
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// changeCodec compresses change payloads above a size threshold.
type changeCodec struct {
	threshold int
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
}

func newChangeCodec(threshold int) (*changeCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &changeCodec{threshold: threshold, encoder: encoder, decoder: decoder}, nil
}

// encode returns exactly one of plain or compressed.
func (c *changeCodec) encode(changes json.RawMessage) (plain json.RawMessage, compressed []byte, algo CompressionAlgo) {
	if len(changes) <= c.threshold {
		return changes, nil, CompressionNone
	}
	return nil, c.encoder.EncodeAll(changes, nil), CompressionZstd
}

func (c *changeCodec) decode(plain json.RawMessage, compressed []byte, algo CompressionAlgo) (json.RawMessage, error) {
	if algo != CompressionZstd || len(compressed) == 0 {
		return plain, nil
	}
	out, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress changes: %w", err)
	}
	return out, nil
}
