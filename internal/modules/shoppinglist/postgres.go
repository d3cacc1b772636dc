package shoppinglist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/georgemunganga/slist-backend/internal/database"
)

// documentID is the row holding the single shared document.
const documentID = "default"

type sqlRepository struct {
	db       *database.DB
	defaults Defaults
	logger   *slog.Logger
}

// NewSQLRepository stores the document as one row of the documents table
// (jsonb on postgres, text on sqlite).
func NewSQLRepository(db *database.DB, defaults Defaults, logger *slog.Logger) Repository {
	return &sqlRepository{db: db, defaults: defaults, logger: logger}
}

func (r *sqlRepository) Load(ctx context.Context) (*Document, error) {
	var body []byte
	err := r.db.SQL.QueryRowContext(ctx,
		r.db.Rebind(`SELECT body FROM documents WHERE id=$1`), documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		doc := r.defaults.Document()
		if err := r.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := DecodeDocument(body, r.defaults)
	if err != nil {
		r.logger.Warn("stored document is corrupt, using defaults", "error", err)
		return r.defaults.Document(), nil
	}
	return doc, nil
}

func (r *sqlRepository) Save(ctx context.Context, doc *Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	_, err = r.db.SQL.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO documents (id, body, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET body=EXCLUDED.body, updated_at=EXCLUDED.updated_at`),
		documentID, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}
