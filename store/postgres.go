package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres stores every document in one JSONB table. Field patches are
// applied under a row lock so concurrent writers interleave at document
// granularity, matching the adapter contract. Live queries observe writes
// made through this process only.
type Postgres struct {
	db       *sql.DB
	notifier *notifier
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("store: DATABASE_URL is required for the postgres driver")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	p := &Postgres{db: db}
	p.notifier = newNotifier(p.Query)
	if err := p.migrate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_list_id ON documents((data->>'listId'))`,
	}
	for _, migration := range migrations {
		if _, err := p.db.Exec(migration); err != nil {
			return fmt.Errorf("store: failed to run migration: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, id) DO UPDATE SET data = $3, updated_at = NOW()
	`, collection, id, data)
	if err != nil {
		return err
	}
	p.notifier.changed(collection)
	return nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch Patch) error {
	if err := validatePatch(collection, patch); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateInTx(ctx, tx, collection, id, patch); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	p.notifier.changed(collection)
	return nil
}

func updateInTx(ctx context.Context, tx *sql.Tx, collection, id string, patch Patch) error {
	var data []byte
	err := tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
		collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	updated, err := applyPatch(data, patch)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET data = $1, updated_at = NOW() WHERE collection = $2 AND id = $3`,
		updated, collection, id)
	return err
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	p.notifier.changed(collection)
	return nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]Document, error) {
	sqlQuery, args := buildQuery(q)
	rows, err := p.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, err
		}
		doc.Data = data
		out = append(out, doc)
	}
	return out, rows.Err()
}

func buildQuery(q Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{q.Collection}

	for _, c := range q.Conds {
		field := pq.QuoteLiteral(c.Field)
		switch c.Op {
		case Eq:
			args = append(args, mustJSON(c.Value))
			fmt.Fprintf(&sb, ` AND data->%s = $%d::jsonb`, field, len(args))
		case ArrayContains:
			args = append(args, mustJSON([]any{normalize(c.Value)}))
			fmt.Fprintf(&sb, ` AND data->%s @> $%d::jsonb`, field, len(args))
		case Gte:
			args = append(args, fmt.Sprint(c.Value))
			fmt.Fprintf(&sb, ` AND data->>%s >= $%d`, field, len(args))
		case Lte:
			args = append(args, fmt.Sprint(c.Value))
			fmt.Fprintf(&sb, ` AND data->>%s <= $%d`, field, len(args))
		}
	}

	sb.WriteString(` ORDER BY id`)
	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %d`, q.Limit)
	}
	return sb.String(), args
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (p *Postgres) Batch() Batch {
	return &postgresBatch{store: p}
}

func (p *Postgres) Subscribe(q Query) (*Subscription, error) {
	return p.notifier.subscribe(q)
}

func (p *Postgres) Close() error {
	p.notifier.closeAll()
	return p.db.Close()
}

type postgresBatch struct {
	store *Postgres
	ops   []batchOp
}

func (b *postgresBatch) Set(collection, id string, doc any) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, doc: doc})
}

func (b *postgresBatch) Update(collection, id string, patch Patch) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, patch: patch})
}

func (b *postgresBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
}

func (b *postgresBatch) Commit(ctx context.Context) error {
	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	touched := map[string]struct{}{}
	for _, op := range b.ops {
		touched[op.collection] = struct{}{}
		switch op.kind {
		case "set":
			data, err := json.Marshal(op.doc)
			if err != nil {
				return fmt.Errorf("store: encode document: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, data, updated_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (collection, id) DO UPDATE SET data = $3, updated_at = NOW()
			`, op.collection, op.id, data); err != nil {
				return err
			}
		case "update":
			if err := validatePatch(op.collection, op.patch); err != nil {
				return err
			}
			if err := updateInTx(ctx, tx, op.collection, op.id, op.patch); err != nil {
				return err
			}
		case "delete":
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = $1 AND id = $2`,
				op.collection, op.id); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	for collection := range touched {
		b.store.notifier.changed(collection)
	}
	return nil
}
