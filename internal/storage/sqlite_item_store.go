package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/pkg/models"
)

// defaultSQLiteDSN names a fresh in-memory database, so every store opened
// without a DSN owns its items.
func defaultSQLiteDSN() string {
	return fmt.Sprintf("file:shoplist-%s?mode=memory&cache=shared", uuid.NewString())
}

const itemSchema = `
CREATE TABLE IF NOT EXISTS shopping_list_item_v1 (
	seq INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
	id TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	completed BOOLEAN NOT NULL DEFAULT 0
);
`

const (
	insertItemSQL  = `INSERT INTO shopping_list_item_v1 (id, title, completed) VALUES (?, ?, ?)`
	selectItemSQL  = `SELECT id, title, completed FROM shopping_list_item_v1 WHERE id = ?`
	selectItemsSQL = `SELECT id, title, completed FROM shopping_list_item_v1 ORDER BY seq`
	updateItemSQL  = `UPDATE shopping_list_item_v1 SET title = ?, completed = ? WHERE id = ?`
	deleteItemSQL  = `DELETE FROM shopping_list_item_v1 WHERE id = ?`
)

// SQLiteItemStore keeps items in a SQLite database through sqlx. Reads and
// read-modify-write sequences run inside transactions on a single connection,
// which serializes mutations the same way the memory store's lock does.
type SQLiteItemStore struct {
	db    *sqlx.DB
	newID func() string
}

func NewSQLiteItemStore(dsn string) (*SQLiteItemStore, error) {
	if dsn == "" {
		dsn = defaultSQLiteDSN()
	}
	if err := ensureDataDir(dsn); err != nil {
		return nil, err
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite item store: %w", err)
	}
	// In-memory databases live per connection; one connection also keeps
	// writers serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(itemSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init item schema: %w", err)
	}
	return &SQLiteItemStore{db: db, newID: uuid.NewString}, nil
}

func (s *SQLiteItemStore) Create(ctx context.Context, info models.NewItem) (models.Item, error) {
	item := models.Item{ID: s.newID(), Title: info.Title, Completed: info.Completed}
	if _, err := s.db.ExecContext(ctx, insertItemSQL, item.ID, item.Title, item.Completed); err != nil {
		return models.Item{}, storageError("insert item", err)
	}
	return item, nil
}

func (s *SQLiteItemStore) FindByID(ctx context.Context, id string) (models.Item, error) {
	var item models.Item
	if err := s.db.GetContext(ctx, &item, selectItemSQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, contracts.NewItemNotFound(id)
		}
		return models.Item{}, storageError("select item", err)
	}
	return item, nil
}

func (s *SQLiteItemStore) FindAll(ctx context.Context) ([]models.Item, error) {
	items := make([]models.Item, 0)
	if err := s.db.SelectContext(ctx, &items, selectItemsSQL); err != nil {
		return nil, storageError("select items", err)
	}
	return items, nil
}

func (s *SQLiteItemStore) Update(ctx context.Context, id string, update models.ItemUpdate) (models.Item, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Item{}, storageError("begin update", err)
	}
	defer tx.Rollback()

	var item models.Item
	if err := tx.GetContext(ctx, &item, selectItemSQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, contracts.NewItemNotFound(id)
		}
		return models.Item{}, storageError("select item", err)
	}
	item = update.ApplyTo(item)
	if _, err := tx.ExecContext(ctx, updateItemSQL, item.Title, item.Completed, id); err != nil {
		return models.Item{}, storageError("update item", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Item{}, storageError("commit update", err)
	}
	return item, nil
}

func (s *SQLiteItemStore) Delete(ctx context.Context, id string) (models.Item, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Item{}, storageError("begin delete", err)
	}
	defer tx.Rollback()

	var item models.Item
	if err := tx.GetContext(ctx, &item, selectItemSQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Item{}, contracts.NewItemNotFound(id)
		}
		return models.Item{}, storageError("select item", err)
	}
	if _, err := tx.ExecContext(ctx, deleteItemSQL, id); err != nil {
		return models.Item{}, storageError("delete item", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Item{}, storageError("commit delete", err)
	}
	return item, nil
}

func (s *SQLiteItemStore) Close() error {
	return s.db.Close()
}

// ensureDataDir creates the private parent directory for plain file paths.
// URI DSNs and :memory: are passed to the driver untouched.
func ensureDataDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return fmt.Errorf("create sqlite data dir: %w", err)
	}
	return nil
}

func storageError(op string, err error) error {
	return contracts.WrapCategorizedError(contracts.ErrorCategoryStorage, fmt.Errorf("%s: %w", op, err))
}
