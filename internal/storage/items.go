package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cfarrelly/memovault/internal/domain"
)

const itemColumns = `id, title, content, knowledge_type, content_hash,
	pinned, archived, COALESCE(source_id, 0), created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (domain.VaultItem, error) {
	var item domain.VaultItem
	var knowledgeType string
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Content,
		&knowledgeType,
		&item.ContentHash,
		&item.Pinned,
		&item.Archived,
		&item.SourceID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	item.KnowledgeType = domain.KnowledgeType(knowledgeType)
	return item, err
}

// InsertItem stores a new vault item and its tags in one transaction.
func (db *DB) InsertItem(item domain.VaultItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin item insert: %w", err)
	}
	defer tx.Rollback()

	var sourceID any
	if item.SourceID != 0 {
		sourceID = item.SourceID
	}

	_, err = tx.Exec(`
		INSERT INTO vault_items (id, title, content, knowledge_type, content_hash,
			pinned, archived, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID,
		item.Title,
		item.Content,
		string(item.KnowledgeType),
		item.ContentHash,
		item.Pinned,
		item.Archived,
		sourceID,
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.ID, err)
	}

	if err := replaceTags(tx, item.ID, item.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item insert: %w", err)
	}
	return nil
}

// UpdateItem rewrites an item's content fields and tag set.
func (db *DB) UpdateItem(item domain.VaultItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin item update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE vault_items
		SET title = ?, content = ?, knowledge_type = ?, content_hash = ?, updated_at = ?
		WHERE id = ?
	`,
		item.Title,
		item.Content,
		string(item.KnowledgeType),
		item.ContentHash,
		item.UpdatedAt.UTC(),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update item %s: %w", item.ID, ErrNotFound)
	}

	if err := replaceTags(tx, item.ID, item.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item update: %w", err)
	}
	return nil
}

// replaceTags makes the item's tag set exactly match tags, creating tag
// rows on first use.
func replaceTags(tx *sql.Tx, itemID string, tags []string) error {
	if _, err := tx.Exec(`DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clear tags for item %s: %w", itemID, err)
	}

	for _, tag := range tags {
		name := strings.TrimSpace(tag)
		if name == "" {
			continue
		}

		var tagID string
		err := tx.QueryRow(`SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			tagID = uuid.NewString()
			if _, err := tx.Exec(`INSERT INTO tags (id, name) VALUES (?, ?)`, tagID, name); err != nil {
				return fmt.Errorf("insert tag %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("look up tag %q: %w", name, err)
		}

		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)
		`, itemID, tagID); err != nil {
			return fmt.Errorf("attach tag %q to item %s: %w", name, itemID, err)
		}
	}
	return nil
}

// FindItemByID retrieves one item with its tags. Returns nil when no item
// matches.
func (db *DB) FindItemByID(id string) (*domain.VaultItem, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM vault_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item %s: %w", id, err)
	}

	tags, err := db.tagsByItem([]string{id})
	if err != nil {
		return nil, err
	}
	item.Tags = tags[id]
	return &item, nil
}

// FindItemByContentHash retrieves an imported item by its content hash.
// Returns nil when no item matches.
func (db *DB) FindItemByContentHash(hash string) (*domain.VaultItem, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM vault_items WHERE content_hash = ?`, hash)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item by hash %s: %w", hash, err)
	}
	return &item, nil
}

// ListItems returns vault items, pinned first then most recently updated.
// Archived items are excluded unless includeArchived is set.
func (db *DB) ListItems(includeArchived bool) ([]domain.VaultItem, error) {
	query := `SELECT ` + itemColumns + ` FROM vault_items`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY pinned DESC, updated_at DESC`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	return db.collectItems(rows)
}

// ItemsBySource lists the items imported from one source.
func (db *DB) ItemsBySource(sourceID int64) ([]domain.VaultItem, error) {
	rows, err := db.conn.Query(`SELECT `+itemColumns+` FROM vault_items WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("list items for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	return db.collectItems(rows)
}

func (db *DB) collectItems(rows *sql.Rows) ([]domain.VaultItem, error) {
	var items []domain.VaultItem
	var ids []string
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}

	tags, err := db.tagsByItem(ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = tags[items[i].ID]
	}
	return items, nil
}

func (db *DB) tagsByItem(itemIDs []string) (map[string][]string, error) {
	if len(itemIDs) == 0 {
		return map[string][]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(itemIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := db.conn.Query(`
		SELECT it.item_id, t.name
		FROM item_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.item_id IN (`+placeholders+`)
		ORDER BY t.name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var itemID, name string
		if err := rows.Scan(&itemID, &name); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		tags[itemID] = append(tags[itemID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return tags, nil
}

// SetItemPinned toggles the pinned flag.
func (db *DB) SetItemPinned(id string, pinned bool) error {
	return db.setItemFlag(id, "pinned", pinned)
}

// SetItemArchived toggles the archived flag.
func (db *DB) SetItemArchived(id string, archived bool) error {
	return db.setItemFlag(id, "archived", archived)
}

func (db *DB) setItemFlag(id, column string, value bool) error {
	res, err := db.conn.Exec(`UPDATE vault_items SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("set %s for item %s: %w", column, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set %s for item %s: %w", column, id, ErrNotFound)
	}
	return nil
}

// DeleteItem removes an item along with its tags, flashcards, and their
// review history. Deletion is an item-owner action: the review core never
// calls this.
func (db *DB) DeleteItem(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin item delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM review_events
		WHERE flashcard_id IN (SELECT id FROM flashcards WHERE item_id = ?)
	`, id); err != nil {
		return fmt.Errorf("delete review events for item %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM flashcards WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete cards for item %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM item_tags WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete tags for item %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM vault_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item delete: %w", err)
	}
	return nil
}
