package storage

import (
	"fmt"
	"strings"

	"github.com/cfarrelly/memovault/internal/domain"
)

// buildFTSQuery turns free-form user input into an FTS5 prefix query: each
// token is quoted (embedded quotes doubled) and given a * suffix so partial
// words match. Empty input produces an empty query.
func buildFTSQuery(input string) string {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return ""
	}

	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ReplaceAll(token, `"`, `""`)
		parts = append(parts, `"`+token+`"*`)
	}
	return strings.Join(parts, " ")
}

// SearchItems runs a full-text search over item titles and content,
// best match first. Archived items are excluded.
func (db *DB) SearchItems(input string) ([]domain.VaultItem, error) {
	query := buildFTSQuery(input)
	if query == "" {
		return nil, nil
	}

	rows, err := db.conn.Query(`
		SELECT v.id, v.title, v.content, v.knowledge_type, v.content_hash,
			v.pinned, v.archived, COALESCE(v.source_id, 0), v.created_at, v.updated_at
		FROM vault_items_fts f
		JOIN vault_items v ON v.rowid = f.rowid
		WHERE vault_items_fts MATCH ? AND v.archived = 0
		ORDER BY rank
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search items for %q: %w", input, err)
	}
	defer rows.Close()

	return db.collectItems(rows)
}
