// Package importer pulls markdown knowledge notes into the vault from
// registered sources: local directories or git repositories. Imports are
// idempotent: a note only enters the vault the first time its content
// hash is seen, and each new item immediately gets its flashcards.
package importer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/review"
	"github.com/cfarrelly/memovault/internal/storage"
)

// Importer reconciles registered sources against the vault.
type Importer struct {
	db       *storage.DB
	gen      *review.Generator
	reposDir string
	now      func() time.Time
}

// New creates an Importer. Git sources are checked out under reposDir.
func New(db *storage.DB, gen *review.Generator, reposDir string) *Importer {
	return &Importer{db: db, gen: gen, reposDir: reposDir, now: time.Now}
}

// AddSource registers a path or git URL, classifying it automatically.
func (imp *Importer) AddSource(path string) (*storage.Source, error) {
	kind := storage.SourceLocal
	if IsGitURL(path) {
		kind = storage.SourceGit
	}

	existing, err := imp.db.FindSourceByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := imp.db.InsertSource(path, kind)
	if err != nil {
		return nil, err
	}
	return &storage.Source{ID: id, Path: path, Kind: kind}, nil
}

// Run reconciles every registered source. Failures on one source are
// logged and do not stop the others.
func (imp *Importer) Run() error {
	sources, err := imp.db.Sources()
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources registered")
		return nil
	}

	if err := os.MkdirAll(imp.reposDir, 0o755); err != nil {
		return fmt.Errorf("create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "kind", source.Kind, "path", source.Path)

		dir := source.Path
		if source.Kind == storage.SourceGit {
			localPath, err := repoLocalPath(imp.reposDir, source.Path)
			if err != nil {
				slog.Error("resolving git source", "url", source.Path, "error", err)
				continue
			}
			if err := fetchRepo(source.Path, localPath); err != nil {
				slog.Error("fetching git source", "url", source.Path, "error", err)
				continue
			}
			dir = localPath
		}

		if err := imp.reconcile(source, dir); err != nil {
			slog.Error("reconciling source", "id", source.ID, "error", err)
			continue
		}

		if err := imp.db.UpdateSourceLastScanned(source.ID, imp.now()); err != nil {
			slog.Warn("updating last scanned", "id", source.ID, "error", err)
		}
	}
	return nil
}

// reconcile walks one source directory, imports unseen notes, and drops
// items whose notes have disappeared from the source.
func (imp *Importer) reconcile(source storage.Source, dir string) error {
	seen := make(map[string]bool)
	var imported, failed int

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		note, err := ParseNoteFile(path, titleFromFilename(d.Name()))
		if err != nil {
			slog.Warn("parsing note", "path", path, "error", err)
			failed++
			return nil
		}
		if note.Content == "" {
			return nil
		}

		hash := Hash(note)
		seen[hash] = true

		existing, err := imp.db.FindItemByContentHash(hash)
		if err != nil {
			return fmt.Errorf("check note %s: %w", path, err)
		}
		if existing != nil {
			return nil
		}

		if err := imp.importNote(source.ID, note, hash); err != nil {
			slog.Warn("importing note", "path", path, "error", err)
			failed++
			return nil
		}
		imported++
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	removed, err := imp.removeOrphans(source.ID, seen)
	if err != nil {
		return err
	}

	slog.Info("source reconciled",
		"id", source.ID,
		"imported", imported,
		"removed", removed,
		"failed", failed,
	)
	return nil
}

func (imp *Importer) importNote(sourceID int64, note Note, hash string) error {
	now := imp.now()
	item := domain.VaultItem{
		ID:            uuid.NewString(),
		Title:         note.Title,
		Content:       note.Content,
		KnowledgeType: domain.KnowledgeConcept,
		Tags:          note.Tags,
		SourceID:      sourceID,
		ContentHash:   hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := imp.db.InsertItem(item); err != nil {
		return err
	}

	_, err := imp.gen.GenerateForItem(review.ItemRef{ID: item.ID, Title: item.Title, Content: item.Content})
	return err
}

// removeOrphans deletes this source's items whose content hash no longer
// appears in the source. Hand-written items (source_id 0) are never touched.
func (imp *Importer) removeOrphans(sourceID int64, seen map[string]bool) (int, error) {
	items, err := imp.db.ItemsBySource(sourceID)
	if err != nil {
		return 0, fmt.Errorf("load items for source %d: %w", sourceID, err)
	}

	removed := 0
	for _, item := range items {
		if seen[item.ContentHash] {
			continue
		}
		slog.Info("removing orphaned item", "id", item.ID, "title", item.Title)
		if err := imp.db.DeleteItem(item.ID); err != nil {
			slog.Warn("deleting orphaned item", "id", item.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// titleFromFilename turns "b-tree-splits.md" into "b tree splits".
func titleFromFilename(name string) string {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	title = strings.ReplaceAll(title, "-", " ")
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title)
}
