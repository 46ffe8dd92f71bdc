package index

import (
	"log/slog"

	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the docs root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Files whose front-matter fails to parse are skipped; the healer owns
// their repair.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, info.Path, info.Checksum, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path, cs string, data []byte) error {
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return err
	}

	title := fm["title"].AsString()
	if title == "" {
		title = path
	}
	row := DocRow{
		Path:     path,
		Title:    title,
		Checksum: cs,
		Keywords: fm["ai_keywords"].AsList(),
		Phase:    corpus.ParsePhase(fm["evolutionary_phase"].AsString()),
		System:   fm["biological_system"].AsString(),
	}
	if ts, ok := corpus.ParseTimestamp(fm["last_updated"].AsString()); ok {
		row.UpdatedAt = ts
	}
	return db.UpsertDocument(row, body)
}
