package sqlite

// Schema creates the ingestor tables. All statements are idempotent so the
// schema can be applied on every open.
const Schema = `
CREATE TABLE IF NOT EXISTS content (
    id           TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    source_path  TEXT NOT NULL DEFAULT '',
    preview      TEXT NOT NULL DEFAULT '',
    size_bytes   INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL,
    UNIQUE(name, entity_type)
);

CREATE TABLE IF NOT EXISTS entity_mentions (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_id       TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    content_id      TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
    content_type    TEXT NOT NULL,
    relevance       REAL NOT NULL DEFAULT 0,
    mention_context TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_mentions_entity ON entity_mentions(entity_id);
CREATE INDEX IF NOT EXISTS idx_mentions_content ON entity_mentions(content_id);
`
