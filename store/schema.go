package store

// schema defines the four append-only/envelope tables backing the fact
// store. Fact payloads are a discriminant (kind) plus an opaque JSON blob
// so the active-fact projection can index by discriminant without ever
// interpreting the payload (spec §4.1).
const schema = `
CREATE TABLE IF NOT EXISTS subjects (
    id         TEXT PRIMARY KEY,
    kind       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS facts (
    fact_id              TEXT PRIMARY KEY,
    subject_id           TEXT NOT NULL REFERENCES subjects(id),
    kind                 TEXT NOT NULL,
    payload              BLOB NOT NULL,
    recorded_at          INTEGER NOT NULL,
    effective_at         BLOB,
    effective_until      BLOB,
    source               TEXT NOT NULL DEFAULT '',
    confidence           TEXT NOT NULL,
    context_kind         TEXT NOT NULL,
    context_source_name  TEXT NOT NULL DEFAULT '',
    context_original_uid TEXT,
    tags                 BLOB
);

CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_facts_subject_kind ON facts(subject_id, kind);

CREATE TABLE IF NOT EXISTS supersessions (
    id          TEXT PRIMARY KEY,
    old_fact_id TEXT NOT NULL UNIQUE REFERENCES facts(fact_id),
    new_fact_id TEXT NOT NULL REFERENCES facts(fact_id),
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_supersessions_recorded ON supersessions(old_fact_id, recorded_at);

CREATE TABLE IF NOT EXISTS retractions (
    id          TEXT PRIMARY KEY,
    fact_id     TEXT NOT NULL UNIQUE REFERENCES facts(fact_id),
    reason      TEXT,
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_retractions_recorded ON retractions(fact_id, recorded_at);
`
