package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS budget (
    id                   INTEGER PRIMARY KEY,
    total_budget         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS anvelopes (
    id                   INTEGER PRIMARY KEY,
    anvelope_name        TEXT NOT NULL,
    anvelope_budget      INTEGER NOT NULL DEFAULT 0,
    budget_id            INTEGER NOT NULL REFERENCES budget(id)
);

CREATE INDEX IF NOT EXISTS idx_anvelopes_budget ON anvelopes(budget_id);
`
