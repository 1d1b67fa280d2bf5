package storage

const schema = `
-- The 'texts' table stores one JSON record per text; the rowid is the
-- only source of fresh text ids.
CREATE TABLE IF NOT EXISTS texts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    record TEXT NOT NULL
);

-- The 'sessions' table holds one row per calendar date the user practiced.
CREATE TABLE IF NOT EXISTS sessions (
    date TEXT PRIMARY KEY
);
`
