package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Balances, values, and prices are stored as TEXT holding exact decimal
// strings; REAL would reintroduce the drift the ledger exists to avoid.
// quantity_cakes is intentionally absent from contributions: it is always
// derived from value and cake_unit_price.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT UNIQUE,
    photo_url TEXT,
    balance TEXT NOT NULL DEFAULT '0',
    is_active INTEGER NOT NULL DEFAULT 1,
    is_admin INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contributions (
    id TEXT PRIMARY KEY,
    payer_user_id TEXT NOT NULL,
    purchase_date TEXT NOT NULL,
    value TEXT NOT NULL,
    cake_unit_price TEXT NOT NULL,
    is_divided INTEGER NOT NULL DEFAULT 0,
    evidence_url TEXT,
    round_id INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (payer_user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS contribution_participants (
    contribution_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (contribution_id, user_id),
    FOREIGN KEY (contribution_id) REFERENCES contributions(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS contribution_shares (
    contribution_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    value_share TEXT NOT NULL,
    quantity_share TEXT NOT NULL,
    PRIMARY KEY (contribution_id, user_id),
    FOREIGN KEY (contribution_id) REFERENCES contributions(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS compensations (
    id TEXT PRIMARY KEY,
    round_id INTEGER NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS configuration (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    cake_unit_price TEXT NOT NULL,
    current_round_id INTEGER NOT NULL DEFAULT 1,
    maintenance_mode INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO configuration (id, cake_unit_price, current_round_id, maintenance_mode)
VALUES (1, '25.00', 1, 0);

CREATE INDEX IF NOT EXISTS idx_contributions_payer ON contributions(payer_user_id);
CREATE INDEX IF NOT EXISTS idx_contributions_round ON contributions(round_id);
CREATE INDEX IF NOT EXISTS idx_contributions_created ON contributions(created_at);
CREATE INDEX IF NOT EXISTS idx_shares_contribution ON contribution_shares(contribution_id);
CREATE INDEX IF NOT EXISTS idx_participants_contribution ON contribution_participants(contribution_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
