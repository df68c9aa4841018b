package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Participants, items, and item splits carry an explicit position column so a
// single element of a bill can be addressed by (bill_id, idx) — settlement
// flips one participant's status without rewriting the aggregate.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    bill_name TEXT NOT NULL,
    total_amount REAL NOT NULL,
    created_by TEXT NOT NULL,
    created_by_name TEXT NOT NULL,
    split_method TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (created_by) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS participants (
    bill_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    user_id TEXT,
    display_name TEXT NOT NULL,
    amount_due REAL NOT NULL,
    status TEXT NOT NULL DEFAULT 'unpaid',
    PRIMARY KEY (bill_id, idx),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS items (
    bill_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    name TEXT NOT NULL,
    price_per_unit REAL NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (bill_id, idx),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_splits (
    bill_id TEXT NOT NULL,
    item_idx INTEGER NOT NULL,
    idx INTEGER NOT NULL,
    user_id TEXT,
    display_name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (bill_id, item_idx, idx),
    FOREIGN KEY (bill_id, item_idx) REFERENCES items(bill_id, idx) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_participants_user_id ON participants(user_id);
CREATE INDEX IF NOT EXISTS idx_bills_created_by ON bills(created_by);
CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
