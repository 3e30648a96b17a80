package sqlite

// Schema is the full ledger schema. Money columns hold exact decimal strings;
// date columns hold YYYY-MM-DD calendar dates.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    email      TEXT NOT NULL UNIQUE,
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL REFERENCES users(id),
    name       TEXT NOT NULL,
    balance    TEXT NOT NULL DEFAULT '0',
    currency   TEXT NOT NULL DEFAULT 'USD',
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id);

CREATE TABLE IF NOT EXISTS transactions (
    id                  TEXT PRIMARY KEY,
    account_id          TEXT NOT NULL REFERENCES accounts(id),
    user_id             TEXT NOT NULL REFERENCES users(id),
    type                TEXT NOT NULL CHECK (type IN ('INCOME', 'EXPENSE')),
    amount              TEXT NOT NULL,
    date                TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    category            TEXT NOT NULL,
    is_recurring        INTEGER NOT NULL DEFAULT 0,
    recurring_interval  TEXT,
    next_recurring_date TEXT,
    created_at          TIMESTAMP NOT NULL,
    updated_at          TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
`
