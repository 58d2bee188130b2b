package storage

// Schema statements per dialect. Lists and weight maps live in JSON TEXT columns
// so both dialects scan them through the same models.StringList / models.Weights.
// seq keeps insertion order for evidence and why factors.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS slates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sport TEXT NOT NULL DEFAULT '',
		week_label TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		slate_id TEXT NOT NULL REFERENCES slates(id) ON DELETE CASCADE,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		home_canonical TEXT NOT NULL DEFAULT '',
		away_canonical TEXT NOT NULL DEFAULT '',
		kickoff_at DATETIME,
		spread REAL,
		spread_favored TEXT NOT NULL DEFAULT '',
		total REAL,
		home_moneyline INTEGER,
		away_moneyline INTEGER,
		pick TEXT,
		pick_line TEXT,
		confidence_low INTEGER,
		confidence_high INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		framework_version INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evidence (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		category TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		headline TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		full_content TEXT NOT NULL DEFAULT '',
		relevance_score REAL NOT NULL DEFAULT 0,
		citations TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS frameworks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weights TEXT NOT NULL DEFAULT '{}',
		rules TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS why_factors (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		feature_value REAL NOT NULL,
		contribution REAL NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		key_facts TEXT NOT NULL DEFAULT '[]',
		citations TEXT NOT NULL DEFAULT '[]',
		favored_team TEXT NOT NULL,
		uncertainty_flags TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_slate ON games(slate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_game ON evidence(game_id)`,
	`CREATE INDEX IF NOT EXISTS idx_why_factors_game ON why_factors(game_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_frameworks_one_active ON frameworks(is_active) WHERE is_active`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS slates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sport TEXT NOT NULL DEFAULT '',
		week_label TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		slate_id TEXT NOT NULL REFERENCES slates(id) ON DELETE CASCADE,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		home_canonical TEXT NOT NULL DEFAULT '',
		away_canonical TEXT NOT NULL DEFAULT '',
		kickoff_at TIMESTAMPTZ,
		spread DOUBLE PRECISION,
		spread_favored TEXT NOT NULL DEFAULT '',
		total DOUBLE PRECISION,
		home_moneyline INTEGER,
		away_moneyline INTEGER,
		pick TEXT,
		pick_line TEXT,
		confidence_low INTEGER,
		confidence_high INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		framework_version INTEGER,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS evidence (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		category TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		headline TEXT NOT NULL DEFAULT '',
		snippet TEXT NOT NULL DEFAULT '',
		full_content TEXT NOT NULL DEFAULT '',
		relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		citations TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS frameworks (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weights TEXT NOT NULL DEFAULT '{}',
		rules TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS why_factors (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		feature_value DOUBLE PRECISION NOT NULL,
		contribution DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		key_facts TEXT NOT NULL DEFAULT '[]',
		citations TEXT NOT NULL DEFAULT '[]',
		favored_team TEXT NOT NULL,
		uncertainty_flags TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_slate ON games(slate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_game ON evidence(game_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_why_factors_game ON why_factors(game_id, seq)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_frameworks_one_active ON frameworks(is_active) WHERE is_active`,
}
