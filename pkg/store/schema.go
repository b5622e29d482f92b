package store

// schema is the full database schema. Every statement is idempotent; the
// trigger function is CREATE OR REPLACE so changes ship with deploys.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	phone_number  TEXT NOT NULL DEFAULT '',
	active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS phone_assignments (
	id           SERIAL PRIMARY KEY,
	user_id      INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	phone_last10 TEXT NOT NULL,
	active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (phone_last10)
);

CREATE TABLE IF NOT EXISTS leads (
	id                 SERIAL PRIMARY KEY,
	name               TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	property_id        INTEGER,
	stage              TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	notes              TEXT NOT NULL DEFAULT '',
	stripe_customer_id TEXT NOT NULL DEFAULT '',
	default_payment_method TEXT NOT NULL DEFAULT '',
	archived           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leads_phone_last10
	ON leads (RIGHT(REGEXP_REPLACE(phone, '\D', '', 'g'), 10));
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads (LOWER(email));

CREATE TABLE IF NOT EXISTS lead_timeline (
	id         SERIAL PRIMARY KEY,
	lead_id    INTEGER NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	entry      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS owners (
	id                 SERIAL PRIMARY KEY,
	name               TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	company            TEXT NOT NULL DEFAULT '',
	stripe_customer_id TEXT NOT NULL DEFAULT '',
	default_payment_method TEXT NOT NULL DEFAULT '',
	archived           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_owners_phone_last10
	ON owners (RIGHT(REGEXP_REPLACE(phone, '\D', '', 'g'), 10));
CREATE INDEX IF NOT EXISTS idx_owners_email ON owners (LOWER(email));

CREATE TABLE IF NOT EXISTS properties (
	id         SERIAL PRIMARY KEY,
	owner_id   INTEGER REFERENCES owners(id) ON DELETE SET NULL,
	address    TEXT NOT NULL,
	unit       TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	zip        TEXT NOT NULL DEFAULT '',
	bedrooms   INTEGER NOT NULL DEFAULT 0,
	bathrooms  DOUBLE PRECISION NOT NULL DEFAULT 0,
	rent       DOUBLE PRECISION NOT NULL DEFAULT 0,
	status     TEXT NOT NULL DEFAULT 'vacant',
	archived   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS work_orders (
	id          SERIAL PRIMARY KEY,
	property_id INTEGER REFERENCES properties(id) ON DELETE SET NULL,
	lead_id     INTEGER REFERENCES leads(id) ON DELETE SET NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT 'normal',
	status      TEXT NOT NULL DEFAULT 'open',
	assigned_to TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS work_order_timeline (
	id            SERIAL PRIMARY KEY,
	work_order_id INTEGER NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
	entry         TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS expenses (
	id            SERIAL PRIMARY KEY,
	property_id   INTEGER REFERENCES properties(id) ON DELETE SET NULL,
	work_order_id INTEGER REFERENCES work_orders(id) ON DELETE SET NULL,
	category      TEXT NOT NULL DEFAULT 'other',
	description   TEXT NOT NULL DEFAULT '',
	amount        DOUBLE PRECISION NOT NULL,
	incurred_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS communications (
	id                 TEXT PRIMARY KEY,
	lead_id            INTEGER REFERENCES leads(id) ON DELETE SET NULL,
	owner_id           INTEGER REFERENCES owners(id) ON DELETE SET NULL,
	user_id            INTEGER REFERENCES users(id) ON DELETE SET NULL,
	work_order_id      INTEGER REFERENCES work_orders(id) ON DELETE SET NULL,
	communication_type TEXT NOT NULL,
	direction          TEXT NOT NULL,
	body               TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	from_address       TEXT NOT NULL DEFAULT '',
	to_address         TEXT NOT NULL DEFAULT '',
	external_id        TEXT NOT NULL,
	status             TEXT NOT NULL,
	delivery_status    TEXT NOT NULL DEFAULT '',
	is_read            BOOLEAN NOT NULL DEFAULT FALSE,
	archived           BOOLEAN NOT NULL DEFAULT FALSE,
	metadata           JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (communication_type, external_id)
);

CREATE INDEX IF NOT EXISTS idx_communications_lead ON communications (lead_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_communications_created ON communications (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_communications_from_last10
	ON communications (RIGHT(REGEXP_REPLACE(from_address, '\D', '', 'g'), 10));
CREATE INDEX IF NOT EXISTS idx_communications_to_last10
	ON communications (RIGHT(REGEXP_REPLACE(to_address, '\D', '', 'g'), 10));

CREATE TABLE IF NOT EXISTS documents (
	id          SERIAL PRIMARY KEY,
	lead_id     INTEGER REFERENCES leads(id) ON DELETE SET NULL,
	name        TEXT NOT NULL,
	external_id TEXT NOT NULL UNIQUE,
	status      TEXT NOT NULL DEFAULT 'draft',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
	id         SERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS snippets (
	id         SERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	shortcut   TEXT NOT NULL,
	content    TEXT NOT NULL,
	use_count  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, shortcut)
);

CREATE TABLE IF NOT EXISTS tone_profiles (
	user_id             INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	formality           TEXT NOT NULL DEFAULT '',
	greeting_patterns   JSONB NOT NULL DEFAULT '[]',
	closing_patterns    JSONB NOT NULL DEFAULT '[]',
	common_phrases      JSONB NOT NULL DEFAULT '[]',
	avg_sentence_length DOUBLE PRECISION NOT NULL DEFAULT 0,
	message_count       INTEGER NOT NULL DEFAULT 0,
	analyzed_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE OR REPLACE FUNCTION notify_communications_changed() RETURNS TRIGGER AS $$
BEGIN
	PERFORM pg_notify('communications_changed', json_build_object(
		'op', TG_OP,
		'id', NEW.id,
		'communication_type', NEW.communication_type,
		'direction', NEW.direction,
		'lead_id', NEW.lead_id,
		'owner_id', NEW.owner_id,
		'user_id', NEW.user_id,
		'from_address', NEW.from_address,
		'subject', NEW.subject,
		'body', LEFT(NEW.body, 500)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS communications_changed ON communications;
CREATE TRIGGER communications_changed
	AFTER INSERT OR UPDATE ON communications
	FOR EACH ROW EXECUTE FUNCTION notify_communications_changed();
`
