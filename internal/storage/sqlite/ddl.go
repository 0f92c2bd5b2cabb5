package sqlite

// schemaDDL mirrors the Postgres schema with the namespace folded into the
// table name. Timestamps are TEXT (RFC 3339) and money columns are REAL,
// matching SQLite storage classes.
//
// bronze_orders keeps a unique index on order_id instead of a primary key so
// payload-parsed rows with a null order_id can accumulate while structured
// loads get insert-skip-on-conflict semantics. Gold tables are keyless; they
// are rebuilt wholesale and a (year, month) key would reject the null-dated
// group.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS raw_orders_raw (
		id TEXT PRIMARY KEY,
		received_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		payload TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS bronze_orders (
		order_id TEXT,
		customer_id TEXT,
		order_date TEXT,
		total_amount REAL,
		product_name TEXT,
		region TEXT,
		price REAL,
		quantity REAL,
		raw_received_at TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bronze_orders_order_id
		ON bronze_orders (order_id)`,

	`CREATE TABLE IF NOT EXISTS silver_orders_clean (
		order_id TEXT PRIMARY KEY NOT NULL,
		customer_id TEXT,
		order_date TEXT,
		total_amount REAL,
		product_name TEXT,
		region TEXT,
		price REAL,
		quantity REAL,
		total_sales REAL,
		year INTEGER,
		month INTEGER,
		day INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS gold_monthly_sales (
		year INTEGER,
		month INTEGER,
		revenue REAL,
		orders_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS gold_product_performance (
		product_name TEXT,
		total_sales REAL
	)`,
	`CREATE TABLE IF NOT EXISTS gold_regional_sales (
		region TEXT,
		total_sales REAL
	)`,

	`CREATE TABLE IF NOT EXISTS bronze_fipe_raw (
		marca TEXT,
		modelo TEXT,
		ano_modelo TEXT,
		codigo_marca TEXT,
		codigo_modelo TEXT,
		codigo_ano TEXT,
		valor TEXT,
		valor_numeric NUMERIC
	)`,
	`CREATE TABLE IF NOT EXISTS silver_fipe_limited (
		marca TEXT,
		modelo TEXT,
		ano_modelo TEXT,
		valor_numeric NUMERIC
	)`,
	`CREATE TABLE IF NOT EXISTS gold_fipe_summary (
		marca TEXT,
		modelo TEXT,
		media_valor NUMERIC,
		qtd_registros INTEGER
	)`,
}
