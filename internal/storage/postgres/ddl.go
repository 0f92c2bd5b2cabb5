package postgres

// schemaDDL creates every medallion namespace and table if absent. The
// statements run in order and are individually idempotent, so EnsureSchema
// can be called on every run.
//
// bronze.orders has a unique index on order_id instead of a primary key:
// payload-parsed rows may carry a null order_id (nulls never conflict), while
// structured loads rely on the index for insert-skip-on-conflict semantics.
// The gold tables have no keys at all; they are rebuilt wholesale and a
// (year, month) key would reject the null-dated group.
var schemaDDL = []string{
	`CREATE SCHEMA IF NOT EXISTS raw`,
	`CREATE SCHEMA IF NOT EXISTS bronze`,
	`CREATE SCHEMA IF NOT EXISTS silver`,
	`CREATE SCHEMA IF NOT EXISTS gold`,

	`CREATE TABLE IF NOT EXISTS raw.orders_raw (
		id TEXT PRIMARY KEY,
		received_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		payload JSONB
	)`,

	`CREATE TABLE IF NOT EXISTS bronze.orders (
		order_id TEXT,
		customer_id TEXT,
		order_date TIMESTAMP,
		total_amount DOUBLE PRECISION,
		product_name TEXT,
		region TEXT,
		price DOUBLE PRECISION,
		quantity DOUBLE PRECISION,
		raw_received_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_bronze_orders_order_id
		ON bronze.orders (order_id)`,

	`CREATE TABLE IF NOT EXISTS silver.orders_clean (
		order_id TEXT PRIMARY KEY,
		customer_id TEXT,
		order_date TIMESTAMP,
		total_amount DOUBLE PRECISION,
		product_name TEXT,
		region TEXT,
		price DOUBLE PRECISION,
		quantity DOUBLE PRECISION,
		total_sales DOUBLE PRECISION,
		year INTEGER,
		month INTEGER,
		day INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS gold.monthly_sales (
		year INTEGER,
		month INTEGER,
		revenue DOUBLE PRECISION,
		orders_count BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS gold.product_performance (
		product_name TEXT,
		total_sales DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS gold.regional_sales (
		region TEXT,
		total_sales DOUBLE PRECISION
	)`,

	`CREATE TABLE IF NOT EXISTS bronze.fipe_raw (
		marca TEXT,
		modelo TEXT,
		ano_modelo TEXT,
		codigo_marca TEXT,
		codigo_modelo TEXT,
		codigo_ano TEXT,
		valor TEXT,
		valor_numeric NUMERIC
	)`,
	`CREATE TABLE IF NOT EXISTS silver.fipe_limited (
		marca TEXT,
		modelo TEXT,
		ano_modelo TEXT,
		valor_numeric NUMERIC
	)`,
	`CREATE TABLE IF NOT EXISTS gold.fipe_summary (
		marca TEXT,
		modelo TEXT,
		media_valor NUMERIC,
		qtd_registros BIGINT
	)`,
}
