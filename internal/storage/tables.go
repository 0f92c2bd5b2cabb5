package storage

// Logical table names, shared by both pipelines and all backends. The
// namespace prefix selects the medallion layer; backends decide how the
// namespace is realized (Postgres schemas, sqlite name prefixes).
const (
	TableRawOrders    = "raw.orders_raw"
	TableBronzeOrders = "bronze.orders"
	TableSilverOrders = "silver.orders_clean"
	TableGoldMonthly  = "gold.monthly_sales"
	TableGoldProduct  = "gold.product_performance"
	TableGoldRegional = "gold.regional_sales"

	TableBronzeCatalog = "bronze.fipe_raw"
	TableSilverCatalog = "silver.fipe_limited"
	TableGoldCatalog   = "gold.fipe_summary"
)
