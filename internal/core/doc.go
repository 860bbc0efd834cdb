// Package core provides the typed data model, loaders and the validation
// pass for the orders / order-products / products datasets.
//
// # Tables
//
// Each input file has a [Schema] listing its columns with a type hint
// (int32, int16, int8, float32, category, text). [LoadTable] parses a CSV
// stream into a [Table] of typed rows; [WriteTable] writes it back in the
// same row order and column layout. Categorical columns are interned
// [Category] values, so every row type stays comparable.
//
// # Validation
//
// [Validator.Validate] inspects a [Dataset] and returns it untouched with a
// [Report]. A repeated order_id is the only fatal finding and is returned
// as a [*HardInvariantViolation]. Everything else is counted:
//
//	missing_orders                   order items whose order_id is not in orders
//	missing_products                 order items whose product_id is not in products
//	non_positive_order_number        order_number <= 0
//	non_positive_add_to_cart_order   add_to_cart_order <= 0
//	negative_days_since_prior_order  days_since_prior_order < 0 (null exempt)
//	duplicate_*                      rows equal to an earlier row, per table
//
// plus a per-column null count for every table.
//
// # Pipeline
//
// [Pipeline.Run] loads the three files, validates, and only when no hard
// invariant failed writes the cleaned copies, feeds the optional [Sink] and
// writes the optional YAML report.
package core
