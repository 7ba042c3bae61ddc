// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Tables follow the marketplace schema: sellers, shops, seller_shops, orders,
// events and transactions, with snake_case columns and integer primary keys.
// JSON documents are kept in text-compatible columns so the same models work
// against PostgreSQL (jsonb) and SQLite.
package models
