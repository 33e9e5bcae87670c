// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free from
// ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel shared by every table
//   - identity.go: users
//   - catalog.go: products
//   - basket.go: baskets and basket_items
//
// Index and constraint names match the SQL migrations so AutoMigrate (used with
// SQLite) and golang-migrate (used with PostgreSQL) produce the same schema.
package models
