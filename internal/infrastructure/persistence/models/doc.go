// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: shared columns (id, timestamps, version, owner_id)
//   - json.go: JSON column type used for line items, sections, payments and snapshots
//   - partner.go: clients and contractor profiles
//   - project.go: projects
//   - document.go: estimates, invoices and change orders
//   - attachment.go: attachment metadata
package models
