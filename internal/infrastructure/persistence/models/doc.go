// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model converts with ToDomain and
// FromDomain.
//
// Files:
//   - base.go: BaseModel and AggregateModel
//   - types.go: column types shared across models
//   - catalog.go: products and categories
//   - cart.go, order.go, payment.go: the checkout path
//   - currency.go, content.go, identity.go: supporting contexts
package models
