// Package repository contains data access implementations.
//
// Repository interfaces are defined at the service layer; this package
// holds the PostgreSQL implementations. Repositories take the
// database.Queryer to run on and never begin or end transactions.
package repository
