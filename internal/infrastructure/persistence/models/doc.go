// Package models holds the GORM persistence models. Domain types stay free of
// gorm tags; each model converts with ToDomain and FromDomain.
package models
