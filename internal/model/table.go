package model

import (
	"strings"
	"time"
)

// Table maps a physical table into a portfolio. One physical table may be
// mapped into several portfolios of its owner, one row per mapping.
type Table struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	PortfolioID string    `db:"portfolio_id" json:"portfolio_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UniqueTableName returns the physical table name for a user-chosen name.
func UniqueTableName(name string, owner *User) string {
	return name + "_" + owner.ShortID()
}

// DisplayName strips the owner suffix from the physical name.
func (t *Table) DisplayName() string {
	i := strings.LastIndex(t.Name, "_")
	if i <= 0 {
		return t.Name
	}
	return t.Name[:i]
}
