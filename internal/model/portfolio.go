package model

import (
	"time"
)

const (
	// SharedPortfolioID addresses the synthetic portfolio listing items shared with the caller.
	SharedPortfolioID   = "shared"
	SharedPortfolioName = "Shared With Me"
)

type Portfolio struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (p *Portfolio) IsShared() bool {
	return p.ID == SharedPortfolioID
}

// PortfolioContents is a portfolio together with the tables and files it groups.
type PortfolioContents struct {
	Portfolio *Portfolio `json:"portfolio"`
	Tables    []*Table   `json:"tables"`
	Files     []*File    `json:"files"`
}
