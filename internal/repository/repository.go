package repository

import (
	"github.com/jmoiron/sqlx"
)

// Repos groups the SQL-backed stores. Queries are written with '?'
// placeholders and rebound for the connected driver.
type Repos struct {
	Profiles      *ProfileRepo
	Logs          *LogRepo
	State         *StateRepo
	Notifications *NotificationRepo
}

func New(db *sqlx.DB) *Repos {
	return &Repos{
		Profiles:      &ProfileRepo{db: db},
		Logs:          &LogRepo{db: db},
		State:         &StateRepo{db: db},
		Notifications: &NotificationRepo{db: db},
	}
}
