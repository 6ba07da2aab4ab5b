package repositories

import (
	"github.com/xdoubleu/essentia/v2/pkg/database/postgres"
)

type Repositories struct {
	Users *UserRepository
}

func New(db postgres.DB) *Repositories {
	users := &UserRepository{db: db}

	return &Repositories{
		Users: users,
	}
}
