package main

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Apps struct {
	apps []App
}

type App interface {
	Routes(prefix string, mux *http.ServeMux)
	ApplyMigrations(db *pgxpool.Pool) error
	GetName() string
}

func NewApps(apps ...App) *Apps {
	return &Apps{
		apps: apps,
	}
}

func (apps *Apps) ApplyMigrations(db *pgxpool.Pool) error {
	for _, app := range apps.apps {
		err := app.ApplyMigrations(db)
		if err != nil {
			return err
		}
	}
	return nil
}

func (apps *Apps) Routes(mux *http.ServeMux) http.Handler {
	for _, app := range apps.apps {
		app.Routes(app.GetName(), mux)
	}
	return mux
}
