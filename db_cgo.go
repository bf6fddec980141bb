//go:build cgo

package main

import _ "github.com/mattn/go-sqlite3"

const (
	driverName = "sqlite3"
	dsnOptions = "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
)
