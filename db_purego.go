//go:build !cgo

package main

import _ "modernc.org/sqlite"

const (
	driverName = "sqlite"
	dsnOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
)
