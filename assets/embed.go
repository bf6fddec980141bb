// assets/embed.go
//
// Files compiled into the server binary:
//   - catalog.yaml:        default materials, recipes and rules.
//   - catalog.schema.json: JSON Schema every catalog must satisfy.
//   - migrations/*.sql:    SQLite schema, applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed catalog.yaml catalog.schema.json migrations/*.sql
var FS embed.FS

// CatalogSchemaURL matches the schema's $id.
const CatalogSchemaURL = "https://forgerush.local/schemas/catalog.schema.json"

// DefaultCatalog returns the embedded catalog document.
func DefaultCatalog() ([]byte, error) {
	return FS.ReadFile("catalog.yaml")
}

// CatalogSchema returns the embedded catalog JSON Schema.
func CatalogSchema() (string, error) {
	b, err := FS.ReadFile("catalog.schema.json")
	return string(b), err
}

// Migrations returns the SQL migration files rooted at their directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// The directory is part of the embed pattern; Sub cannot fail here.
		panic(err)
	}
	return sub
}
