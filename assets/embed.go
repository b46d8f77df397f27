package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var migrations embed.FS

// Migrations returns the SQL migration files rooted at "sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "sql")
	if err != nil {
		// sql/ is embedded at build time; Sub only fails on a bad pattern.
		panic(err)
	}
	return sub
}
