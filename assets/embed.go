package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var files embed.FS

// Migrations returns the SQL migration files rooted at the sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return sub
}
