// Package db provides the SQL templates and Postgres access used by the feed service.
package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed sql
var embedded embed.FS

// ErrTemplateNotFound is returned when no SQL file exists for a template key.
var ErrTemplateNotFound = errors.New("sql template not found")

// Templates serves SQL statements stored as sql/<domain>/<name>.sql.
type Templates struct {
	files  fs.FS
	logger zerolog.Logger
}

// NewTemplates returns Templates backed by the statements compiled into the binary.
func NewTemplates(logger zerolog.Logger) *Templates {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return NewTemplatesFS(sub, logger)
}

// NewTemplatesFS returns Templates reading from an arbitrary filesystem rooted at the template tree.
func NewTemplatesFS(files fs.FS, logger zerolog.Logger) *Templates {
	return &Templates{files: files, logger: logger}
}

// Template loads the SQL statement for domain/name.
func (t *Templates) Template(domain, name string) (string, error) {
	if !validSegment(domain) || !validSegment(name) {
		return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, domain, name)
	}

	file := path.Join(domain, name+".sql")
	body, err := fs.ReadFile(t.files, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, domain, name)
		}
		return "", err
	}

	t.logger.Debug().Str("template", file).Msg("load sql template")
	return string(body), nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
