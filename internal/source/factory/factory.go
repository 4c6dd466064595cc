// Package factory opens the configured source backend.
package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/sqlstore"
	"github.com/steveyegge/pikpoint/internal/source/yamlfile"
)

// Driver names accepted by Open.
const (
	DriverYAML   = "yaml"
	DriverSQLite = sqlstore.DriverSQLite
	DriverMySQL  = sqlstore.DriverMySQL
)

// Drivers lists every supported driver.
var Drivers = []string{DriverYAML, DriverSQLite, DriverMySQL}

// Options selects a backend.
type Options struct {
	Driver string
	Path   string // yaml file or sqlite database
	DSN    string // mysql
}

// Source is a reconcile.Source that may hold resources.
type Source interface {
	reconcile.Source
	io.Closer
}

type nopCloser struct{ reconcile.Source }

func (nopCloser) Close() error { return nil }

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Driver {
	case DriverYAML, "":
		f, err := yamlfile.Open(opts.Path)
		if err != nil {
			return nil, err
		}
		return nopCloser{f}, nil
	case DriverSQLite:
		return sqlstore.Open(ctx, DriverSQLite, opts.Path)
	case DriverMySQL:
		return sqlstore.Open(ctx, DriverMySQL, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown source driver %q", opts.Driver)
	}
}

// OpenSQL opens a SQL backend for import and export.
func OpenSQL(ctx context.Context, opts Options) (*sqlstore.Store, error) {
	switch opts.Driver {
	case DriverSQLite:
		return sqlstore.Open(ctx, DriverSQLite, opts.Path)
	case DriverMySQL:
		return sqlstore.Open(ctx, DriverMySQL, opts.DSN)
	default:
		return nil, fmt.Errorf("source driver %q is not a SQL store", opts.Driver)
	}
}
