package source

import (
	"context"

	"github.com/rotisserie/eris"
)

// Drivers
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverOSM      = "osm"
)

// Options selects and configures a Source
type Options struct {
	Driver      string
	Path        string
	MetricsPath string
	DatabaseURL string
	Table       string
	AdminLevels []string
}

// Open builds the Source named by opts.Driver. The returned close function
// releases any connection pool and is always safe to call.
func Open(ctx context.Context, opts Options) (Source, func(), error) {
	noop := func() {}
	switch opts.Driver {
	case DriverFile, "":
		if opts.Path == "" {
			return nil, noop, eris.New("source: file driver needs source.path")
		}
		return NewFileSource(opts.Path, opts.MetricsPath), noop, nil
	case DriverOSM:
		if opts.Path == "" {
			return nil, noop, eris.New("source: osm driver needs source.path")
		}
		return NewOSMSource(opts.Path, opts.MetricsPath, opts.AdminLevels), noop, nil
	case DriverPostgres:
		pool, err := NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		src, err := NewPostgresSource(pool, opts.Table)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return src, pool.Close, nil
	default:
		return nil, noop, eris.Errorf("source: unknown driver %q", opts.Driver)
	}
}
