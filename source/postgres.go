package source

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"kuanb/scout-choropleth/geom"
)

// Pool is the subset of pgxpool.Pool used by PostgresSource
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// metricColumns maps every metric to its column in the regions table
var metricColumns = map[geom.Metric]string{
	geom.MetricTransactions: "transactions",
	geom.MetricRevenue:      "revenue",
	geom.MetricStores:       "store_count",
	geom.MetricGrowth:       "growth_pct",
}

// tableName restricts configurable table names to plain, optionally
// schema-qualified, identifiers.
var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// DefaultTable holds one row per region with its geometry and aggregated metrics
const DefaultTable = "scout.region_metrics"

// PostgresSource reads region geometries and metrics from a PostGIS table
type PostgresSource struct {
	pool  Pool
	table string
}

// NewPostgresSource validates the table name against the identifier allowlist
func NewPostgresSource(pool Pool, table string) (*PostgresSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, eris.Errorf("source: invalid table name %q", table)
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

// NewPool connects to databaseURL and verifies the connection
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, eris.New("source: no database_url configured (set source.database_url)")
	}
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: parse connection string")
	}
	poolCfg.MaxConns = 8
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "source: create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "source: ping database")
	}
	return pool, nil
}

func (s *PostgresSource) query(filters Filters) (string, []any) {
	cols := make([]string, len(geom.Metrics))
	for i, m := range geom.Metrics {
		cols[i] = metricColumns[m]
	}
	sql := fmt.Sprintf(
		`SELECT region_id, region_name, ST_AsEWKB(geom), %s, ST_X(centroid), ST_Y(centroid) FROM %s`,
		strings.Join(cols, ", "), s.table,
	)
	if filters.Empty() {
		return sql + ` ORDER BY region_id`, nil
	}
	return sql + ` WHERE lower(region_id) = ANY($1) OR lower(region_name) = ANY($1) ORDER BY region_id`,
		[]any{filters.lower()}
}

// FetchFeatureCollection selects every region row, decoding geometries from EWKB.
// NULL metrics are treated as missing data.
func (s *PostgresSource) FetchFeatureCollection(ctx context.Context, filters Filters) (geom.FeatureCollection, error) {
	sql, args := s.query(filters)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "source: query regions")
	}
	defer rows.Close()

	var fc geom.FeatureCollection
	for rows.Next() {
		var (
			id, name string
			wkb      []byte
			values   = make([]pgtype.Float8, len(geom.Metrics))
			cx, cy   pgtype.Float8
		)
		dest := []any{&id, &name, &wkb}
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &cx, &cy)
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "source: scan region row")
		}

		mp, err := DecodeEWKB(wkb)
		if err != nil {
			// kept with empty geometry so projection reports it as skipped
			zap.L().Warn("source: undecodable region geometry", zap.String("region", id), zap.Error(err))
		}

		f := geom.Feature{
			ID:         id,
			RegionName: name,
			Geometry:   mp,
			Metrics:    make(map[geom.Metric]float64, len(geom.Metrics)),
		}
		for i, m := range geom.Metrics {
			if values[i].Valid {
				f.Metrics[m] = values[i].Float64
			}
		}
		if cx.Valid && cy.Valid {
			f.Centroid = &orb.Point{cx.Float64, cy.Float64}
		}
		fc = append(fc, f)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate region rows")
	}
	if err := fc.Validate(); err != nil {
		return nil, eris.Wrapf(err, "source: table %s", s.table)
	}
	return fc, nil
}

// DecodeEWKB converts a PostGIS Polygon or MultiPolygon into an orb.MultiPolygon
func DecodeEWKB(data []byte) (orb.MultiPolygon, error) {
	if len(data) == 0 {
		return nil, eris.New("source: empty geometry")
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "source: decode EWKB")
	}

	switch g := g.(type) {
	case *gogeom.Polygon:
		return orb.MultiPolygon{polygonFromCoords(g.Coords())}, nil
	case *gogeom.MultiPolygon:
		coords := g.Coords()
		mp := make(orb.MultiPolygon, 0, len(coords))
		for _, pc := range coords {
			mp = append(mp, polygonFromCoords(pc))
		}
		return mp, nil
	default:
		return nil, eris.Errorf("source: unsupported geometry %T", g)
	}
}

func polygonFromCoords(rings [][]gogeom.Coord) orb.Polygon {
	poly := make(orb.Polygon, 0, len(rings))
	for _, rc := range rings {
		r := make(orb.Ring, 0, len(rc))
		for _, c := range rc {
			if len(c) < 2 {
				r = append(r, orb.Point{math.NaN(), math.NaN()})
				continue
			}
			r = append(r, orb.Point{c[0], c[1]})
		}
		poly = append(poly, r)
	}
	return poly
}
