package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
)

// PostgresSource reads records from a landing table filled by the
// acquisition job. Columns follow models.RawTransaction.
type PostgresSource struct {
	conn  *sql.DB
	table string
}

// NewPostgresSource connects to the landing database
func NewPostgresSource(cfg config.PostgresConfig, table string) (*PostgresSource, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode(cfg.SSLMode))

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return NewPostgresSourceFromDB(conn, table), nil
}

// NewPostgresSourceFromDB wraps an existing connection
func NewPostgresSourceFromDB(conn *sql.DB, table string) *PostgresSource {
	if table == "" {
		table = models.RawTransaction{}.TableName()
	}
	return &PostgresSource{conn: conn, table: table}
}

// Close closes the connection
func (s *PostgresSource) Close() error {
	return s.conn.Close()
}

// Records returns condominium sales from the landing table
func (s *PostgresSource) Records(ctx context.Context) ([]models.RawTransaction, error) {
	query := fmt.Sprintf(`
		SELECT type, prefecture, municipality, district_name, floor_plan, structure,
			   trade_price, area, coverage_ratio, floor_area_ratio, building_year, period
		FROM %s
		WHERE type LIKE '%%マンション%%'
		ORDER BY id
	`, pq.QuoteIdentifier(s.table))

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []models.RawTransaction
	for rows.Next() {
		var (
			r                               models.RawTransaction
			price                           sql.NullInt64
			area, coverage, floorAreaRatio  sql.NullFloat64
			district, plan, structure, year sql.NullString
			period                          sql.NullString
		)
		err := rows.Scan(
			&r.Type, &r.Prefecture, &r.Municipality, &district, &plan, &structure,
			&price, &area, &coverage, &floorAreaRatio, &year, &period)
		if err != nil {
			return nil, err
		}
		r.DistrictName = district.String
		r.FloorPlan = plan.String
		r.Structure = structure.String
		r.TradePrice = price.Int64
		r.Area = area.Float64
		r.CoverageRatio = coverage.Float64
		r.FloorAreaRatio = floorAreaRatio.Float64
		r.BuildingYear = year.String
		r.Period = period.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Info("Source: loaded records", "table", s.table, "count", len(records))
	return records, nil
}

func sslMode(mode string) string {
	if mode == "" {
		return "disable"
	}
	return mode
}
