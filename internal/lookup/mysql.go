package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/go-sql-driver/mysql"
)

// MySQL reads tickets from a SQL table keyed by flight_code.
type MySQL struct {
	db    *sql.DB
	query string
}

// OpenMySQL connects with the configured DSN.
func OpenMySQL(cfg config.MySQLConfig) (*MySQL, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	mc.ParseTime = false
	if mc.Timeout == 0 {
		mc.Timeout = 5 * time.Second
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	table := cfg.Table
	if table == "" {
		table = "tickets"
	}
	return NewMySQL(db, table), nil
}

// NewMySQL wraps an open database. table must be a trusted identifier.
func NewMySQL(db *sql.DB, table string) *MySQL {
	return &MySQL{
		db: db,
		query: "SELECT passenger_name, email, phone, flight_code, reservation_date, " +
			"departure_date, departure_time, arrival_date, arrival_time, " +
			"price_usd, price_pen, payment_type FROM " + table + " WHERE flight_code = ? LIMIT 1",
	}
}

// Lookup selects the ticket row for flightCode.
func (m *MySQL) Lookup(ctx context.Context, flightCode string) (*ticket.Record, error) {
	var (
		name, email, phone, code, reserved         sql.NullString
		depDate, depTime, arrDate, arrTime, paying sql.NullString
		usd, pen                                   sql.NullFloat64
	)
	err := m.db.QueryRowContext(ctx, m.query, flightCode).Scan(
		&name, &email, &phone, &code, &reserved,
		&depDate, &depTime, &arrDate, &arrTime,
		&usd, &pen, &paying,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ticket.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}

	return &ticket.Record{
		PassengerName:   name.String,
		Email:           email.String,
		Phone:           phone.String,
		FlightCode:      code.String,
		ReservationDate: reserved.String,
		DepartureDate:   depDate.String,
		DepartureTime:   depTime.String,
		ArrivalDate:     arrDate.String,
		ArrivalTime:     arrTime.String,
		PriceUSD:        nullFloat(usd),
		PricePEN:        nullFloat(pen),
		PaymentType:     paying.String,
	}, nil
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// Close closes the database.
func (m *MySQL) Close() error { return m.db.Close() }
