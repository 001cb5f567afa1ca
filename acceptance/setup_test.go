package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/civitech/bikesystem-backend/api"
	"github.com/civitech/bikesystem-backend/bike"
	"github.com/civitech/bikesystem-backend/internal/auth0"
	"github.com/civitech/bikesystem-backend/internal/o11y"
	"github.com/civitech/bikesystem-backend/rider"
	"github.com/civitech/bikesystem-backend/station"
	"github.com/civitech/bikesystem-backend/trip"
)

type TestServer struct {
	DB     *sqlx.DB
	Router *gin.Engine
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; acceptance tests need Postgres")
	}

	gin.SetMode(gin.TestMode)

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	migrate(t, db)
	cleanupTestData(t, db)

	br := bike.NewRepository(db)
	sr := station.NewRepository(db)
	rr := rider.NewRepository(db)
	tr := trip.NewRepository(db)

	obs := &o11y.Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
	}

	a := api.New(br, sr, rr, tr, obs, api.Config{
		Verifier: auth0.NewFakeVerifier(),
	})

	return &TestServer{
		DB:     db,
		Router: a.Router(),
	}
}

func (ts *TestServer) Close() {
	ts.DB.Close()
}

func migrate(t *testing.T, db *sqlx.DB) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stations (
			id bigserial PRIMARY KEY,
			name text NOT NULL,
			capacity integer NOT NULL CHECK (capacity > 0),
			latitude double precision NOT NULL,
			longitude double precision NOT NULL,
			active boolean NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS bikes (
			id bigserial PRIMARY KEY,
			model text NOT NULL,
			manufactured_at timestamptz NOT NULL,
			electric boolean NOT NULL,
			needs_maintenance boolean NOT NULL DEFAULT false,
			current_station_id bigint REFERENCES stations (id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS riders (
			id bigserial PRIMARY KEY,
			name text NOT NULL,
			email text NOT NULL,
			address text NOT NULL,
			membership boolean NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id bigserial PRIMARY KEY,
			rider_id bigint NOT NULL REFERENCES riders (id) ON DELETE CASCADE,
			bike_id bigint NOT NULL REFERENCES bikes (id) ON DELETE CASCADE,
			origination_station_id bigint NOT NULL REFERENCES stations (id) ON DELETE RESTRICT,
			destination_station_id bigint REFERENCES stations (id) ON DELETE RESTRICT,
			start_time timestamptz NOT NULL,
			end_time timestamptz
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
	}
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	// Delete in order of dependencies
	for _, table := range []string{"trips", "bikes", "riders", "stations"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("warning: failed to clean %s: %v", table, err)
		}
	}
}

// authHeaders grants the fake verifier's subject the given permissions.
func authHeaders(permissions ...string) map[string]string {
	return map[string]string{
		"X-Subject":     "auth0|test-user",
		"X-Permissions": strings.Join(permissions, ","),
	}
}

func (ts *TestServer) Do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.Do(http.MethodGet, path, nil, headers)
}

func (ts *TestServer) POST(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return ts.Do(http.MethodPost, path, body, headers)
}

func (ts *TestServer) PATCH(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return ts.Do(http.MethodPatch, path, body, headers)
}

func (ts *TestServer) DELETE(path string, headers map[string]string) *httptest.ResponseRecorder {
	return ts.Do(http.MethodDelete, path, nil, headers)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return body
}

// Helpers that seed data directly in the database.

func (ts *TestServer) CreateTestStation(t *testing.T, name string, capacity int) int64 {
	t.Helper()
	var id int64
	err := ts.DB.Get(&id, `
		INSERT INTO stations (name, capacity, latitude, longitude)
		VALUES ($1, $2, 53.35, -6.26)
		RETURNING id
	`, name, capacity)
	if err != nil {
		t.Fatalf("failed to create test station: %v", err)
	}
	return id
}

func (ts *TestServer) CreateTestBike(t *testing.T, stationID int64) int64 {
	t.Helper()
	var id int64
	err := ts.DB.Get(&id, `
		INSERT INTO bikes (model, manufactured_at, electric, current_station_id)
		VALUES ('Test Model', $1, false, $2)
		RETURNING id
	`, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), stationID)
	if err != nil {
		t.Fatalf("failed to create test bike: %v", err)
	}
	return id
}

func (ts *TestServer) CreateTestRider(t *testing.T, name string) int64 {
	t.Helper()
	var id int64
	err := ts.DB.Get(&id, `
		INSERT INTO riders (name, email, address, membership)
		VALUES ($1, 'rider@example.com', '1 Test Street', true)
		RETURNING id
	`, name)
	if err != nil {
		t.Fatalf("failed to create test rider: %v", err)
	}
	return id
}

func (ts *TestServer) BikeStationID(t *testing.T, bikeID int64) *int64 {
	t.Helper()
	var stationID *int64
	err := ts.DB.Get(&stationID, `SELECT current_station_id FROM bikes WHERE id = $1`, bikeID)
	if err != nil {
		t.Fatalf("failed to read bike station: %v", err)
	}
	return stationID
}

func fmtPath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
