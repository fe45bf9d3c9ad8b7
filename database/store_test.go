package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gewnthar/logbook/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func setupMock(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	DB = db
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		DB = nil
		db.Close()
	})
	return mock
}

func newRecord(date string, duration int, score float64, code models.FlightCode, hash string) models.FlightRecord {
	var r models.FlightRecord
	r.FlightSummary = models.FlightSummary{Date: date, Duration: duration, Score: score, Code: code}
	r.Track = "{}"
	r.Profile = "1,2,3,4,5,6\n"
	r.Hash = hash
	return r
}

var summaryColumns = []string{"id", "flight_date", "duration", "score", "code"}

// ---------------------------------------------------------------------------
// Blobs
// ---------------------------------------------------------------------------

func TestBlobRoundTrip(t *testing.T) {
	text := "1600000000,1600000001,\n1000,1200,\n"
	data, err := CompressBlob(text)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, data[:4])

	back, err := DecompressBlob(data)
	require.NoError(t, err)
	assert.Equal(t, text, back)
}

func TestDecompressPlainText(t *testing.T) {
	back, err := DecompressBlob([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"FeatureCollection","features":[]}`, back)
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := DecompressBlob(append(append([]byte{}, zstdMagic...), 0xff, 0x00, 0x13))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Flights
// ---------------------------------------------------------------------------

func TestNilDB(t *testing.T) {
	DB = nil
	_, err := ListFlightSummaries(context.Background())
	assert.Error(t, err)
	_, err = GetFlightDetail(context.Background(), 1)
	assert.Error(t, err)
}

func TestListFlightSummaries(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectQuery(`FROM flights\s+ORDER BY flight_date, id`).
		WillReturnRows(sqlmock.NewRows(summaryColumns).
			AddRow(1, "2021-05-01", 65, 3500.0, `"fai"`).
			AddRow(2, "2021-06-15", 45, 3000.0, "free").
			AddRow(3, "2022-01-01", 120, 6000.0, "tri"))

	got, err := ListFlightSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.FlightSummary{FlightID: 1, Date: "2021-05-01", Duration: 65, Score: 3500, Code: models.CodeFAI}, got[0])
	assert.Equal(t, models.CodeFree, got[1].Code)
	assert.Equal(t, models.CodeTriangle, got[2].Code)
}

func TestListFlightSummariesQueryError(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectQuery(`FROM flights`).WillReturnError(errors.New("connection reset"))

	_, err := ListFlightSummaries(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetFlightDetail(t *testing.T) {
	mock := setupMock(t)
	track := `{"type":"FeatureCollection","features":[]}`
	profile := "1600000000,1000,10,1.5,45.1,6.1\n"
	compressed, err := CompressBlob(profile)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM flights\s+WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(append(summaryColumns, "track", "profile")).
			AddRow(7, "2021-05-01", 65, 3500.0, "fai", []byte(track), compressed))

	d, err := GetFlightDetail(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.FlightID)
	assert.Equal(t, models.CodeFAI, d.Code)
	assert.Equal(t, track, d.Track)
	assert.Equal(t, profile, d.Profile)
}

func TestGetFlightDetailNotFound(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectQuery(`FROM flights\s+WHERE id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(append(summaryColumns, "track", "profile")))

	_, err := GetFlightDetail(context.Background(), 42)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestDeleteFlight(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectExec(`DELETE FROM flights WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM flights WHERE id = \?`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM flights`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("lock wait timeout"))

	require.NoError(t, DeleteFlight(context.Background(), 3))
	assert.ErrorIs(t, DeleteFlight(context.Background(), 42), ErrFlightNotFound)

	err := DeleteFlight(context.Background(), 5)
	assert.ErrorContains(t, err, "lock wait timeout")
	assert.NotErrorIs(t, err, ErrFlightNotFound)
}

func TestSaveFlights(t *testing.T) {
	mock := setupMock(t)
	records := []models.FlightRecord{
		newRecord("2021-05-01", 65, 3500, models.CodeFAI, "h1"),
		newRecord("2021-06-15", 45, 3000, models.CodeFree, "h2"),
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO flights`)
	prep.ExpectExec().
		WithArgs("2021-05-01", 65, 3500.0, "fai", "h1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("2021-06-15", 45, 3000.0, "free", "h2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	n, err := SaveFlights(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveFlightsRollsBack(t *testing.T) {
	mock := setupMock(t)
	records := []models.FlightRecord{{Hash: "h1"}}

	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO flights`).
		ExpectExec().
		WillReturnError(errors.New("duplicate"))
	mock.ExpectRollback()

	_, err := SaveFlights(context.Background(), records)
	assert.ErrorContains(t, err, "h1")
}

func TestSaveFlightsEmpty(t *testing.T) {
	setupMock(t)
	n, err := SaveFlights(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ---------------------------------------------------------------------------
// Import batches
// ---------------------------------------------------------------------------

func TestImportBatchLifecycle(t *testing.T) {
	mock := setupMock(t)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(time.Minute)

	mock.ExpectExec(`INSERT INTO import_batches`).
		WithArgs("manifest.csv", started).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`UPDATE import_batches`).
		WithArgs(3, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := StartImportBatch(context.Background(), "manifest.csv", started)
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	err = FinishImportBatch(context.Background(), models.ImportBatch{
		ID: id, RowsRead: 3, RowsSaved: 2, FinishedAt: &finished, ErrorMessage: "1 row skipped",
	})
	require.NoError(t, err)
}

func TestGetImportBatches(t *testing.T) {
	mock := setupMock(t)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM import_batches`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source", "rows_read", "rows_saved", "started_at", "finished_at", "error_message"}).
			AddRow(2, "b.csv", 4, 4, started, started.Add(time.Second), nil).
			AddRow(1, "a.csv", 3, 0, started, nil, "download failed"))

	got, err := GetImportBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].FinishedAt)
	assert.Empty(t, got[0].ErrorMessage)
	assert.Nil(t, got[1].FinishedAt)
	assert.Equal(t, "download failed", got[1].ErrorMessage)
}

func TestEnsureSchema(t *testing.T) {
	mock := setupMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS flights`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS import_batches`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema(context.Background()))
}
