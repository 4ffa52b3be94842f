package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestDetectOperation(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM products":               "SELECT",
		"  insert into orders values (1)":      "INSERT",
		"UPDATE products SET stock = 1":        "UPDATE",
		"delete from carts":                    "DELETE",
		"WITH t AS (SELECT 1) SELECT * FROM t": "SELECT",
		"VACUUM":                               "OTHER",
	}
	for stmt, want := range tests {
		assert.Equal(t, want, detectOperation(stmt), stmt)
	}
}

func TestDBMetrics_RecordsQueries(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	db := openTestDB(t)

	m, err := RegisterDBMetrics(db, mp, DBConfig{SlowQueryThresh: time.Hour}, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	defer m.Stop()

	require.NoError(t, db.Create(&widget{Name: "mug"}).Error)
	var got []widget
	require.NoError(t, db.Find(&got).Error)
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM widgets").Scan(new(int64)).Error)

	m.StartPoolStats(context.Background())

	rm := collect(t, reader)
	assert.GreaterOrEqual(t, sumOf(t, findMetric(rm, "db_query_total")), int64(3))
	assert.NotNil(t, findMetric(rm, "db_query_duration_seconds"))
}

func TestDBMetrics_SlowQueries(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := NewDBMetrics(mp.Meter("db"), DBConfig{SlowQueryThresh: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	m.RecordQuery(context.Background(), "SELECT", "products", 50*time.Millisecond)
	m.RecordQuery(context.Background(), "", "", time.Millisecond)

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "db_query_total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "db_slow_query_total")))
}

func TestRegisterDBMetrics_DisabledProvider(t *testing.T) {
	m, err := RegisterDBMetrics(openTestDB(t), &MeterProvider{}, DefaultDBConfig(), nil)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestInstrumentDB_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	db := openTestDB(t)
	require.NoError(t, InstrumentDB(db, DBConfig{TracingEnabled: true, DBSystem: "sqlite"}, nil))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "plate"}).Error)
	parent.End()

	var dbSpans int
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans++
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 1)
}

func TestInstrumentDB_Disabled(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, InstrumentDB(db, DBConfig{}, nil))
}
