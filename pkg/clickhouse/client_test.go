package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "sentimentdesk",
		User:        "default",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: time.Minute,
	})
	assert.Equal(t, "clickhouse://default:p%40ss@ch:9000/sentimentdesk?dial_timeout=5s&max_execution_time=60", dsn)

	httpDSN := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "db", UseHTTP: true})
	assert.Equal(t, "http://ch:8123/db", httpDSN)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestInitSchemaStopsAtFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)
	defer c.Close()

	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnError(errors.New("syntax"))

	err = c.InitSchema(context.Background(), []string{"CREATE TABLE a (x UInt8)", "CREATE TABLE b", "CREATE TABLE c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init schema")
	mock.ExpectClose()
}
