package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateConnectionString(t *testing.T) {
	assert.Equal(t, "", CreateConnectionString(map[string]string{}))
	assert.Equal(
		t,
		"dbname='benchsuite' host='localhost' password='psw' port='5432' user='postgres'",
		CreateConnectionString(map[string]string{
			"host":     "localhost",
			"port":     "5432",
			"user":     "postgres",
			"password": "psw",
			"dbname":   "benchsuite",
		}),
	)
}

func TestCreateConnectionStringEscapesQuotes(t *testing.T) {
	assert.Equal(
		t,
		`password='p\'w\\d'`,
		CreateConnectionString(map[string]string{"password": `p'w\d`}),
	)
}
