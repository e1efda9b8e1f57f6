package main

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// setupTest points the global db at a fresh in-memory sqlite database and
// resets cache and config state. A single connection keeps the in-memory
// database alive across queries.
func setupTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var err error
	db, err = sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, initSchema())

	cache = newMemoryCache()
	cacheHits.Store(0)
	cacheMisses.Store(0)

	cfg = Config{
		InternalSecret: "test-internal-secret",
		WebhookSecret:  "test-webhook-secret",
		PrimaryBranch:  "main",
	}
	hashingSalt = "test-salt"
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	setupContentRoutes(r)
	setupWebhookRoutes(r)
	return r
}
