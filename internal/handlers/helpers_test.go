package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	database.SetDB(db)
	return db
}

func closeTestDB(t *testing.T, db *gorm.DB) {
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.Close()
}

// newTestContext builds a gin context for a request with an optional JSON body
func newTestContext(method, url string, body interface{}, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, url, nil)
	case string:
		req = httptest.NewRequest(method, url, bytes.NewBufferString(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		raw, _ := json.Marshal(b)
		req = httptest.NewRequest(method, url, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	return c, w
}

func idParam(id string) gin.Param {
	return gin.Param{Key: "id", Value: id}
}

func childParam(id string) gin.Param {
	return gin.Param{Key: "child_id", Value: id}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func createTestClient(t *testing.T, db *gorm.DB, name string) *models.Client {
	client := &models.Client{Name: name}
	require.NoError(t, db.Create(client).Error)
	return client
}
