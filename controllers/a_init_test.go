package controllers

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"solarcatalog/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"gotest.tools/assert"
)

const (
	mockID         = "63eb226a-d612-412b-b8d4-a3e17b7d2226"
	mockUserID     = "d234578a-ee95-4dab-b5ed-e0a83b03bbfc"
	mockSessionKey = "c2VjcmV0LXNlc3Npb24ta2V5"
	mockWhatsapp   = "919529989096"
)

var productLabel = []string{"id", "name", "description", "category", "image_url",
	"whatsapp_number", "status", "created_at", "updated_at"}

func init() {
	gin.SetMode(gin.TestMode)
}

func parsePayload(p interface{}) *bytes.Buffer {
	data, _ := json.Marshal(p)
	return bytes.NewBuffer(data)
}

type fakeMailer struct {
	email string
	token string
	err   error
}

func (m *fakeMailer) SendReset(email, token string) error {
	m.email = email
	m.token = token
	return m.err
}

func newTestAPI(t *testing.T) (*API, sqlmock.Sqlmock, redismock.ClientMock, *fakeMailer) {
	db, dbMock, err := sqlmock.New()
	assert.NilError(t, err)

	rdb, redisMock := redismock.NewClientMock()
	mail := &fakeMailer{}

	api, err := NewAPI(db, rdb, Options{
		BaseURL:        "http://localhost:8000",
		SessionKey:     mockSessionKey,
		SessionTTL:     30 * time.Minute,
		CacheTTL:       time.Minute,
		WhatsappNumber: mockWhatsapp,
		Mailer:         mail,
	})
	assert.NilError(t, err)

	return api, dbMock, redisMock, mail
}

// sampleRows is the catalog used across handler tests, newest first.
func sampleRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(productLabel).
		AddRow(mockID, "Renew Power 550W", "Mono PERC module", "Solar Panel", nil, mockWhatsapp, "active", now, now).
		AddRow("63eb226a-d612-412b-b8d4-a3e17b7d2227", "ACDB Box", nil, "ACDB-DCDB", nil, mockWhatsapp, "active", now, now).
		AddRow("63eb226a-d612-412b-b8d4-a3e17b7d2228", "Old Inverter", nil, "Inverter", nil, mockWhatsapp, "inactive", now, now)
}

// expectGeneration answers the cache generation read with an empty counter.
func expectGeneration(m redismock.ClientMock) {
	m.ExpectGet("products:generation").SetErr(redis.Nil)
}

func productRow(status models.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(productLabel).
		AddRow(mockID, "Renew Power 550W", "Mono PERC module", "Solar Panel", nil, mockWhatsapp, string(status), now, now)
}
