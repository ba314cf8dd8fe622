package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMoney(t *testing.T) {
	tests := map[string]bool{
		"100":           true,
		"100.50":        true,
		"0.01":          true,
		"9999999999.99": true,
		"10000000000":   false,
		"0":             false,
		"-5.00":         false,
		"abc":           false,
		"":              false,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ValidMoney(raw), raw)
	}
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+1 (555) 010-9999"))
	assert.True(t, ValidatePhone("+447911123456"))
	assert.False(t, ValidatePhone("not-a-phone"))
	assert.False(t, ValidatePhone("+0123"))
}

type bindTarget struct {
	Name   string      `json:"customerName" binding:"required,customername"`
	Amount json.Number `json:"amount" binding:"required,money"`
	Phone  string      `json:"customerPhone" binding:"omitempty,phone"`
}

func TestRegisterValidators_FieldErrors(t *testing.T) {
	require.NoError(t, RegisterValidators())
	require.NoError(t, RegisterValidators(), "registration is idempotent")

	r := gin.New()
	r.POST("/bind", func(c *gin.Context) {
		var target bindTarget
		if err := c.ShouldBindJSON(&target); err != nil {
			fields, ok := FieldErrors(err)
			require.True(t, ok)
			RespondWithFieldErrors(c, fields)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(body)))
		return w
	}

	w := post(`{"customerName":"Acme Ltd.","amount":"150.25","customerPhone":"+15550101"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(`{"customerName":"Acme Ltd.","amount":150.25}`)
	assert.Equal(t, http.StatusOK, w.Code, "numeric amounts are accepted")

	w = post(`{"customerName":"Acme Ltd.","amount":"-1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var single ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &single))
	assert.Equal(t, "amount", single.Field)
	assert.False(t, single.Success)

	w = post(`{"customerName":"<script>","amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var multi ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &multi))
	assert.Contains(t, multi.Errors, "customerName")
	assert.Contains(t, multi.Errors, "amount")
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	_, ok := FieldErrors(assert.AnError)
	assert.False(t, ok)
}
