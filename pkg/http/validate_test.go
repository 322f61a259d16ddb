package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type periodQuery struct {
	Period string `query:"period" default:"ytd" validate:"oneof=mtd ytd"`
	Months int    `query:"months" default:"12" validate:"gte=1,lte=36"`
}

func newContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequest_Defaults(t *testing.T) {
	var q periodQuery
	errs := ReadAndValidateRequest(newContext(http.MethodGet, "/x", ""), &q)
	require.Nil(t, errs)
	assert.Equal(t, "ytd", q.Period)
	assert.Equal(t, 12, q.Months)
}

func TestReadAndValidateRequest_FieldErrors(t *testing.T) {
	var q periodQuery
	errs := ReadAndValidateRequest(newContext(http.MethodGet, "/x?period=qtd&months=40", ""), &q)
	require.NotNil(t, errs)

	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "ERR_ONEOF", list[0].Code)
	assert.Equal(t, "period", list[0].Field)
	assert.Equal(t, "period must be one of: mtd, ytd", list[0].Message)
	assert.Equal(t, "ERR_LTE", list[1].Code)
	assert.Equal(t, "36", list[1].Params["max"])
}

func TestReadAndValidateRequest_BindError(t *testing.T) {
	var body struct {
		Name string `json:"name" validate:"required"`
	}
	errs := ReadAndValidateRequest(newContext(http.MethodPost, "/x", `{"name":`), &body)
	list, ok := errs.([]ValidationError)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "ERR_BIND", list[0].Code)
}
