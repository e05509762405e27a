package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" binding:"required"`
	Count int    `json:"count"`
}

func (p sample) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Count, validation.Max(3)),
	)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func bind(t *testing.T, body string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst sample
	return rec, BindJSON(c, &dst)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBindJSON(t *testing.T) {
	cases := map[string]struct {
		body  string
		ok    bool
		field string
	}{
		"valid":          {body: `{"name":"a","count":1}`, ok: true},
		"binding tag":    {body: `{"count":1}`, field: "name"},
		"validate rule":  {body: `{"name":"a","count":9}`, field: "count"},
		"wrong type":     {body: `{"name":"a","count":"x"}`, field: "count"},
		"malformed json": {body: `{"name":`, field: "body"},
		"empty body":     {body: ``, field: "body"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, ok := bind(t, tc.body)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Fields, tc.field)
		})
	}
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(validation.Errors{"x": errors.New("bad")}))
	assert.False(t, IsValidation(errors.New("boom")))
}

func TestParsePage(t *testing.T) {
	cases := map[string]struct {
		query string
		ok    bool
		page  Page
	}{
		"defaults":        {query: "", ok: true, page: Page{Limit: defaultPageLimit}},
		"explicit":        {query: "limit=10&offset=20", ok: true, page: Page{Limit: 10, Offset: 20}},
		"clamped":         {query: "limit=5000", ok: true, page: Page{Limit: maxPageLimit}},
		"zero limit":      {query: "limit=0"},
		"negative offset": {query: "offset=-1"},
		"not a number":    {query: "limit=ten"},
	}

	gin.SetMode(gin.TestMode)
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)

			page, ok := ParsePage(c)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.page, page)
			} else {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestParseOptionalQueries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/?study_id="+id.String()+"&from=2025-03-01T10:00:00Z", nil)

	parsedID, ok := ParseOptionalUUIDQuery(c, "study_id")
	require.True(t, ok)
	require.NotNil(t, parsedID)
	assert.Equal(t, id, *parsedID)

	from, ok := ParseOptionalTimeQuery(c, "from")
	require.True(t, ok)
	require.NotNil(t, from)
	assert.Equal(t, 10, from.Hour())

	missing, ok := ParseOptionalTimeQuery(c, "to")
	assert.True(t, ok)
	assert.Nil(t, missing)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/?to=yesterday", nil)
	_, ok = ParseOptionalTimeQuery(c, "to")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequiredID(t *testing.T) {
	id := uuid.New()
	nilID := uuid.Nil

	assert.NoError(t, validation.Validate(id, RequiredID))
	assert.Error(t, validation.Validate(uuid.Nil, RequiredID))
	assert.NoError(t, validation.Validate(&id, RequiredID))
	assert.Error(t, validation.Validate(&nilID, RequiredID))
	assert.NoError(t, validation.Validate((*uuid.UUID)(nil), RequiredID))
}
