package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/store"
	"github.com/dailies-app/dailies/internal/web/cache"
)

// newAPIHarness builds the full router over a sqlmock-backed store so
// tests exercise the same middleware and URL routing production uses.
func newAPIHarness(t *testing.T, optionCache cache.Cache) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.MonitorPingsOption(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := NewAPI(
		store.New(db, zap.NewNop()),
		catalog.NewStaticCatalogue(),
		formula.DefaultEngine(),
		optionCache,
		time.Minute,
		zap.NewNop(),
	)
	return NewRouter(api, RouterConfig{}, zap.NewNop()), mock
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body: %s", rr.Body.String())
	return body
}

// findField returns the descriptor with the given code from a decoded
// fields response.
func findField(t *testing.T, body map[string]interface{}, code string) map[string]interface{} {
	t.Helper()
	fields, ok := body["fields"].([]interface{})
	require.True(t, ok, "fields missing: %v", body)
	for _, f := range fields {
		field := f.(map[string]interface{})
		if field["code"] == code {
			return field
		}
	}
	t.Fatalf("field %q not in response", code)
	return nil
}

func TestFields_DescribesEntity(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodGet, "/api/v1/department/fields", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "department", body["entity"])

	name := findField(t, body, "name")
	assert.Equal(t, "text", name["type"])
	assert.Equal(t, true, name["editable"])

	id := findField(t, body, "id")
	assert.Equal(t, true, id["read_only"])
	assert.Equal(t, false, id["editable"])

	columns, ok := body["columns"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFields_IncludesComputedDescriptors(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodGet, "/api/v1/task/fields", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)

	remaining := findField(t, body, "days_remaining")
	assert.Equal(t, true, remaining["read_only"])
	assert.Nil(t, remaining["storage_column"])

	assignee := findField(t, body, "assignee_id")
	assert.Equal(t, "profile", assignee["target"])
	source, ok := assignee["option_source"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "entity", source["kind"])
}

func TestFields_UnknownEntity(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodGet, "/api/v1/widget/fields", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody(t, rr)["code"])
}

func TestRecords_ReturnsEnrichedRows(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "departments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "sort_order"}).
			AddRow(int64(1), "Lighting", "#ffcc00", int64(10)).
			AddRow(int64(2), "Compositing", "#3366ff", int64(20)))

	rr := doRequest(router, http.MethodGet, "/api/v1/department/records", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	records, ok := body["records"].([]interface{})
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "Lighting", records[0].(map[string]interface{})["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_ProjectScopedFetch(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "tasks" WHERE "project_id" = $1`).
		WithArgs("55").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).
			AddRow(int64(1), "Comp", "ip"))

	rr := doRequest(router, http.MethodGet, "/api/v1/task/records?project_id=55", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	records := decodeBody(t, rr)["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, "Comp", records[0].(map[string]interface{})["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_MissingTableIsUnavailable(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "departments"`).
		WillReturnError(&pq.Error{Code: "42P01"})

	rr := doRequest(router, http.MethodGet, "/api/v1/department/records", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "table_unavailable", decodeBody(t, rr)["code"])
}

func TestOptions_LoadedOnceThenCached(t *testing.T) {
	router, mock := newAPIHarness(t, cache.NewMemoryCache())

	mock.ExpectQuery(`SELECT "id", "first_name", "last_name", "email" FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email"}).
			AddRow(int64(3), "Ada", "Lovelace", "ada@studio.test").
			AddRow(int64(9), "", "", "grace@studio.test"))

	first := doRequest(router, http.MethodGet, "/api/v1/department/options", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	options := decodeBody(t, first)["options"].(map[string]interface{})
	createdBy := options["created_by"].([]interface{})
	require.Len(t, createdBy, 2)
	assert.Equal(t, map[string]interface{}{"value": "3", "label": "Ada Lovelace"}, createdBy[0])
	assert.Equal(t, map[string]interface{}{"value": "9", "label": "grace@studio.test"}, createdBy[1])

	// The second request is served from the cache without touching the
	// database.
	second := doRequest(router, http.MethodGet, "/api/v1/department/options", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacets_StatusCounts(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).
			AddRow(int64(1), "Comp", "ip").
			AddRow(int64(2), "Roto", "ip").
			AddRow(int64(3), "Paint", "fin"))

	rr := doRequest(router, http.MethodGet, "/api/v1/task/facets?field=status", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "status", body["field"])
	facets := body["facets"].([]interface{})
	require.Len(t, facets, 2)
	assert.Equal(t, map[string]interface{}{"value": "ip", "label": "ip", "count": float64(2)}, facets[0])
	assert.Equal(t, map[string]interface{}{"value": "fin", "label": "fin", "count": float64(1)}, facets[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacets_ServedFromCacheOnRepeat(t *testing.T) {
	router, mock := newAPIHarness(t, cache.NewMemoryCache())

	mock.ExpectQuery(`SELECT * FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).
			AddRow(int64(1), "Comp", "ip").
			AddRow(int64(2), "Roto", "fin"))

	first := doRequest(router, http.MethodGet, "/api/v1/task/facets?field=status", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	// The second request is served from the cache without touching the
	// database.
	second := doRequest(router, http.MethodGet, "/api/v1/task/facets?field=status", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacets_FieldParameterRequired(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodGet, "/api/v1/task/facets", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "bad_request", decodeBody(t, rr)["code"])
}

func TestFacets_UnknownField(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodGet, "/api/v1/task/facets?field=nonsense", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdate_WritesStorageAndReturnsPatch(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "departments" WHERE "id" = $1 LIMIT 1`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), "Pipeline"))
	mock.ExpectExec(`UPDATE "departments" SET "name" = $1 WHERE "id" = $2`).
		WithArgs("Production Tech", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := doRequest(router, http.MethodPatch, "/api/v1/department/7",
		`{"field":"name","value":"Production Tech"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "7", body["id"])
	patch := body["patch"].(map[string]interface{})
	assert.Equal(t, "Production Tech", patch["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_InvalidatesCachedOptions(t *testing.T) {
	router, mock := newAPIHarness(t, cache.NewMemoryCache())

	profileRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email"}).
			AddRow(int64(3), "Ada", "Lovelace", "ada@studio.test")
	}

	mock.ExpectQuery(`SELECT "id", "first_name", "last_name", "email" FROM "profiles"`).
		WillReturnRows(profileRows())

	first := doRequest(router, http.MethodGet, "/api/v1/department/options", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	mock.ExpectQuery(`SELECT * FROM "departments" WHERE "id" = $1 LIMIT 1`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), "Pipeline"))
	mock.ExpectExec(`UPDATE "departments" SET "name" = $1 WHERE "id" = $2`).
		WithArgs("Production Tech", "7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	patch := doRequest(router, http.MethodPatch, "/api/v1/department/7",
		`{"field":"name","value":"Production Tech"}`)
	require.Equal(t, http.StatusOK, patch.Code, patch.Body.String())

	// The edit dropped the cached payloads, so the next request reloads
	// from the database.
	mock.ExpectQuery(`SELECT "id", "first_name", "last_name", "email" FROM "profiles"`).
		WillReturnRows(profileRows())

	second := doRequest(router, http.MethodGet, "/api/v1/department/options", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ReadOnlyFieldRejected(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodPatch, "/api/v1/department/7",
		`{"field":"id","value":"99"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	body := decodeBody(t, rr)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "id", body["field"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_InvalidValueRejected(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectQuery(`SELECT * FROM "versions" WHERE "id" = $1 LIMIT 1`).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}).AddRow(int64(3), "v001"))

	rr := doRequest(router, http.MethodPatch, "/api/v1/version/3",
		`{"field":"media_url","value":"not a url"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, "media_url", body["field"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_UnknownField(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodPatch, "/api/v1/department/7",
		`{"field":"nonsense","value":"x"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdate_MalformedBody(t *testing.T) {
	router, _ := newAPIHarness(t, nil)

	rr := doRequest(router, http.MethodPatch, "/api/v1/department/7", `{"field":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDelete_RemovesRow(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectExec(`DELETE FROM "departments" WHERE "id" = $1`).
		WithArgs("7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := doRequest(router, http.MethodDelete, "/api/v1/department/7", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ProjectScopeAppended(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectExec(`DELETE FROM "versions" WHERE "id" = $1 AND "project_id" = $2`).
		WithArgs("3", "55").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := doRequest(router, http.MethodDelete, "/api/v1/version/3?project_id=55", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	router, mock := newAPIHarness(t, nil)

	mock.ExpectExec(`DELETE FROM "departments" WHERE "id" = $1`).
		WithArgs("7").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rr := doRequest(router, http.MethodDelete, "/api/v1/department/7", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeBody(t, rr)["code"])
}

func TestHealthz(t *testing.T) {
	router, mock := newAPIHarness(t, nil)
	mock.ExpectPing()

	rr := doRequest(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]interface{}{"status": "ok"}, decodeBody(t, rr))
}
