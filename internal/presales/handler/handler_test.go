package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/pricing"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/presales/service"
	"github.com/lymau/lead-app/internal/presales/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPresalesTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedMaster(t, db)
	router := testutil.SetupRouter()

	svc := service.NewServices(service.Deps{
		Store:     repository.NewRepositories(db),
		Converter: pricing.NewConverter(16500, map[string]float64{"Cisco": 0.5}),
	}, service.Options{})

	api := testutil.AuthGroup(router, "/api/v1")
	RegisterRoutes(api, NewHandlers(svc))

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func submitBody() map[string]interface{} {
	return map[string]interface{}{
		"salesgroup_id":     "SG1",
		"sales_name":        "Sari",
		"opportunity_name":  "Bank Mandiri WLAN Refresh",
		"company_name":      "Bank Mandiri",
		"vertical_industry": "Banking",
		"start_date":        "2026-10-01",
		"lines": []map[string]interface{}{
			{"pillar": "Network", "solution": "WLAN", "service": "Design", "brand": "Cisco", "channel": "Distributor", "cost": 1000000},
			{"pillar": "Network", "solution": "WLAN", "service": "Install", "brand": "Juniper", "currency": "USD", "amount": "10"},
		},
	}
}

func submit(t *testing.T, env *testutil.TestEnv, token string) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/presales/opportunities", submitBody(), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestSubmitAndRead(t *testing.T) {
	env := setupPresalesTest(t)
	token := testutil.GenerateTestToken(testutil.UserAlice)

	data := submit(t, env, token)
	assert.Equal(t, "SG1Q10001", data["opportunity_id"])
	assert.Equal(t, "Q10001", data["rows_id"])
	uids := data["line_uids"].([]interface{})
	require.Len(t, uids, 2)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/presales/deals/SG1Q10001/summary", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	sum := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), sum["total_items"])
	assert.Equal(t, float64(1165000), sum["total_cost"])
	assert.Equal(t, "Rp 1.165.000", sum["total_cost_text"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/opportunities/"+uids[0].(string), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	line := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, testutil.UserAlice, line["presales_name"])
	assert.Equal(t, "Budi", line["responsible_name"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/opportunities", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	list := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), list["total"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/activity-logs", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	logs := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), logs["total"])
}

func TestSubmitValidationError(t *testing.T) {
	env := setupPresalesTest(t)
	body := submitBody()
	body["opportunity_name"] = ""

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/presales/opportunities", body, testutil.GenerateTestToken(testutil.UserAlice))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := testutil.ParseResponse(w)
	assert.Equal(t, float64(40000), resp["code"])
	detail := resp["data"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", detail["kind"])
	assert.Equal(t, false, detail["retryable"])
}

func TestSubmitRowsIDExhausted(t *testing.T) {
	env := setupPresalesTest(t)
	require.NoError(t, env.DB.Create(&entity.Description{RowsID: "Q19999", Description: "Legacy Managed Services"}).Error)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/presales/opportunities", submitBody(), testutil.GenerateTestToken(testutil.UserAlice))
	assert.Equal(t, http.StatusInsufficientStorage, w.Code)
	resp := testutil.ParseResponse(w)
	assert.Equal(t, float64(50700), resp["code"])
	detail := resp["data"].(map[string]interface{})
	assert.Equal(t, "EXHAUSTED", detail["kind"])
	assert.Equal(t, false, detail["retryable"])
}

func TestSubmitRequiresAuth(t *testing.T) {
	env := setupPresalesTest(t)
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/presales/opportunities", submitBody(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEditLine(t *testing.T) {
	env := setupPresalesTest(t)
	token := testutil.GenerateTestToken(testutil.UserAlice)
	uid := submit(t, env, token)["line_uids"].([]interface{})[0].(string)

	edit := map[string]interface{}{
		"salesgroup_id": "SG1",
		"sales_name":    "Sari",
		"pillar":        "Network",
		"solution":      "WLAN",
		"service":       "Design",
		"brand":         "Juniper",
		"company_name":  "Bank Mandiri",
	}
	w := testutil.DoRequest(env.Router, "PUT", "/api/v1/presales/opportunities/"+uid, edit, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tr := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, "reassigned", tr["kind"])
	newUID := tr["new_uid"].(string)
	assert.True(t, strings.HasPrefix(newUID, "SG1Q10001-NW1D1JNP-"))

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/opportunities/"+uid, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/presales/opportunities/"+newUID, map[string]interface{}{"cost": 1200000, "notes": "revised"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/opportunities/"+newUID, nil, token)
	line := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1200000), line["cost"])

	delete(edit, "brand")
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/presales/opportunities/"+newUID, edit, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/presales/opportunities/nope", map[string]interface{}{"cost": 1}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMasterRoutes(t *testing.T) {
	env := setupPresalesTest(t)
	token := testutil.GenerateTestToken(testutil.UserAlice)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/presales/master/brands/Cisco/channels", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"Direct", "Distributor"}, data["channels"])

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/presales/master/companies", map[string]interface{}{"company_name": "PT Astra", "vertical_industry": "Automotive"}, token)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/presales/master/companies", map[string]interface{}{"company_name": "PT Astra"}, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/master/companies", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), testutil.ParseResponse(w)["data"].(map[string]interface{})["total"])

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/presales/master/pillars", nil, token)
	assert.Equal(t, float64(4), testutil.ParseResponse(w)["data"].(map[string]interface{})["total"])
}

func TestExport(t *testing.T) {
	env := setupPresalesTest(t)
	token := testutil.GenerateTestToken(testutil.UserAlice)
	submit(t, env, token)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/presales/opportunities/export", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "opportunities_")
	assert.Empty(t, w.Header().Get("X-Archive-URL"))
	assert.NotZero(t, w.Body.Len())
}
