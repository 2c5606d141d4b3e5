package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type categoryPage struct {
	Data              []models.Category `json:"data"`
	NextCursorPointer string            `json:"nextCursorPointer"`
	PrevCursorPointer string            `json:"prevCursorPointer"`
}

// ControllerTestSuite runs the whole stack over HTTP against the embedded store
type ControllerTestSuite struct {
	suite.Suite
	controller *Controller
	router     *gin.Engine
}

func (suite *ControllerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := &models.Config{
		AppName:                "catalog",
		AppVersion:             "test",
		AppEnv:                 "testing",
		DynamoDBTablePrefix:    "test",
		DynamoDBTableName:      "catalog",
		StoreBackend:           "badger",
		BadgerInMemory:         true,
		PaginationMinLimit:     1,
		PaginationMaxLimit:     100,
		PaginationDefaultLimit: 10,
		QueryBatchSize:         100,
		CursorSecret:           "test-secret",
		CursorTTL:              time.Hour,
		CORSOrigins:            []string{"*"},
		WorkerRunOnce:          true,
		MetricsEnabled:         true,
		BasePath:               "/api/v1",
	}

	c, err := NewController(cfg, testLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(c.Start())
	suite.controller = c
	suite.router = c.Router()
}

func (suite *ControllerTestSuite) TearDownTest() {
	suite.NoError(suite.controller.Shutdown(context.Background()))
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (suite *ControllerTestSuite) request(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actorHeader, "tester")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *ControllerTestSuite) createCategory(name string) string {
	w := suite.request(http.MethodPost, "/api/v1/categories", map[string]string{"name": name})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data models.Category `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func (suite *ControllerTestSuite) page(query url.Values) categoryPage {
	w := suite.request(http.MethodGet, "/api/v1/categories?"+query.Encode(), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page categoryPage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func names(page categoryPage) []string {
	out := make([]string, 0, len(page.Data))
	for _, c := range page.Data {
		out = append(out, c.Name)
	}
	return out
}

func (suite *ControllerTestSuite) TestPaginationOverHTTP() {
	for _, name := range []string{"A", "B", "C"} {
		suite.createCategory(name)
	}

	first := suite.page(url.Values{"limit": {"2"}, "status": {"ACTIVE"}})
	suite.Equal([]string{"A", "B"}, names(first))
	suite.NotEmpty(first.NextCursorPointer)
	suite.Empty(first.PrevCursorPointer)

	second := suite.page(url.Values{"limit": {"2"}, "status": {"ACTIVE"}, "direction": {"next"}, "cursorPointer": {first.NextCursorPointer}})
	suite.Equal([]string{"C"}, names(second))
	suite.Empty(second.NextCursorPointer)
	suite.NotEmpty(second.PrevCursorPointer)

	back := suite.page(url.Values{"limit": {"2"}, "status": {"ACTIVE"}, "direction": {"PREVIOUS"}, "cursorPointer": {second.PrevCursorPointer}})
	suite.Equal([]string{"A", "B"}, names(back))
}

func (suite *ControllerTestSuite) TestInvalidPageControls() {
	for _, query := range []string{"limit=0", "limit=101", "direction=sideways"} {
		w := suite.request(http.MethodGet, "/api/v1/categories?"+query, nil)
		suite.Equal(http.StatusBadRequest, w.Code, query)
	}
}

func (suite *ControllerTestSuite) TestLifecycle() {
	id := suite.createCategory("Tools")

	w := suite.request(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Tools"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request(http.MethodPut, "/api/v1/categories/"+id, map[string]string{"name": "Hardware"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	suite.Equal(http.StatusNotFound, suite.request(http.MethodGet, "/api/v1/categories/name/Tools", nil).Code)
	suite.Equal(http.StatusOK, suite.request(http.MethodGet, "/api/v1/categories/name/Hardware", nil).Code)

	w = suite.request(http.MethodGet, "/api/v1/categories/search?name=ardw", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"count":1`)

	suite.Equal(http.StatusOK, suite.request(http.MethodDelete, "/api/v1/categories/"+id, nil).Code)
	suite.Equal(http.StatusNotFound, suite.request(http.MethodGet, "/api/v1/categories/name/Hardware", nil).Code)
	suite.Empty(suite.page(url.Values{}).Data)

	suite.Equal(http.StatusOK, suite.request(http.MethodDelete, "/api/v1/categories/"+id+"?hard=true", nil).Code)
	suite.Equal(http.StatusNotFound, suite.request(http.MethodGet, "/api/v1/categories/"+id, nil).Code)
}

func (suite *ControllerTestSuite) TestFilterOverHTTP() {
	for i := 0; i < 5; i++ {
		suite.createCategory(fmt.Sprintf("Item %d", i))
	}

	body := models.FilterPageRequest{Filter: models.Filter{Search: "Item", Status: []string{"ACTIVE"}}, Limit: 3}
	w := suite.request(http.MethodPost, "/api/v1/categories/filter", body)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var page categoryPage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	suite.Len(page.Data, 3)
	suite.NotEmpty(page.NextCursorPointer)
}

func (suite *ControllerTestSuite) TestInfrastructureAndMetrics() {
	w := suite.request(http.MethodGet, "/api/v1/health/infrastructure", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"tableName":"test_catalog"`)
	suite.Contains(w.Body.String(), `"status":"completed"`)

	suite.createCategory("Tools")
	w = suite.request(http.MethodGet, "/metrics", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "catalog_store_operations_total")
}

func (suite *ControllerTestSuite) TestRequestIDAndCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/categories", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.Equal("https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}
