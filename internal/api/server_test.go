package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-crm/internal/config"
	"github.com/dpshade/pocket-crm/internal/logger"
	"github.com/dpshade/pocket-crm/internal/service"
	"github.com/dpshade/pocket-crm/internal/storage"
	"github.com/dpshade/pocket-crm/internal/storage/local"
	"github.com/dpshade/pocket-crm/internal/storage/sqlstore"
	"github.com/dpshade/pocket-crm/internal/validation"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	remote, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(dir, "remote.db"), logger.Nop())
	require.NoError(t, err)
	router := storage.NewRouter(remote, func(agencyID string) (storage.Store, error) {
		return local.New(cfg.AgencyDir(agencyID), agencyID, logger.Nop())
	}, cfg.CurrentAgency, logger.Nop())
	t.Cleanup(func() { _ = router.Close() })

	svc := service.NewService(router, service.Options{
		DefaultCity: "Recife",
		Now:         func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	return NewServer(svc, cfg, logger.Nop())
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestClientEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodPost, "/api/v1/clients",
		`{"razaoSocial":"ACME Ltda","valorPago":"1.500,00","recorrencia":"mensal"}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var created struct {
		ID          string  `json:"id"`
		RazaoSocial string  `json:"razaoSocial"`
		ValorPago   float64 `json:"valorPago"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "ACME Ltda", created.RazaoSocial)
	assert.InDelta(t, 1500, created.ValorPago, 0.001)

	code, env = do(t, s, http.MethodGet, "/api/v1/clients/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"contracts":[]`)

	code, env = do(t, s, http.MethodGet, "/api/v1/clients/search?query=acme", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), created.ID)

	code, env = do(t, s, http.MethodGet, "/api/v1/clients/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, env = do(t, s, http.MethodPost, "/api/v1/clients", `{"valorPago":10}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = do(t, s, http.MethodDelete, "/api/v1/clients/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestContractPreviewEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodPost, "/api/v1/contracts/preview",
		`{"template":"{{RAZAO_SOCIAL}} em {{CIDADE}}: {{VALOR_EXTENSO}}","valor":2.5}`, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var filled struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &filled))
	assert.Equal(t, "[RAZÃO SOCIAL] em Recife: dois reais e cinquenta centavos", filled.Content)

	code, env = do(t, s, http.MethodPost, "/api/v1/contracts/preview",
		`{"dataInicio":"2025-03-10","dataFim":"2025-01-01"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestSessionHeadersSelectStore(t *testing.T) {
	s := newTestServer(t)
	user := map[string]string{HeaderUserID: "u1"}
	sky := map[string]string{HeaderUserID: "u1", HeaderAgencyID: "sky"}

	code, _ := do(t, s, http.MethodPost, "/api/v1/clients", `{"razaoSocial":"Remota"}`, user)
	require.Equal(t, http.StatusCreated, code)
	code, _ = do(t, s, http.MethodPost, "/api/v1/clients", `{"razaoSocial":"Local"}`, nil)
	require.Equal(t, http.StatusCreated, code)

	_, env := do(t, s, http.MethodGet, "/api/v1/clients", "", user)
	assert.Contains(t, string(env.Data), "Remota")
	assert.NotContains(t, string(env.Data), "Local")

	_, env = do(t, s, http.MethodGet, "/api/v1/clients", "", nil)
	assert.Contains(t, string(env.Data), "Local")
	assert.NotContains(t, string(env.Data), "Remota")

	_, env = do(t, s, http.MethodGet, "/api/v1/clients", "", sky)
	assert.JSONEq(t, `[]`, string(env.Data))

	_, env = do(t, s, http.MethodGet, "/api/v1/health", "", sky)
	assert.Contains(t, string(env.Data), `"mode":"local"`)
	_, env = do(t, s, http.MethodGet, "/api/v1/health", "", user)
	assert.Contains(t, string(env.Data), `"mode":"remote"`)

	code, env = do(t, s, http.MethodGet, "/api/v1/clients", "", map[string]string{HeaderAgencyID: "ghost"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "UNKNOWN_AGENCY", env.Error.Code)
}

func TestDemandTaskEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := do(t, s, http.MethodPost, "/api/v1/demands",
		`{"demanda":"Site","dataEntrega":"2025-03-11","tarefas":["Layout"]}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var d struct {
		ID      string `json:"id"`
		Tarefas []struct {
			ID        string `json:"id"`
			Concluida bool   `json:"concluida"`
		} `json:"tarefas"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	require.Len(t, d.Tarefas, 1)

	code, env = do(t, s, http.MethodPost, "/api/v1/demands/"+d.ID+"/tasks/"+d.Tarefas[0].ID+"/toggle", "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Contains(t, string(env.Data), `"concluida":true`)

	code, _ = do(t, s, http.MethodPost, "/api/v1/demands/"+d.ID+"/tasks", `{"titulo":"Deploy"}`, nil)
	assert.Equal(t, http.StatusCreated, code)

	code, _ = do(t, s, http.MethodPut, "/api/v1/demands/"+d.ID+"/status", `{"status":"em_andamento"}`, nil)
	assert.Equal(t, http.StatusOK, code)

	_, env = do(t, s, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Contains(t, string(env.Data), `"type":"prazo"`)
}

func TestTransactionsMonthly(t *testing.T) {
	s := newTestServer(t)
	code, env := do(t, s, http.MethodPost, "/api/v1/transactions",
		`{"tipo":"entrada","descricao":"Mensalidade","valor":900,"mes":2,"ano":2025}`, nil)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = do(t, s, http.MethodGet, "/api/v1/transactions/monthly?ano=2025", "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var months []struct {
		Label string  `json:"label"`
		Saldo float64 `json:"saldo"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &months))
	require.Len(t, months, 12)
	assert.Equal(t, "Fev", months[1].Label)
	assert.InDelta(t, 900, months[1].Saldo, 0.001)

	code, _ = do(t, s, http.MethodGet, "/api/v1/transactions?mes=2", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAgencies(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/api/v1/agencies", "", map[string]string{HeaderAgencyID: "sky"})
	var agencies []AgencyInfo
	require.NoError(t, json.Unmarshal(env.Data, &agencies))
	require.Len(t, agencies, 2)
	assert.False(t, agencies[0].Current)
	assert.True(t, agencies[1].Current)

	code, _ := do(t, s, http.MethodPut, "/api/v1/agencies/current", `{"id":"sky"}`, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sky", s.cfg.CurrentAgency)

	code, env = do(t, s, http.MethodPut, "/api/v1/agencies/current", `{"id":"ghost"}`, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "UNKNOWN_AGENCY", env.Error.Code)
}

func TestOpenAPISpecCoversRoutes(t *testing.T) {
	spec := OpenAPISpec(validation.NewValidator())
	paths := spec["paths"].(map[string]map[string]interface{})

	for _, route := range Routes {
		ops, ok := paths[openAPIPath(route.Path)]
		require.True(t, ok, route.Path)
		assert.Contains(t, ops, strings.ToLower(route.Method), route.Path)
	}

	create := paths["/transactions"]["post"].(map[string]interface{})
	body := create["requestBody"].(map[string]interface{})
	assert.Equal(t, true, body["required"])

	toggle := paths["/demands/{id}/tasks/{taskId}/toggle"]["post"].(map[string]interface{})
	params := toggle["parameters"].([]map[string]interface{})
	require.Len(t, params, 2)
	assert.Equal(t, "path", params[1]["in"])

	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operationId":"contract-preview"`)
}

func TestAgencySwitchDuringRequests(t *testing.T) {
	s := newTestServer(t)
	handler := s.Handler()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := "clabs"
		if i%2 == 0 {
			id = "sky"
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/agencies/current", strings.NewReader(`{"id":"`+id+`"}`))
			req.Header.Set("Content-Type", "application/json")
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agencies", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	assert.Contains(t, []string{"clabs", "sky"}, s.cfg.CurrentAgencyID())
}
