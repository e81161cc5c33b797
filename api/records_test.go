package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollaboratorEndpoints(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"nome":         "Ana Souza",
		"cpf":          "1234",
		"cargo":        "Técnica de segurança",
		"dataAdmissao": "2024-02-01T00:00:00Z",
		"ativo":        true,
	}

	w := env.request(t, http.MethodPost, "/v1/collaborators", body, "op", model.UserRoleOperator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/v1/collaborators", body, "mgr", model.UserRoleManager)
	require.Equal(t, http.StatusBadRequest, w.Code)
	violations := decode[FailedValidationResponse](t, w)
	assert.Equal(t, "cpf", violations.FieldViolations[0].Field)

	body["cpf"] = "12345678901"
	w = env.request(t, http.MethodPost, "/v1/collaborators", body, "mgr", model.UserRoleManager)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Collaborator](t, w)
	assert.Equal(t, "mgr", created.CreatedBy)

	w = env.request(t, http.MethodPatch, "/v1/collaborators/"+created.ID, `{"departamento":"Operações"}`, "mgr", model.UserRoleManager)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Collaborator](t, w)
	assert.Equal(t, "Operações", updated.Department)
	assert.Equal(t, "Ana Souza", updated.Name)

	w = env.request(t, http.MethodGet, "/v1/collaborators?search=souza", nil, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Collaborator](t, w), 1)

	w = env.request(t, http.MethodDelete, "/v1/collaborators/"+created.ID, nil, "mgr", model.UserRoleManager)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, "/v1/collaborators/"+created.ID, nil, "admin", model.UserRoleAdmin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodGet, "/v1/collaborators/"+created.ID, nil, "op", model.UserRoleOperator)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, filename string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestCreateDocumentWithFile(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/v1/documents", map[string]string{
		"colaboradorId":   "c1",
		"colaboradorNome": "Ana Souza",
		"tipo":            "ASO",
		"dataValidade":    time.Now().AddDate(0, 0, 10).Format(dateLayout),
	}, documentFileField, "aso.pdf")
	req.Header.Set(authorizationHeaderKey, "Bearer "+env.token(t, "op", model.UserRoleOperator))

	w := env.send(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[model.Document](t, w)
	assert.Regexp(t, `^https://files\.example\.com/documentacoes/aso-\w{8}$`, doc.FileURL)
	assert.Equal(t, model.DocumentStatusExpiring, doc.Status)

	// A failed upload keeps the document without its file.
	env.files.setErr(errors.New("quota exceeded"))
	req = multipartRequest(t, "/v1/documents", map[string]string{
		"colaboradorId": "c2",
		"tipo":          "NR-35",
		"dataValidade":  time.Now().AddDate(1, 0, 0).Format(dateLayout),
	}, documentFileField, "nr35.pdf")
	req.Header.Set(authorizationHeaderKey, "Bearer "+env.token(t, "op", model.UserRoleOperator))

	w = env.send(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, decode[model.Document](t, w).FileURL)

	// Server-owned fields in a patch body are ignored.
	w = env.request(t, http.MethodPatch, "/v1/documents/"+doc.ID, map[string]any{
		"descricao":     "Revisado",
		"alertaEnviado": true,
		"ultimoAlerta":  "2099-01-01T00:00:00Z",
		"createdBy":     "outro",
		"arquivoUrl":    "https://elsewhere.example.com/x.pdf",
	}, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[model.Document](t, w)
	assert.Equal(t, "Revisado", patched.Description)
	assert.False(t, patched.AlertSent)
	assert.Nil(t, patched.LastAlertAt)
	assert.Equal(t, "op", patched.CreatedBy)
	assert.Equal(t, doc.FileURL, patched.FileURL)
	assert.True(t, doc.CreatedAt.Equal(patched.CreatedAt))

	w = env.request(t, http.MethodGet, "/v1/documents?status=vencendo", nil, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Document](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].CollaboratorID)

	w = env.request(t, http.MethodGet, "/v1/documents?status=perdido", nil, "op", model.UserRoleOperator)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinancialTransactionEndpoints(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"data":      "2026-03-10",
		"descricao": "Nota fiscal 123",
		"tipo":      "saida",
		"valor":     1500.0,
	}

	w := env.request(t, http.MethodPost, "/v1/financial-transactions", body, "op", model.UserRoleOperator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/v1/financial-transactions", body, "mgr", model.UserRoleManager)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.FinancialTransaction](t, w)
	assert.False(t, util.IsLocalID(created.ID))

	env.files.setErr(errors.New("quota exceeded"))
	req := multipartRequest(t, "/v1/financial-transactions", map[string]string{
		"data":      "2026-03-11",
		"descricao": "Recibo",
		"tipo":      "saida",
		"valor":     "80",
	}, financialFileField, "recibo.pdf")
	req.Header.Set(authorizationHeaderKey, "Bearer "+env.token(t, "mgr", model.UserRoleManager))
	assert.Equal(t, http.StatusBadGateway, env.send(req).Code)

	w = env.request(t, http.MethodGet, "/v1/financial-transactions?from=2026-03-01&to=2026-03-31", nil, "mgr", model.UserRoleManager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.FinancialTransaction](t, w), 1)
}

func TestDailyEntryBalanceEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []map[string]any{
		{"data": "2026-03-10T12:00:00Z", "descricao": "Venda", "tipo": "entrada", "valor": 900.0},
		{"data": "2026-03-11T12:00:00Z", "descricao": "Combustível", "tipo": "saida", "valor": 150.0},
	} {
		w := env.request(t, http.MethodPost, "/v1/daily-entries", body, "op", model.UserRoleOperator)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.request(t, http.MethodGet, "/v1/daily-entries/balance", nil, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	balance := decode[map[string]float64](t, w)
	assert.Equal(t, 900.0, balance["entradas"])
	assert.Equal(t, 150.0, balance["saidas"])
	assert.Equal(t, 750.0, balance["saldo"])

	w = env.request(t, http.MethodGet, "/v1/daily-entries?kind=outro", nil, "op", model.UserRoleOperator)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncFlushPushesLocalRecords(t *testing.T) {
	env := newTestEnv(t)
	env.documents.SetFailure(errors.New("offline"))

	body := map[string]any{
		"colaboradorId": "c1",
		"tipo":          "CNH",
		"dataValidade":  "2027-01-15",
	}
	w := env.request(t, http.MethodPost, "/v1/documents", body, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	local := decode[model.Document](t, w)
	require.True(t, util.IsLocalID(local.ID))

	env.documents.SetFailure(nil)

	w = env.request(t, http.MethodPost, "/v1/sync/flush", nil, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]map[string]int](t, w)
	assert.Equal(t, 1, resp["synced"]["documentacoes"])
	assert.Equal(t, 1, env.documents.Len())

	// The local id keeps resolving to the synced record.
	w = env.request(t, http.MethodGet, "/v1/documents/"+local.ID, nil, "op", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, util.IsLocalID(decode[model.Document](t, w).ID))
}

func TestMyProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/v1/users/me", nil, "u1", model.UserRoleOperator)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodPut, "/v1/users/me", map[string]string{"nome": "Ana"}, "u1", model.UserRoleOperator)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode[model.User](t, w)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, model.UserRoleOperator, user.Role)

	w = env.request(t, http.MethodGet, "/v1/users", nil, "u1", model.UserRoleOperator)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/v1/users?role=operador", nil, "admin", model.UserRoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.User](t, w), 1)
}
