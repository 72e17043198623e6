package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/registro"
	"servicredit-registro/internal/session"
	"servicredit-registro/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "registro_session"

type fakeRegistrar struct {
	calls atomic.Int32
	resp  *registro.RegistrarResponse
	err   error
}

func (f *fakeRegistrar) Register(context.Context, registro.Payload) (*registro.RegistrarResponse, error) {
	f.calls.Add(1)
	return f.resp, f.err
}

func codePtr(c int) *int { return &c }

type testServer struct {
	handler   http.Handler
	registrar *fakeRegistrar
	cookie    *http.Cookie
}

func newTestServer(t *testing.T, variantID string, docsDir string) *testServer {
	t.Helper()
	v, ok := registry.Default().Variant(variantID)
	require.True(t, ok)

	reg := &fakeRegistrar{resp: &registro.RegistrarResponse{Code: codePtr(0)}}
	log := logger.NewTestLogger(t)
	form := registro.Dependencies{
		Options:   registro.DefaultOptions(v),
		Registrar: reg,
		Logger:    log,
	}
	store := session.NewMemoryStore(time.Hour, 0, log)
	mgr := session.NewManager(store, form, time.Hour, log)

	h, err := NewHandler(Config{
		CookieName:   cookieName,
		SessionTTL:   time.Hour,
		DocumentsDir: docsDir,
	}, Dependencies{Sessions: mgr, Form: form, Logger: log})
	require.NoError(t, err)

	return &testServer{handler: h.Routes(), registrar: reg}
}

func (s *testServer) do(t *testing.T, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			s.cookie = c
		}
	}
	return rec
}

func (s *testServer) postForm(t *testing.T, target string, values url.Values) *httptest.ResponseRecorder {
	return s.do(t, http.MethodPost, target, values.Encode(), "application/x-www-form-urlencoded")
}

func validValues() url.Values {
	return url.Values{
		"nombre":       {"Ana Torres"},
		"dni":          {"12345678"},
		"celular":      {"912345678"},
		"correo":       {"ana@example.com"},
		"empresa":      {"Otros"},
		"otraEmpresa":  {"Acme"},
		"autorizacion": {"on"},
		"afiliacion":   {"on"},
	}
}

func TestShowForm_SetsCookieAndRendersVariant(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	rec := srv.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.cookie)
	assert.True(t, srv.cookie.HttpOnly)

	body := rec.Body.String()
	assert.Contains(t, body, "Registro a Servicredit")
	assert.Contains(t, body, `name="celularOpcional"`)
	assert.Contains(t, body, "/documentos/privacidad")
	assert.NotContains(t, body, `name="otraEmpresa"`)

	sorteo := newTestServer(t, registry.VariantSorteo, "")
	body = sorteo.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Participar")
	assert.NotContains(t, body, `name="celularOpcional"`)
	assert.NotContains(t, body, "/documentos/")
}

func TestSubmitForm_Success(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")
	srv.do(t, http.MethodGet, "/", "", "")

	rec := srv.postForm(t, "/", validValues())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, int32(1), srv.registrar.calls.Load())

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Ya estas a un paso de ser parte de Servicredit.")
	assert.Contains(t, body, "notificacion-success")
	assert.NotContains(t, body, `value="Ana Torres"`, "form resets after success")
}

func TestSubmitForm_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	values := validValues()
	values.Set("dni", "123")
	values.Set("otraEmpresa", "")
	srv.postForm(t, "/", values)

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "El DNI debe tener 8 dígitos numéricos")
	assert.Contains(t, body, "Debe ingresar el nombre de la empresa")
	assert.Contains(t, body, `name="otraEmpresa"`)
	assert.Contains(t, body, `value="Ana Torres"`)
	assert.Equal(t, int32(0), srv.registrar.calls.Load())
}

func TestSubmitForm_ConsentAndDismiss(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	values := validValues()
	values.Del("autorizacion")
	srv.postForm(t, "/", values)

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Debes aceptar los términos y condiciones.")
	assert.Equal(t, int32(0), srv.registrar.calls.Load())

	rec := srv.postForm(t, "/notificacion/cerrar", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	body = srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, "Debes aceptar los términos y condiciones.")
}

func TestSetField(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	rec := srv.postForm(t, "/campos/empresa", url.Values{"value": {"Otros"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.postForm(t, "/campos/afiliacion", url.Values{"value": {"true"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, `name="otraEmpresa"`)
	assert.Contains(t, body, `name="afiliacion" checked`)

	rec = srv.postForm(t, "/campos/telefono", url.Values{"value": {"1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetField_EmpresaTogglesOtraEmpresa(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, `name="otraEmpresa"`)
	assert.Contains(t, body, `"/campos/" + encodeURIComponent(el.name)`, "page posts input changes")
	assert.Contains(t, body, `addEventListener("change"`)

	srv.postForm(t, "/campos/empresa", url.Values{"value": {"Otros"}})
	body = srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, `<input id="otraEmpresa" name="otraEmpresa" type="text" value="">`)

	srv.postForm(t, "/campos/empresa", url.Values{"value": {"Camposol"}})
	body = srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, `name="otraEmpresa"`)
}

func TestDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "privacidad.pdf"), []byte("%PDF-1.4"), 0o600))
	srv := newTestServer(t, registry.VariantAfiliacion, dir)

	rec := srv.do(t, http.MethodGet, "/documentos/privacidad", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotContains(t, srv.do(t, http.MethodGet, "/", "", "").Body.String(), `role="dialog"`)

	values := url.Values{"nombre": {"Ana Torres"}, "empresa": {"OCP"}}
	rec = srv.postForm(t, "/documentos/privacidad", values)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	body := srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, "Política de Privacidad")
	assert.Contains(t, body, `data="/pdf/privacidad.pdf"`)
	assert.Contains(t, body, `value="Ana Torres"`, "typed values survive opening a document")

	rec = srv.postForm(t, "/documentos/contrato", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	srv.postForm(t, "/documentos/cerrar", url.Values{})
	body = srv.do(t, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, `role="dialog"`)

	rec = srv.do(t, http.MethodGet, "/pdf/privacidad.pdf", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestAPIValidate(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	rec := srv.do(t, http.MethodPost, "/api/formulario/validar",
		`{"nombre":"","dni":"1234567","celular":"912345678","correo":"a@b.c","empresa":"OCP"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, registro.ValidationErrors{
		"nombre": "El nombre es obligatorio",
		"dni":    "El DNI debe tener 8 dígitos numéricos",
	}, resp.Errors)

	rec = srv.do(t, http.MethodPost, "/api/formulario/validar", `{"dni":12345678}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")

	rec = srv.do(t, http.MethodPost, "/api/formulario/validar", `{"hack":true}`, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPISubmit(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		resp     *registro.RegistrarResponse
		status   int
		outcome  registro.Outcome
		contains string
	}{
		{
			name:     "success",
			body:     `{"nombre":"Ana","dni":"12345678","celular":"912345678","correo":"a@b.co","empresa":"OCP","autorizacion":true}`,
			resp:     &registro.RegistrarResponse{Code: codePtr(0)},
			status:   http.StatusOK,
			outcome:  registro.OutcomeSuccess,
			contains: "nos pondremos en contacto",
		},
		{
			name:     "rejected",
			body:     `{"nombre":"Ana","dni":"12345678","celular":"912345678","correo":"a@b.co","empresa":"OCP","autorizacion":true}`,
			resp:     &registro.RegistrarResponse{Code: codePtr(1), Message: "Ya registrado"},
			status:   http.StatusBadGateway,
			outcome:  registro.OutcomeRejected,
			contains: "Ya registrado",
		},
		{
			name:     "invalid",
			body:     `{"nombre":"Ana"}`,
			status:   http.StatusUnprocessableEntity,
			outcome:  registro.OutcomeInvalid,
			contains: "VALIDATION_FAILED",
		},
		{
			name:     "no consent",
			body:     `{"nombre":"Ana","dni":"12345678","celular":"912345678","correo":"a@b.co","empresa":"OCP"}`,
			status:   http.StatusUnprocessableEntity,
			outcome:  registro.OutcomeConsentMissing,
			contains: "CONSENT_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, registry.VariantAfiliacion, "")
			if tt.resp != nil {
				srv.registrar.resp = tt.resp
			}

			rec := srv.do(t, http.MethodPost, "/api/formulario/enviar", tt.body, "application/json")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)

			var resp submitResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.outcome, resp.Outcome)
		})
	}
}

func TestHealthReadyMetrics(t *testing.T) {
	srv := newTestServer(t, registry.VariantAfiliacion, "")

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "", "").Code)
	assert.Contains(t, srv.do(t, http.MethodGet, "/ready", "", "").Body.String(), `"ready"`)

	srv.postForm(t, "/", validValues())
	rec := srv.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "registro_submissions_total")

	rec = srv.do(t, http.MethodGet, "/static/form.css", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
