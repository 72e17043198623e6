// Package web serves the registration form over HTTP.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"servicredit-registro/internal/common/errors"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/common/observability"
	"servicredit-registro/internal/registro"
	"servicredit-registro/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const maxBodyBytes = 64 << 10

type Config struct {
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	DocumentsDir string
}

type Dependencies struct {
	Sessions      *session.Manager
	Form          registro.Dependencies
	Logger        logger.Logger
	Observability *observability.Observability
}

// Handler owns the routes of the form service.
type Handler struct {
	cfg        Config
	sessions   *session.Manager
	form       registro.Dependencies
	validator  *registro.Validator
	logger     logger.Logger
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	templates  *template.Template
}

func NewHandler(cfg Config, deps Dependencies) (*Handler, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if cfg.CookieName == "" {
		return nil, fmt.Errorf("cookie name is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		cfg:        cfg,
		sessions:   deps.Sessions,
		form:       deps.Form,
		validator:  registro.NewValidator(deps.Form.Options),
		logger:     deps.Logger,
		obs:        deps.Observability,
		errHandler: errors.NewErrorHandler(deps.Logger),
		templates:  tmpl,
	}, nil
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/", h.showForm)
	r.Post("/", h.submitForm)
	r.Post("/campos/{field}", h.setField)
	r.Post("/documentos/{id}", h.openDocument)
	r.Post("/documentos/cerrar", h.closeDocument)
	r.Post("/notificacion/cerrar", h.dismissNotification)

	r.Route("/api/formulario", func(r chi.Router) {
		r.Post("/validar", h.apiValidate)
		r.Post("/enviar", h.apiSubmit)
	})

	if h.cfg.DocumentsDir != "" {
		r.Handle("/pdf/*", http.StripPrefix("/pdf/", http.FileServer(http.Dir(h.cfg.DocumentsDir))))
	}
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// observe logs each request and records it on the OpenTelemetry meter.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.obs.RecordRequest(r.Context(), route, status, time.Since(start))
		h.logger.Debug("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}

// session resolves the caller's form session from its cookie, creating one
// when the cookie is missing or stale.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*registro.Session, error) {
	var id string
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		id = c.Value
	}
	s, created, err := h.sessions.GetOrCreate(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    s.ID(),
			Path:     "/",
			MaxAge:   int(h.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s, nil
}

func (h *Handler) save(r *http.Request, s *registro.Session) {
	if err := h.sessions.Save(r.Context(), s); err != nil {
		h.logger.Error("Failed to save session", map[string]interface{}{
			"sessionId": s.ID(),
			"error":     err,
		})
	}
}

func (h *Handler) backToForm(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, "page", newPage(s.View())); err != nil {
		h.logger.Error("Failed to render form", map[string]interface{}{"error": err})
	}
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidRequestError(err.Error()))
		return
	}

	s.Bind(r.PostForm)
	if _, err := s.Submit(r.Context()); err != nil {
		// Double submit while busy; the page still shows the disabled control.
		h.logger.Debug("Submit ignored", map[string]interface{}{"sessionId": s.ID(), "error": err})
	}
	h.save(r, s)
	h.backToForm(w, r)
}

func (h *Handler) setField(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidRequestError(err.Error()))
		return
	}

	field := chi.URLParam(r, "field")
	value := r.PostForm.Get("value")
	if registro.IsFlag(field) {
		err = s.SetFlag(field, parseCheckbox(value))
	} else {
		err = s.Set(field, value)
	}
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	h.save(r, s)
	w.WriteHeader(http.StatusNoContent)
}

func parseCheckbox(v string) bool {
	switch v {
	case "on", "true", "1":
		return true
	}
	return false
}

func (h *Handler) openDocument(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.errHandler.HandleHTTPError(w, r, errors.NewInvalidRequestError(err.Error()))
		return
	}
	// The document buttons submit the whole form; keep what was typed so far.
	if len(r.PostForm) > 0 {
		s.Bind(r.PostForm)
	}
	if err := s.OpenDocument(chi.URLParam(r, "id")); err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	h.save(r, s)
	h.backToForm(w, r)
}

func (h *Handler) closeDocument(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	s.CloseDocument()
	h.save(r, s)
	h.backToForm(w, r)
}

func (h *Handler) dismissNotification(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	s.DismissNotification()
	h.save(r, s)
	h.backToForm(w, r)
}

type validateResponse struct {
	Valid  bool                      `json:"valid"`
	Errors registro.ValidationErrors `json:"errors"`
}

type submitResponse struct {
	Outcome      registro.Outcome          `json:"outcome"`
	Errors       registro.ValidationErrors `json:"errors,omitempty"`
	Notification *registro.Notification    `json:"notification,omitempty"`
	Error        *errors.StandardError     `json:"error,omitempty"`
}

// decodeForm reads a JSON API body, checks it against the request schema and
// decodes it into FormData.
func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (registro.FormData, error) {
	var data registro.FormData
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return data, errors.NewInvalidRequestError(err.Error())
	}

	result := formRequest.ValidateBytes(body)
	if !result.Valid {
		e := errors.NewInvalidRequestError("request body does not match schema")
		e.Metadata = map[string]interface{}{"errors": result.GetErrorMessages()}
		return data, e
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return data, errors.NewInvalidRequestError(err.Error())
	}
	return data, nil
}

func (h *Handler) apiValidate(w http.ResponseWriter, r *http.Request) {
	data, err := h.decodeForm(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	errs := h.validator.Validate(data)
	writeJSON(w, http.StatusOK, validateResponse{Valid: errs.Valid(), Errors: errs})
}

// apiSubmit runs one stateless submission for a complete form.
func (h *Handler) apiSubmit(w http.ResponseWriter, r *http.Request) {
	data, err := h.decodeForm(w, r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}

	s, err := registro.Restore(registro.Snapshot{
		ID:      uuid.NewString(),
		Variant: h.form.Options.Variant.ID,
		Data:    data,
	}, h.form)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}

	res, err := s.Submit(r.Context())
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}

	status := http.StatusOK
	resp := submitResponse{Outcome: res.Outcome, Errors: res.Errors, Notification: res.Notification}
	if res.Err != nil {
		resp.Error = errors.Normalize(res.Err)
		status = errors.HTTPStatus(resp.Error.Code)
	}
	writeJSON(w, status, resp)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Ping(r.Context()); err != nil {
		h.logger.Warn("Readiness check failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
