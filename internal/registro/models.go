package registro

import (
	"sort"

	"servicredit-registro/internal/common/errors"
)

// Form field names, as used in HTML inputs and in ValidationErrors keys.
const (
	FieldNombre          = "nombre"
	FieldDNI             = "dni"
	FieldCelular         = "celular"
	FieldCelularOpcional = "celularOpcional"
	FieldCorreo          = "correo"
	FieldCorreoOpcional  = "correoOpcional"
	FieldEmpresa         = "empresa"
	FieldOtraEmpresa     = "otraEmpresa"
	FieldAutorizacion    = "autorizacion"
	FieldAfiliacion      = "afiliacion"
)

// EmpresaOtros is the company option that requires a free-text company name.
const EmpresaOtros = "Otros"

// FormData is the mutable record behind one form session.
type FormData struct {
	Nombre          string `json:"nombre"`
	DNI             string `json:"dni"`
	Celular         string `json:"celular"`
	CelularOpcional string `json:"celularOpcional"`
	Correo          string `json:"correo"`
	CorreoOpcional  string `json:"correoOpcional"`
	Empresa         string `json:"empresa"`
	OtraEmpresa     string `json:"otraEmpresa"`
	Autorizacion    bool   `json:"autorizacion"`
	Afiliacion      bool   `json:"afiliacion"`
}

// IsFlag reports whether field is a checkbox.
func IsFlag(field string) bool {
	return field == FieldAutorizacion || field == FieldAfiliacion
}

// Set assigns a text field.
func (f *FormData) Set(field, value string) error {
	switch field {
	case FieldNombre:
		f.Nombre = value
	case FieldDNI:
		f.DNI = value
	case FieldCelular:
		f.Celular = value
	case FieldCelularOpcional:
		f.CelularOpcional = value
	case FieldCorreo:
		f.Correo = value
	case FieldCorreoOpcional:
		f.CorreoOpcional = value
	case FieldEmpresa:
		f.Empresa = value
	case FieldOtraEmpresa:
		f.OtraEmpresa = value
	default:
		return errors.NewUnknownFieldError(field)
	}
	return nil
}

// SetFlag assigns a checkbox field.
func (f *FormData) SetFlag(field string, checked bool) error {
	switch field {
	case FieldAutorizacion:
		f.Autorizacion = checked
	case FieldAfiliacion:
		f.Afiliacion = checked
	default:
		return errors.NewUnknownFieldError(field)
	}
	return nil
}

// ShowOtraEmpresa reports whether the free-text company input is rendered.
func (f FormData) ShowOtraEmpresa() bool {
	return f.Empresa == EmpresaOtros
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}

// Fields returns the failing field names in a stable order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Payload is the JSON body posted to the registrar API.
type Payload struct {
	Nombre           string `json:"nombre"`
	DNI              string `json:"dni"`
	CelularPrincipal string `json:"celularPrincipal"`
	CelularOpcional  string `json:"celularOpcional"`
	CorreoPrincipal  string `json:"correoPrincipal"`
	CorreoOpcional   string `json:"correoOpcional"`
	Empresa          string `json:"empresa"`
	Autorizacion     bool   `json:"autorizacion"`
	Afiliacion       *bool  `json:"afiliacion,omitempty"`
}

// BuildPayload renames fields for the registrar and resolves "Otros" to the typed company.
// Fields the variant does not declare are never validated, so they are sent blank.
func BuildPayload(data FormData, opts Options) Payload {
	declared := func(field, value string) string {
		if !opts.HasField(field) {
			return ""
		}
		return value
	}

	empresa := data.Empresa
	if data.Empresa == EmpresaOtros && opts.HasField(FieldOtraEmpresa) {
		empresa = data.OtraEmpresa
	}

	p := Payload{
		Nombre:           data.Nombre,
		DNI:              data.DNI,
		CelularPrincipal: data.Celular,
		CelularOpcional:  declared(FieldCelularOpcional, data.CelularOpcional),
		CorreoPrincipal:  data.Correo,
		CorreoOpcional:   declared(FieldCorreoOpcional, data.CorreoOpcional),
		Empresa:          empresa,
		Autorizacion:     data.Autorizacion,
	}
	if opts.Variant.PassAfiliacion && opts.HasField(FieldAfiliacion) {
		afiliacion := data.Afiliacion
		p.Afiliacion = &afiliacion
	}
	return p
}

// RegistrarResponse is the body returned by the registrar on a 2xx answer.
// Only an explicit code of 0 means success.
type RegistrarResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

func (r *RegistrarResponse) Succeeded() bool {
	return r != nil && r.Code != nil && *r.Code == 0
}

// UserMessage is the server message or fallback when it is blank.
func (r *RegistrarResponse) UserMessage(fallback string) string {
	if r == nil || r.Message == "" {
		return fallback
	}
	return r.Message
}
