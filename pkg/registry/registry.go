// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	VariantAfiliacion = "afiliacion"
	VariantSorteo     = "sorteo"
)

var defaultEmpresas = []string{
	"Camposol",
	"DC Capital",
	"Ecopacking",
	"DC Land Bank",
	"DC Grupo Inmobiliario",
	"Marinasol",
	"OCP",
	"Refinca",
	"Otros",
}

// Default returns the built-in registry with the affiliation and sweepstakes forms.
func Default() *FormRegistry {
	return &FormRegistry{
		Version: "1.0.0",
		Variants: []FormVariant{
			{
				ID:          VariantAfiliacion,
				Title:       "Registro a Servicredit",
				SubmitLabel: "Se parte de Servicredit",
				Fields: []string{
					"nombre", "dni", "celular", "celularOpcional", "correo", "correoOpcional",
					"empresa", "otraEmpresa", "autorizacion", "afiliacion",
				},
				Empresas:                 append([]string(nil), defaultEmpresas...),
				PassAfiliacion:           true,
				ResetOnSuccess:           true,
				TrackBusy:                true,
				SuccessMessage:           "¡Felicidades! Ya se grabaron tus datos, nos pondremos en contacto.",
				SuccessMessageAfiliacion: "¡Felicidades! Ya estas a un paso de ser parte de Servicredit.",
				Documents: []Document{
					{ID: "privacidad", Path: "/pdf/privacidad.pdf", Title: "Política de Privacidad"},
					{ID: "afiliacion", Path: "/pdf/afiliacion.pdf", Title: "Solicitud de Afiliación"},
				},
			},
			{
				ID:          VariantSorteo,
				Title:       "Sorteo Servicredit",
				SubmitLabel: "Participar",
				Fields: []string{
					"nombre", "dni", "celular", "correo",
					"empresa", "otraEmpresa", "autorizacion", "afiliacion",
				},
				Empresas:                 append([]string(nil), defaultEmpresas...),
				SuccessMessage:           "¡Gracias por participar! Ya estás registrado en el sorteo.",
				SuccessMessageAfiliacion: "¡Gracias por participar! Ya estás a un paso de ser parte de Servicredit.",
			},
		},
	}
}

// LoadRegistry reads a registry JSON file.
func LoadRegistry(path string) (*FormRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FormRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry %s: %w", path, err)
	}
	return &reg, nil
}

// Variant looks a variant up by id.
func (r *FormRegistry) Variant(id string) (FormVariant, bool) {
	for _, v := range r.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return FormVariant{}, false
}

// Validate checks the structural rules every variant must satisfy.
func (r *FormRegistry) Validate() error {
	if len(r.Variants) == 0 {
		return fmt.Errorf("registry has no variants")
	}
	seen := make(map[string]bool, len(r.Variants))
	for _, v := range r.Variants {
		if v.ID == "" {
			return fmt.Errorf("variant without id")
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate variant %q", v.ID)
		}
		seen[v.ID] = true
		if len(v.Fields) == 0 {
			return fmt.Errorf("variant %q has no fields", v.ID)
		}
		if v.SuccessMessage == "" {
			return fmt.Errorf("variant %q has no success message", v.ID)
		}
		for _, d := range v.Documents {
			if d.ID == "" || d.Path == "" {
				return fmt.Errorf("variant %q has a document without id or path", v.ID)
			}
		}
	}
	return nil
}
