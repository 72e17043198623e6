package web

import (
	"html/template"

	"servicredit-registro/internal/registro"
)

type page struct {
	View registro.View
	Has  map[string]bool
	Docs map[string]bool
}

func newPage(v registro.View) page {
	p := page{
		View: v,
		Has:  make(map[string]bool, len(v.Variant.Fields)),
		Docs: make(map[string]bool, len(v.Variant.Documents)),
	}
	for _, f := range v.Variant.Fields {
		p.Has[f] = true
	}
	for _, d := range v.Variant.Documents {
		p.Docs[d.ID] = true
	}
	return p
}

type textField struct {
	Shown bool
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

var templateFuncs = template.FuncMap{
	"field": func(p page, name, label, typ string) textField {
		return textField{
			Shown: p.Has[name],
			Name:  name,
			Label: label,
			Type:  typ,
			Value: textValue(p.View.Data, name),
			Error: p.View.Errors[name],
		}
	},
}

func textValue(d registro.FormData, name string) string {
	switch name {
	case registro.FieldNombre:
		return d.Nombre
	case registro.FieldDNI:
		return d.DNI
	case registro.FieldCelular:
		return d.Celular
	case registro.FieldCelularOpcional:
		return d.CelularOpcional
	case registro.FieldCorreo:
		return d.Correo
	case registro.FieldCorreoOpcional:
		return d.CorreoOpcional
	case registro.FieldEmpresa:
		return d.Empresa
	case registro.FieldOtraEmpresa:
		return d.OtraEmpresa
	}
	return ""
}
