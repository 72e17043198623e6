package registro

import "regexp"

// jsSpace is the ECMAScript whitespace and line terminator set. RE2 \s is narrower
// (no \v, no-break spaces or BOM) and unicode.IsSpace adds U+0085.
const jsSpace = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	dniPattern     = regexp.MustCompile(`^\d{8}$`)
	celularPattern = regexp.MustCompile(`^9\d{8}$`)
	// Accepts anything shaped like a@b.c, consecutive dots included.
	correoPattern = regexp.MustCompile(`[^` + jsSpace + `]+@[^` + jsSpace + `]+\.[^` + jsSpace + `]+`)
	blankPattern  = regexp.MustCompile(`^[` + jsSpace + `]*$`)
)

// isBlank reports whether s is empty once trimmed the way String.prototype.trim does.
func isBlank(s string) bool {
	return blankPattern.MatchString(s)
}

// Field error messages.
const (
	MsgNombreRequired      = "El nombre es obligatorio"
	MsgDNIInvalid          = "El DNI debe tener 8 dígitos numéricos"
	MsgCelularInvalid      = "El celular debe tener 9 dígitos y comenzar con 9"
	MsgCelularOpcional     = "El celular opcional debe comenzar con 9"
	MsgCorreoInvalid       = "Debe ingresar un correo válido"
	MsgCorreoOpcional      = "El correo opcional no es válido"
	MsgEmpresaRequired     = "Debe seleccionar una empresa"
	MsgEmpresaNotListed    = "Debe seleccionar una empresa de la lista"
	MsgOtraEmpresaRequired = "Debe ingresar el nombre de la empresa"
)

// Validator checks a FormData against the rules of one variant.
type Validator struct {
	opts     Options
	empresas map[string]bool
}

func NewValidator(opts Options) *Validator {
	empresas := make(map[string]bool, len(opts.Variant.Empresas))
	for _, e := range opts.Variant.Empresas {
		empresas[e] = true
	}
	return &Validator{opts: opts, empresas: empresas}
}

// Validate runs every rule and collects all failures. It never fails itself.
func (v *Validator) Validate(data FormData) ValidationErrors {
	errs := ValidationErrors{}

	check := func(field string, failed bool, msg string) {
		if failed && v.opts.HasField(field) {
			errs[field] = msg
		}
	}

	check(FieldNombre, isBlank(data.Nombre), MsgNombreRequired)
	check(FieldDNI, !dniPattern.MatchString(data.DNI), MsgDNIInvalid)
	check(FieldCelular, !celularPattern.MatchString(data.Celular), MsgCelularInvalid)
	check(FieldCelularOpcional,
		data.CelularOpcional != "" && !celularPattern.MatchString(data.CelularOpcional), MsgCelularOpcional)
	check(FieldCorreo, !correoPattern.MatchString(data.Correo), MsgCorreoInvalid)
	check(FieldCorreoOpcional,
		data.CorreoOpcional != "" && !correoPattern.MatchString(data.CorreoOpcional), MsgCorreoOpcional)

	switch {
	case data.Empresa == "":
		check(FieldEmpresa, true, MsgEmpresaRequired)
	case len(v.empresas) > 0 && !v.empresas[data.Empresa]:
		check(FieldEmpresa, true, MsgEmpresaNotListed)
	}

	check(FieldOtraEmpresa,
		data.Empresa == EmpresaOtros && isBlank(data.OtraEmpresa), MsgOtraEmpresaRequired)

	return errs
}
