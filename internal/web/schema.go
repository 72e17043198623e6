package web

import "servicredit-registro/internal/common/validation"

// formRequestSchema guards the JSON API. It checks shape only; field rules
// are the form validator's job.
const formRequestSchema = `{
  "type": "object",
  "properties": {
    "nombre":          {"type": "string", "maxLength": 200},
    "dni":             {"type": "string", "maxLength": 20},
    "celular":         {"type": "string", "maxLength": 20},
    "celularOpcional": {"type": "string", "maxLength": 20},
    "correo":          {"type": "string", "maxLength": 254},
    "correoOpcional":  {"type": "string", "maxLength": 254},
    "empresa":         {"type": "string", "maxLength": 200},
    "otraEmpresa":     {"type": "string", "maxLength": 200},
    "autorizacion":    {"type": "boolean"},
    "afiliacion":      {"type": "boolean"}
  },
  "additionalProperties": false
}`

var formRequest = validation.MustCompileSchema(formRequestSchema)
