package registro

import (
	"fmt"
	"time"

	"servicredit-registro/pkg/registry"
)

// User-facing messages shared by every variant.
const (
	MsgConsentRequired   = "Debes aceptar los términos y condiciones."
	MsgConnectionFailed  = "Error al conectar con el servidor."
	MsgRegistrationError = "Error al registrar. Por favor, intenta nuevamente."
)

const DefaultNotificationTTL = 6 * time.Second

// Options parameterises one form variant.
type Options struct {
	Variant         registry.FormVariant
	NotificationTTL time.Duration
}

func DefaultOptions(variant registry.FormVariant) Options {
	return Options{
		Variant:         variant,
		NotificationTTL: DefaultNotificationTTL,
	}
}

func (o Options) Validate() error {
	if o.Variant.ID == "" {
		return fmt.Errorf("variant id is required")
	}
	if len(o.Variant.Fields) == 0 {
		return fmt.Errorf("variant %q has no fields", o.Variant.ID)
	}
	if o.NotificationTTL <= 0 {
		return fmt.Errorf("notification ttl must be positive")
	}
	for _, f := range o.Variant.Fields {
		if !knownField(f) {
			return fmt.Errorf("variant %q declares unknown field %q", o.Variant.ID, f)
		}
	}
	return nil
}

// HasField reports whether the variant renders and validates field.
func (o Options) HasField(field string) bool {
	for _, f := range o.Variant.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// SuccessMessage picks the success text for the afiliacion choice.
func (o Options) SuccessMessage(afiliacion bool) string {
	if afiliacion && o.Variant.SuccessMessageAfiliacion != "" {
		return o.Variant.SuccessMessageAfiliacion
	}
	return o.Variant.SuccessMessage
}

func knownField(field string) bool {
	switch field {
	case FieldNombre, FieldDNI, FieldCelular, FieldCelularOpcional, FieldCorreo,
		FieldCorreoOpcional, FieldEmpresa, FieldOtraEmpresa, FieldAutorizacion, FieldAfiliacion:
		return true
	}
	return false
}
