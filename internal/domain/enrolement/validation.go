// Package enrolement contiene las reglas puras del enrôlement: validación del formulario,
// agregación de estadísticas y búsqueda en memoria.
package enrolement

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

var (
	phonePattern         = regexp.MustCompile(`^6[0-9]{8}$`)
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	prepaidMeterPattern  = regexp.MustCompile(`^01\d{10}$`)
	postpaidMeterPattern = regexp.MustCompile(`^200\d{9}$`)
)

// Input datos crudos del formulario. Los nombres JSON son los del almacén remoto.
type Input struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required,phone_cm"`
	Email       string `json:"email" validate:"required,email_light"`
	MeterType   string `json:"meterType" validate:"required,oneof=prepaid postpaid"`
	MeterNumber string `json:"meterNumber"`
	Address     string `json:"address" validate:"required"`
	Usage       string `json:"usage" validate:"required,oneof=domicile entreprise campagne appartement"`
}

// ValidationError agrupa todos los campos inválidos (campo → motivo legible).
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, domain.ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == domain.ErrInvalidInput
}

var enrolementValidate *validator.Validate

func init() {
	enrolementValidate = validator.New(validator.WithRequiredStructEnabled())
	enrolementValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = enrolementValidate.RegisterValidation("phone_cm", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = enrolementValidate.RegisterValidation("email_light", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	enrolementValidate.RegisterStructValidation(meterNumberRule, Input{})
}

// meterNumberRule elige el formato del numéro de compteur según el tipo ya validado.
// Con un tipo ausente o inválido solo se exige presencia.
func meterNumberRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(Input)
	if in.MeterNumber == "" {
		sl.ReportError(in.MeterNumber, "meterNumber", "MeterNumber", "required", "")
		return
	}
	switch entity.MeterType(in.MeterType) {
	case entity.MeterPrepaid:
		if !prepaidMeterPattern.MatchString(in.MeterNumber) {
			sl.ReportError(in.MeterNumber, "meterNumber", "MeterNumber", "prepaid_format", "")
		}
	case entity.MeterPostpaid:
		if !postpaidMeterPattern.MatchString(in.MeterNumber) {
			sl.ReportError(in.MeterNumber, "meterNumber", "MeterNumber", "postpaid_format", "")
		}
	}
}

// messages motivo legible por campo y etiqueta de validación.
var messages = map[string]map[string]string{
	"name": {
		"required": "Le nom est obligatoire",
	},
	"phone": {
		"required": "Le numéro de téléphone est obligatoire",
		"phone_cm": "Le numéro doit commencer par 6 et contenir exactement 9 chiffres",
	},
	"email": {
		"required":    "L'adresse e-mail est obligatoire",
		"email_light": "Veuillez entrer une adresse e-mail valide (ex: exemple@mail.com)",
	},
	"meterType": {
		"required": "Veuillez sélectionner le type de compteur",
		"oneof":    "Type de compteur invalide",
	},
	"meterNumber": {
		"required":        "Le numéro de compteur est obligatoire",
		"prepaid_format":  "Un numéro de compteur prépayé doit commencer par 01 et contenir 12 chiffres",
		"postpaid_format": "Un numéro de compteur postpayé doit commencer par 200 et contenir 12 chiffres",
	},
	"address": {
		"required": "L'adresse est obligatoire",
	},
	"usage": {
		"required": "Veuillez sélectionner un domaine d'utilisation",
		"oneof":    "Domaine d'utilisation invalide",
	},
}

// Normalize recorta espacios de todos los campos.
func (in Input) Normalize() Input {
	return Input{
		Name:        strings.TrimSpace(in.Name),
		Phone:       strings.TrimSpace(in.Phone),
		Email:       strings.TrimSpace(in.Email),
		MeterType:   strings.TrimSpace(in.MeterType),
		MeterNumber: strings.TrimSpace(in.MeterNumber),
		Address:     strings.TrimSpace(in.Address),
		Usage:       strings.TrimSpace(in.Usage),
	}
}

// Validate comprueba el formulario completo y devuelve el registro validado (sin ID ni CreatedAt)
// o un *ValidationError con todos los campos inválidos a la vez.
func Validate(raw Input) (entity.Enrolement, error) {
	in := raw.Normalize()
	if err := enrolementValidate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return entity.Enrolement{}, fmt.Errorf("validar enrôlement: %w", err)
		}
		out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			if _, seen := out.Fields[fe.Field()]; seen {
				continue
			}
			msg, ok := messages[fe.Field()][fe.Tag()]
			if !ok {
				msg = "Valeur invalide"
			}
			out.Fields[fe.Field()] = msg
		}
		return entity.Enrolement{}, out
	}

	return entity.Enrolement{
		Name:        in.Name,
		Phone:       in.Phone,
		Email:       in.Email,
		MeterType:   entity.MeterType(in.MeterType),
		MeterNumber: in.MeterNumber,
		Address:     in.Address,
		Usage:       entity.Usage(in.Usage),
	}, nil
}
