package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/report"
	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/store"
	"github.com/phrazzld/crm-core/internal/task"
)

// ErrJobNotFound is returned when a report job id is unknown or has been
// evicted from the job history.
var ErrJobNotFound = errors.New("report job not found")

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, report.ErrUnknownKind),
		errors.Is(err, sink.ErrInvalidName),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Backpressure and shutdown are transient conditions
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped),
		errors.Is(err, report.ErrShutdown):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "Error inesperado"
	}

	switch {
	case errors.Is(err, ErrJobNotFound):
		return "Trabajo de informe no encontrado"
	case errors.Is(err, store.ErrNotFound):
		return "Recurso no encontrado"
	case errors.Is(err, store.ErrDuplicate):
		return "El recurso ya existe"
	case errors.Is(err, report.ErrUnknownKind):
		return "Tipo de informe no válido"
	case errors.Is(err, sink.ErrInvalidName):
		return "Nombre de fichero no válido"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Datos no válidos"
	case errors.Is(err, task.ErrQueueFull):
		return "Servidor ocupado, inténtelo más tarde"
	case errors.Is(err, task.ErrRunnerStopped),
		errors.Is(err, report.ErrShutdown):
		return "Servicio no disponible"
	default:
		return "Error inesperado"
	}
}

// HandleAPIError responds with the status and message for err. A non-empty
// userMessage replaces the derived message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError turns a validator error into a short message
// naming the failing field.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Key: 'ExportRequest.File' Error:Field validation for 'File' failed on the 'max' tag
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Campo %s no válido: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Campo %s no válido", field)
			}
		}
	}
	return "Error de validación"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "obligatorio"
	case "max":
		return "demasiado largo"
	case "excludesall":
		return "contiene caracteres no permitidos"
	case "oneof":
		return "valor no permitido"
	default:
		return "validación fallida"
	}
}
