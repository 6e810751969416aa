package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/report"
	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/store"
	"github.com/phrazzld/crm-core/internal/task"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{"nil error", nil, http.StatusInternalServerError, "Error inesperado"},
		{"unknown job", ErrJobNotFound, http.StatusNotFound, "Trabajo de informe no encontrado"},
		{"wrapped not found", store.ErrClientNotFound, http.StatusNotFound, "Recurso no encontrado"},
		{"duplicate", store.ErrDuplicate, http.StatusConflict, "El recurso ya existe"},
		{"unknown kind", fmt.Errorf("%w: %q", report.ErrUnknownKind, "x"), http.StatusBadRequest, "Tipo de informe no válido"},
		{"invalid name", sink.ErrInvalidName, http.StatusBadRequest, "Nombre de fichero no válido"},
		{"validation", domain.ErrValidation, http.StatusBadRequest, "Datos no válidos"},
		{"queue full", fmt.Errorf("schedule: %w", task.ErrQueueFull), http.StatusServiceUnavailable, "Servidor ocupado, inténtelo más tarde"},
		{"runner stopped", task.ErrRunnerStopped, http.StatusServiceUnavailable, "Servicio no disponible"},
		{"orchestrator shut down", report.ErrShutdown, http.StatusServiceUnavailable, "Servicio no disponible"},
		{"unknown error", errors.New("db exploded at 10.0.0.1"), http.StatusInternalServerError, "Error inesperado"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.expectedMsg, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&ExportRequest{File: "a/b.txt"})
	if assert.Error(t, err) {
		assert.Equal(t, "Campo File no válido: contiene caracteres no permitidos", SanitizeValidationError(err))
	}

	assert.Equal(t, "Error de validación", SanitizeValidationError(errors.New("something else")))
}
