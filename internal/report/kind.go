package report

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownKind is returned for report kinds the orchestrator cannot build.
var ErrUnknownKind = errors.New("unknown report kind")

// ErrShutdown is returned once the orchestrator has been shut down.
var ErrShutdown = errors.New("report orchestrator is shut down")

// Kind names a report.
type Kind string

// Report kinds
const (
	KindClients   Kind = "clients"
	KindInvoices  Kind = "invoices"
	KindAggregate Kind = "aggregate"
)

// filePrefix returns the artifact name prefix of the kind.
func (k Kind) filePrefix() string {
	switch k {
	case KindClients:
		return "informe_clientes_"
	case KindInvoices:
		return "informe_facturas_"
	case KindAggregate:
		return "informe_completo_"
	default:
		return ""
	}
}

// ParseKind maps the public report names used by the HTTP surface.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "clientes", string(KindClients):
		return KindClients, nil
	case "facturas", string(KindInvoices):
		return KindInvoices, nil
	case "completo", string(KindAggregate):
		return KindAggregate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// fileTimestamp is the layout of the timestamp embedded in artifact names.
const fileTimestamp = "20060102_150405"

// ArtifactName returns <prefix><YYYYMMDD_HHmmss>.txt for kind.
func ArtifactName(kind Kind, at time.Time) string {
	return kind.filePrefix() + at.Format(fileTimestamp) + ".txt"
}

func dedicatedClientsName(at time.Time) string {
	return "informe_clientes_thread_" + at.Format(fileTimestamp) + ".txt"
}
