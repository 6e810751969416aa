package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/crm-core/internal/domain"
)

const headerTimestamp = "2006-01-02T15:04:05"

func formatClients(clients []domain.Client, at time.Time) string {
	var b strings.Builder
	b.WriteString("=== INFORME DE CLIENTES ===\n")
	fmt.Fprintf(&b, "Fecha: %s\n\n", at.Format(headerTimestamp))
	fmt.Fprintf(&b, "Total de clientes: %d\n\n", len(clients))
	for _, c := range clients {
		fmt.Fprintf(&b, "ID: %d | Username: %s | Nombre: %s %s | Email: %s\n",
			c.ID, c.Username, c.FirstName, c.LastName, c.Email)
	}
	return b.String()
}

func formatInvoices(invoices []domain.Invoice, at time.Time) string {
	var b strings.Builder
	b.WriteString("=== INFORME DE FACTURAS ===\n")
	fmt.Fprintf(&b, "Fecha: %s\n\n", at.Format(headerTimestamp))
	fmt.Fprintf(&b, "Total de facturas: %d\n", len(invoices))
	fmt.Fprintf(&b, "Total facturado: %s €\n\n", domain.SumTotals(invoices).StringFixed(2))
	return b.String()
}

// section is one line of the aggregate report.
type section struct {
	label string
	count int
	err   error
}

func (s section) String() string {
	if s.err != nil {
		return s.label + ": Error: " + s.err.Error()
	}
	return fmt.Sprintf("%s: %d", s.label, s.count)
}

func formatAggregate(sections []section, at time.Time) string {
	var b strings.Builder
	b.WriteString("=== INFORME COMPLETO ===\n")
	fmt.Fprintf(&b, "Fecha: %s\n\n", at.Format(headerTimestamp))
	for _, s := range sections {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
