// Package domain contains the CRM entities read by background reports:
// clients, the commercials that manage them, and invoices.
package domain
