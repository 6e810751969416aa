// Package api exposes the operational HTTP endpoints of the CRM core:
// statistics inspection and export, report jobs and a health probe.
// Handlers translate HTTP concerns into calls on the stats registry and
// the report orchestrator; the heavy lifting stays in those packages.
package api
