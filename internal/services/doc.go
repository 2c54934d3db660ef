// Package services holds the shared error taxonomy for lectern components and
// the clients for external tools in its subpackages.
//
// Every per-item failure is tagged with one of the sentinel errors so the
// orchestrator can classify it for the run report without string matching.
package services
