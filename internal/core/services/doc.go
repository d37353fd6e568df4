// Package services contains the core business logic: access scoping,
// document ingestion, multi-strategy retrieval, result ranking, context
// assembly and answer synthesis. Services implement the driving ports
// and depend only on the driven ports, never on concrete adapters.
package services
