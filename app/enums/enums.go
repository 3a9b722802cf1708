// Package enums provides type-safe enumeration types shared by the state, pollers and web API.
//
// The enum types are defined as unexported integer types (e.g., serviceStatus int) in this file,
// and the go:generate directives invoke the go-pkgz/enum generator to create corresponding exported
// types with all necessary methods in separate files (*_enum.go).
//
// For each enum type, the generator creates:
//   - An exported struct type (e.g., ServiceStatus) with name and value fields
//   - String() method for string representation
//   - Parse functions (e.g., ParseServiceStatus) for string-to-enum conversion
//   - JSON marshaling methods (MarshalText/UnmarshalText)
//   - Exported constants for each enum value (e.g., ServiceStatusOnline, JobStateQueued)
//
// To regenerate the enum types after modifications:
//
//	go generate ./app/enums
//
// Note: The unexported type definitions below are only used by the generator.
// All actual code should use the generated exported types.
package enums

//go:generate go run github.com/go-pkgz/enum@latest -type serviceStatus -lower
//go:generate go run github.com/go-pkgz/enum@latest -type jobState -lower
//go:generate go run github.com/go-pkgz/enum@latest -type zone -lower

// serviceStatus represents the health of the remote transcription service.
type serviceStatus int

const (
	serviceStatusUnconfigured serviceStatus = iota
	serviceStatusChecking
	serviceStatusOnline
	serviceStatusError
)

// jobState represents the state of a transcription job.
// Completed, Failed and NotFound are terminal.
type jobState int

const (
	jobStateSubmitted jobState = iota
	jobStateQueued
	jobStateProcessing
	jobStateCompleted
	jobStateFailed
	jobStateNotfound
)

// zone identifies a disjoint part of the shared state with a single writer.
type zone int

const (
	zoneEndpoint zone = iota
	zoneHealth
	zoneJob
)

// IsTerminal reports whether no further transition is possible from the state
func (e JobState) IsTerminal() bool {
	switch e {
	case JobStateCompleted, JobStateFailed, JobStateNotfound:
		return true
	default:
		return false
	}
}
