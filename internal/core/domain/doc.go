// Package domain defines the core business entities for recap.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceItem: A subtitled video fetched from the subtitle API
//   - Annotation: The summary of one source item
//   - Description: The final channel-level summary
//   - SummaryRequest: One call to the summarisation oracle
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
