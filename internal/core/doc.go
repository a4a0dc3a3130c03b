// Package core computes cohort retention matrices from subscription exports.
//
// The package holds the domain logic independent of files, transport and
// rendering. Web handlers, the CLI and tests use it unchanged.
//
// # Pipeline
//
// [Compute] turns raw rows into a [Result] in one pure call:
//
//  1. [ResolveColumns] finds the start and cancel columns from the header
//     (marker substring, then legacy position 18/21).
//  2. [NormalizeDate] parses each cell with the day-first layout list.
//  3. Rows are classified into customers; rows without a start date are
//     excluded and counted.
//  4. Customers are grouped by "YYYY-MM" cohort into 25-month retention
//     vectors ([MaxMonths]+1 entries).
//  5. Averages over the realized months and month-over-month growth are
//     derived once every cohort exists.
//
// "Now" is always injected; nothing in the pipeline reads the clock.
//
// # Service
//
// [Service] wires the pipeline to a [RowReader], an optional [ImportStore]
// (single last-write-wins slot) and an optional [Narrator]. Imports are
// bounded by an [ImportLimiter]. A failed save or narration is reported next
// to the computed matrix and never replaces it.
//
// # Error Codes Reference
//
// User-facing errors carry a code that support staff can look up here.
//
// # Cohort Errors (COH001-COH099)
//
//	COH001 - No start column: every row was excluded
//	         Action: Check the start-date header or the legacy column position
//	         Patterns: "no usable start-date column"
//
//	COH002 - Invalid input: the pipeline received a malformed snapshot
//	         Patterns: "invalid argument"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Unsupported format        Patterns: "unsupported file format"
//	FILE003 - Invalid CSV               Patterns: "invalid csv"
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE005 - Empty dataset             Patterns: "empty dataset"
//	FILE006 - Legacy .xls workbook      Patterns: "legacy xls workbook"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP002 - System busy                Patterns: "too many concurrent imports"
//	IMP003 - Nothing stored             Patterns: "no import stored"
//	IMP004 - Request cancelled          Patterns: "context canceled"
//	IMP005 - Request timeout            Patterns: "context deadline exceeded"
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Backend unreachable      Patterns: "connection refused"
//	STORE002 - Corrupt snapshot         Patterns: "decode snapshot"
//	STORE003 - Computed, not saved      Patterns: "save last import"
//
// # Narrative Errors (AI001-AI099)
//
//	AI001 - Not configured              Patterns: "narrative generator unavailable"
//	AI002 - Call failed                 Patterns: "generate narrative"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs for
// the original technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins.
package core
