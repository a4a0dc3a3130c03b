package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Cohort Errors (COH001-COH002)
	// =========================================================================
	{
		pattern: "no usable start-date column",
		msg: UserMessage{
			Message: "No usable start-date column found",
			Action:  "Make sure a column header contains the start marker or the start date is in column S",
			Code:    "COH001",
		},
	},
	{
		pattern: "invalid argument",
		msg: UserMessage{
			Message: "The data could not be processed",
			Action:  "Please re-import the file",
			Code:    "COH002",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Export a smaller date range and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "legacy xls workbook",
		msg: UserMessage{
			Message: "Legacy Excel 97-2003 (.xls) files are not supported",
			Action:  "Open the file in Excel and save it as .xlsx, or export it as CSV",
			Code:    "FILE006",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File format is not supported",
			Action:  "Upload an .xlsx or .csv export",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a subscription export to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty dataset",
		msg: UserMessage{
			Message: "The file is empty or could not be read",
			Action:  "Please upload an export with data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP005)
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "no import stored",
		msg: UserMessage{
			Message: "No previous import was found",
			Action:  "Import a subscription export first",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Store Errors (STORE001-STORE003)
	// =========================================================================
	{
		pattern: "save last import",
		msg: UserMessage{
			Message: "The matrix was computed but could not be saved",
			Action:  "It will be lost on restart. Check the storage backend",
			Code:    "STORE003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the storage backend",
			Action:  "Please try again in a few moments",
			Code:    "STORE001",
		},
	},
	{
		pattern: "decode snapshot",
		msg: UserMessage{
			Message: "The stored import could not be read",
			Action:  "Import the file again to replace it",
			Code:    "STORE002",
		},
	},

	// =========================================================================
	// Narrative Errors (AI001-AI002)
	// =========================================================================
	{
		pattern: "narrative generator unavailable",
		msg: UserMessage{
			Message: "AI insights are not configured",
			Action:  "Set GEMINI_API_KEY to enable insights",
			Code:    "AI001",
		},
	},
	{
		pattern: "generate narrative",
		msg: UserMessage{
			Message: "Could not connect to the AI service",
			Action:  "The matrix is unaffected. Try again later",
			Code:    "AI002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	msg := MapError(fmt.Errorf("import: %w", ErrNoStartColumn))
//	// msg.Code == "COH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern and can be shown
// to users as is.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
