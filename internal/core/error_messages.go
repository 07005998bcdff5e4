package core

// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with codes for
// support reference. Codes are grouped by category:
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid configuration: the project file or environment failed validation
//	         Action: Fix the reported settings and restart
//	         Patterns: "validation failed"
//
//	CFG002 - Unknown store: the translation store driver is not supported
//	         Action: Use memory, sqlite or postgres
//	         Patterns: "unknown translation store driver"
//
//	CFG003 - Bad separator: a column separator is empty or longer than one character
//	         Action: Set columnSeparatorChar to a single character such as "," or "\t"
//	         Patterns: "column separator"
//
//	CFG004 - Bad row pattern: the row separator regex does not compile
//	         Action: Check rowSeparatorRegex in the project file
//	         Patterns: "row separator regex"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the file exceeds the configured size limit
//	          Action: Split the file or raise JOBS_MAX_FILE_SIZE
//	          Patterns: "file too large"
//
//	FILE002 - Permission denied: the file could not be read or written
//	          Action: Check file permissions
//	          Patterns: "permission denied"
//
//	FILE003 - No content: the request carried no file content
//	          Action: Send the file text in the request body
//	          Patterns: "no content provided"
//
//	FILE004 - Missing path: the request did not name the file
//	          Action: Pass the file name in the path query parameter
//	          Patterns: "missing path"
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - No mapping: the file name matches no configured file type
//	         Action: Add a csv.mappings entry for this file, or use a .csv/.tsv extension
//	         Patterns: "no file type mapping"
//
// # Locale Errors (LOC001-LOC099)
//
//	LOC001 - Invalid locale: the locale is not a valid BCP 47 tag
//	         Action: Use a tag such as fr-FR or de
//	         Patterns: "invalid locale"
//
//	LOC002 - No locales: no target locale was requested or configured
//	         Action: Pass --locales or set locales in the project file
//	         Patterns: "no target locales"
//
// # Translation Store Errors (TRN001-TRN099)
//
//	TRN001 - Store unavailable: the translation database cannot be reached
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused"
//
//	TRN002 - Store not migrated: the translations table is missing
//	         Action: Restart the service so migrations can run
//	         Patterns: "no such table", "does not exist"
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - System busy: too many localize or merge jobs are running
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent jobs"
//
//	JOB002 - Cancelled: the request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	JOB003 - Timed out: the job exceeded its time limit
//	         Action: Try a smaller file or raise JOBS_TIMEOUT
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Configuration (CFG001-CFG004)
	// =========================================================================
	{
		pattern: "validation failed",
		msg: UserMessage{
			Message: "The configuration is invalid",
			Action:  "Fix the reported settings and restart",
			Code:    "CFG001",
		},
	},
	{
		pattern: "unknown translation store driver",
		msg: UserMessage{
			Message: "The translation store driver is not supported",
			Action:  "Use memory, sqlite or postgres",
			Code:    "CFG002",
		},
	},
	{
		pattern: "column separator",
		msg: UserMessage{
			Message: "The column separator is invalid",
			Action:  `Set columnSeparatorChar to a single character such as "," or "\t"`,
			Code:    "CFG003",
		},
	},
	{
		pattern: "row separator regex",
		msg: UserMessage{
			Message: "The row separator pattern is invalid",
			Action:  "Check rowSeparatorRegex in the project file",
			Code:    "CFG004",
		},
	},

	// =========================================================================
	// Files (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or raise JOBS_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "The file could not be read or written",
			Action:  "Check file permissions",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no content provided",
		msg: UserMessage{
			Message: "No file content was sent",
			Action:  "Send the file text in the request body",
			Code:    "FILE003",
		},
	},
	{
		pattern: "missing path",
		msg: UserMessage{
			Message: "The request did not name the file",
			Action:  "Pass the file name in the path query parameter",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Mappings (MAP001)
	// =========================================================================
	{
		pattern: "no file type mapping",
		msg: UserMessage{
			Message: "The file does not match any configured file type",
			Action:  "Add a csv.mappings entry for this file, or use a .csv/.tsv extension",
			Code:    "MAP001",
		},
	},

	// =========================================================================
	// Locales (LOC001-LOC002)
	// =========================================================================
	{
		pattern: "invalid locale",
		msg: UserMessage{
			Message: "The locale is not valid",
			Action:  "Use a tag such as fr-FR or de",
			Code:    "LOC001",
		},
	},
	{
		pattern: "no target locales",
		msg: UserMessage{
			Message: "No target locale was requested",
			Action:  "Pass --locales or set locales in the project file",
			Code:    "LOC002",
		},
	},

	// =========================================================================
	// Translation store (TRN001-TRN002)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The translation store is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "TRN001",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "The translation store is not initialized",
			Action:  "Restart the service so migrations can run",
			Code:    "TRN002",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The translation store is not initialized",
			Action:  "Restart the service so migrations can run",
			Code:    "TRN002",
		},
	},

	// =========================================================================
	// Jobs (JOB001-JOB003)
	// =========================================================================
	{
		pattern: "too many concurrent jobs",
		msg: UserMessage{
			Message: "System is busy processing other jobs",
			Action:  "Please wait a moment and try again",
			Code:    "JOB001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "JOB002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The job timed out",
			Action:  "Try a smaller file or raise JOBS_TIMEOUT",
			Code:    "JOB003",
		},
	},

	// =========================================================================
	// Rate limiting (RATE001)
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

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error and ERR000 when nothing matches.
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

// FormatUserError returns a single-line message with code and action.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
