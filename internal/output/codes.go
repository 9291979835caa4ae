// Package output provides structured error handling and exit codes.
package output

// Exit codes for the CLI.
const (
	ExitOK           = 0 // Success
	ExitUsage        = 1 // Invalid arguments or flags
	ExitNoCredential = 2 // No stored credential
	ExitInvalidCred  = 3 // Credential failed validation
	ExitClient       = 4 // API rejected the request (4xx)
	ExitTransient    = 5 // Server/network failure after retry
	ExitNetwork      = 6 // Connection/DNS/timeout error
	ExitVerification = 7 // Email verification required
)

// Error codes carried on *Error.
const (
	CodeUsage        = "usage"
	CodeNoCredential = "no_credential"
	CodeInvalidCred  = "invalid_credential"
	CodeClient       = "client_error"
	CodeTransient    = "transient"
	CodeNetwork      = "network"
	CodeVerification = "verification_required"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNoCredential:
		return ExitNoCredential
	case CodeInvalidCred:
		return ExitInvalidCred
	case CodeClient:
		return ExitClient
	case CodeTransient:
		return ExitTransient
	case CodeNetwork:
		return ExitNetwork
	case CodeVerification:
		return ExitVerification
	default:
		return ExitClient
	}
}
