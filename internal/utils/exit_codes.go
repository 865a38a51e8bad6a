package contextutils

// Process exit codes, one per error kind.
const (
	ExitOK               = 0
	ExitInternal         = 1
	ExitInvalidInput     = 2
	ExitFileNotFound     = 3
	ExitPermissionDenied = 4
	ExitIO               = 5
	ExitMalformedRecord  = 6
	ExitInvalidEncoding  = 7
)

var exitCodes = map[ErrorCode]int{
	ErrorCodeInvalidInput:     ExitInvalidInput,
	ErrorCodeFileNotFound:     ExitFileNotFound,
	ErrorCodePermissionDenied: ExitPermissionDenied,
	ErrorCodeIO:               ExitIO,
	ErrorCodeMalformedRecord:  ExitMalformedRecord,
	ErrorCodeInvalidEncoding:  ExitInvalidEncoding,
}

// ExitCode maps an error to the process exit code for its kind.
// Errors that are not AppErrors map to ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := exitCodes[GetErrorCode(err)]; ok {
		return code
	}
	return ExitInternal
}
