package errors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeConfigValidation  Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError   Code = "CONFIG_READ_ERROR"
	CodeConfigParseError  Code = "CONFIG_PARSE_ERROR"
	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeTimeout           Code = "TIMEOUT_ERROR"
	CodeReportError       Code = "REPORT_ERROR"

	// Certificate lifecycle
	CodeCertificateFailed  Code = "CERTIFICATE_FAILED"
	CodeCertificateRequest Code = "CERTIFICATE_REQUEST_ERROR"
)

func (c Code) String() string {
	return string(c)
}
