package domain

import (
	"regexp"
	"strings"
)

type CertificateStatus string

const (
	CertStatusNotRequested       CertificateStatus = "NOT_REQUESTED"
	CertStatusPendingValidation  CertificateStatus = "PENDING_VALIDATION"
	CertStatusIssued             CertificateStatus = "ISSUED"
	CertStatusInactive           CertificateStatus = "INACTIVE"
	CertStatusExpired            CertificateStatus = "EXPIRED"
	CertStatusValidationTimedOut CertificateStatus = "VALIDATION_TIMED_OUT"
	CertStatusRevoked            CertificateStatus = "REVOKED"
	CertStatusFailed             CertificateStatus = "FAILED"
)

// LookupStatuses are the states in which an existing certificate is reused.
var LookupStatuses = []CertificateStatus{CertStatusPendingValidation, CertStatusIssued}

// IsTerminalFailure reports whether ISSUED can no longer be reached from s.
func (s CertificateStatus) IsTerminalFailure() bool {
	switch s {
	case CertStatusInactive, CertStatusExpired, CertStatusValidationTimedOut,
		CertStatusRevoked, CertStatusFailed:
		return true
	}
	return false
}

func (s CertificateStatus) String() string { return string(s) }

type ValidationRecord struct {
	DomainName string
	Name       string
	Type       string
	Value      string
}

type Certificate struct {
	ARN                     string
	DomainName              string
	Status                  CertificateStatus
	SubjectAlternativeNames []string
	ValidationRecords       []ValidationRecord
	FailureReason           string
}

// AlternativeNames are the SANs requested alongside the apex domain.
func AlternativeNames(domainName string) []string {
	return []string{"www." + domainName}
}

var nonWord = regexp.MustCompile(`\W`)

// IdempotencyToken derives a stable ACM token (\w+, at most 32 chars) from the
// domain so that repeated requests within the ACM window collapse into one.
func IdempotencyToken(domainName string) string {
	token := nonWord.ReplaceAllString(strings.ToLower(domainName), "")
	if token == "" {
		token = "samerequest"
	}
	if len(token) > 32 {
		token = token[:32]
	}
	return token
}
