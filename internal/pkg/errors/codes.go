package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrBadRequest     = 1007
	ErrServiceUnavail = 1008

	// Artifact errors (4000-4099)
	ErrArtifactNotFound       = 4000
	ErrArtifactInvalid        = 4001
	ErrArtifactStorageFailed  = 4002
	ErrArtifactMetadataFailed = 4003
	ErrArtifactBlobMissing    = 4004
	ErrArtifactFileType       = 4005
	ErrArtifactFileTooLarge   = 4006

	// Library errors (4100-4199)
	ErrTemplateNotFound = 4100
	ErrGuidanceNotFound = 4101
	ErrQueryFailed      = 4102
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail: {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrArtifactNotFound:       {ErrArtifactNotFound, http.StatusNotFound, "Artifact not found"},
	ErrArtifactInvalid:        {ErrArtifactInvalid, http.StatusBadRequest, "Invalid artifact"},
	ErrArtifactStorageFailed:  {ErrArtifactStorageFailed, http.StatusBadGateway, "Blob storage operation failed"},
	ErrArtifactMetadataFailed: {ErrArtifactMetadataFailed, http.StatusServiceUnavailable, "Metadata operation failed"},
	ErrArtifactBlobMissing:    {ErrArtifactBlobMissing, http.StatusBadGateway, "Artifact content is missing from storage"},
	ErrArtifactFileType:       {ErrArtifactFileType, http.StatusBadRequest, "Unsupported file type"},
	ErrArtifactFileTooLarge:   {ErrArtifactFileTooLarge, http.StatusRequestEntityTooLarge, "File size exceeds limit"},

	ErrTemplateNotFound: {ErrTemplateNotFound, http.StatusNotFound, "Template not found"},
	ErrGuidanceNotFound: {ErrGuidanceNotFound, http.StatusNotFound, "Guidance document not found"},
	ErrQueryFailed:      {ErrQueryFailed, http.StatusServiceUnavailable, "Query failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
