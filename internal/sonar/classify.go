package sonar

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errorBody is the JSON shape SonarQube uses for 400 responses.
type errorBody struct {
	Errors []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

// classify maps a response status to an APIError, or nil for a success
// (any status below 300; redirects are already followed by the client).
// body is only consulted for 400 responses, where the message is the
// comma-joined list of the server's error messages.
func classify(status int, body []byte) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusBadRequest:
		return &APIError{Kind: KindValidation, Status: status, Message: validationMessage(body)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &APIError{Kind: KindAuth, Status: status, Message: http.StatusText(status)}
	case status < 500:
		return &APIError{Kind: KindClient, Status: status, Message: http.StatusText(status)}
	default:
		return &APIError{Kind: KindServer, Status: status, Message: http.StatusText(status)}
	}
}

func validationMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Errors) == 0 {
		return http.StatusText(http.StatusBadRequest)
	}
	msgs := make([]string, 0, len(eb.Errors))
	for _, e := range eb.Errors {
		msgs = append(msgs, e.Msg)
	}
	return strings.Join(msgs, ", ")
}
