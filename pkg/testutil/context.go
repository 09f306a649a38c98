package testutil

import (
	"net/http"

	"custodian/pkg/domain"
	"custodian/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context, the way the
// auth middleware does after validating a token.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithOperator authenticates the request as an operator with the given user id.
// Invalid ids are silently ignored.
func WithOperator(req *http.Request, userID string) *http.Request {
	parsed, err := domain.ParseUserID(userID)
	if err != nil {
		return req
	}
	return WithActor(req, domain.Actor{UserID: parsed, Email: "operator@example.org", Role: domain.RoleOperator})
}

// WithSubject authenticates the request as the subject acting on their own data.
func WithSubject(req *http.Request, subjectID domain.SubjectID) *http.Request {
	return WithActor(req, domain.Actor{SubjectID: subjectID, Role: domain.RoleSubject})
}

// WithClient sets the client IP and User-Agent read by audit enrichment.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
