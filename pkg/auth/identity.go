// Package auth defines the authenticated principal shared across the
// validation pipeline, plus the self-signed token and provider adapter
// subpackages that produce it.
package auth

import "encoding/json"

// Method identifies how an Identity was established.
type Method string

// Authentication methods recognized by the Authorization Engine.
const (
	MethodProvider   Method = "provider"
	MethodSelfSigned Method = "self_signed"
	MethodSession    Method = "session"
)

// Identity is the principal produced by credential validation. It lives
// for the duration of one request; it is never persisted.
type Identity struct {
	Subject  string
	Groups   []string
	Scopes   []string
	Method   Method
	ClientID string
	Claims   map[string]any
}

// identityJSON mirrors Identity for marshaling; Claims is omitted because
// raw provider claims may carry more than the fields callers should see on
// the wire, and nothing downstream needs them beyond validation.
type identityJSON struct {
	Subject  string   `json:"subject"`
	Groups   []string `json:"groups"`
	Scopes   []string `json:"scopes"`
	Method   Method   `json:"method"`
	ClientID string   `json:"client_id,omitempty"`
}

// MarshalJSON implements json.Marshaler, omitting raw claims.
func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(identityJSON{
		Subject:  id.Subject,
		Groups:   id.Groups,
		Scopes:   id.Scopes,
		Method:   id.Method,
		ClientID: id.ClientID,
	})
}

// String renders a compact, log-safe summary. Subject and groups are not
// secrets by themselves (they are also present in X-User/X-Scopes response
// headers); nothing else on Identity is ever tokens or credentials.
func (id Identity) String() string {
	b, err := json.Marshal(id)
	if err != nil {
		return "identity{marshal error}"
	}
	return string(b)
}
