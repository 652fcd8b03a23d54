package models

// Session is the token-encoded identity of a logged-in user. It is never
// persisted server-side: it lives only inside a signed JWT and is
// reconstructed on every request by verifying the token.
//
// GoogleEmails is ordered; the first entry is the primary identity used for
// single-valued lookups. Facebook and LinkedIn allow at most one linked
// account each, so those fields are plain strings ("" = not linked).
type Session struct {
	GoogleEmails     []string `json:"googleEmails"`
	FacebookUsername string   `json:"facebookUsername,omitempty"`
	LinkedinUsername string   `json:"linkedinUsername,omitempty"`
}

// NewGoogleSession creates a session for a fresh Google login.
func NewGoogleSession(email string) Session {
	return Session{GoogleEmails: []string{email}}
}

// PrimaryEmail returns the first Google email, or "" when none is linked.
func (s Session) PrimaryEmail() string {
	if len(s.GoogleEmails) == 0 {
		return ""
	}
	return s.GoogleEmails[0]
}

// HasGoogleEmail reports whether the given email is one of the session's
// linked Google accounts.
func (s Session) HasGoogleEmail(email string) bool {
	for _, e := range s.GoogleEmails {
		if e == email {
			return true
		}
	}
	return false
}

// MergeSessions combines two sessions into one after the user links an
// additional provider. Google emails are concatenated a-then-b with
// duplicates removed, preserving first-seen order (this is what decides
// which email stays primary). The single-valued provider fields are
// right-biased: b's value wins when set.
//
// Pure function: no I/O, no failure mode. Any data migration between the
// two identities is the caller's responsibility.
func MergeSessions(a, b Session) Session {
	emails := make([]string, 0, len(a.GoogleEmails)+len(b.GoogleEmails))
	seen := make(map[string]struct{}, len(a.GoogleEmails)+len(b.GoogleEmails))
	for _, e := range append(append([]string{}, a.GoogleEmails...), b.GoogleEmails...) {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		emails = append(emails, e)
	}

	facebook := a.FacebookUsername
	if b.FacebookUsername != "" {
		facebook = b.FacebookUsername
	}
	linkedin := a.LinkedinUsername
	if b.LinkedinUsername != "" {
		linkedin = b.LinkedinUsername
	}

	return Session{
		GoogleEmails:     emails,
		FacebookUsername: facebook,
		LinkedinUsername: linkedin,
	}
}
