package models

import (
	"reflect"
	"sort"
	"testing"
)

func TestMergeSessions(t *testing.T) {
	tests := []struct {
		name string
		a    Session
		b    Session
		want Session
	}{
		{
			name: "google login merged with linkedin login",
			a:    Session{GoogleEmails: []string{"a@x.com"}},
			b:    Session{GoogleEmails: []string{"b@x.com"}, LinkedinUsername: "li1"},
			want: Session{GoogleEmails: []string{"a@x.com", "b@x.com"}, LinkedinUsername: "li1"},
		},
		{
			name: "duplicate emails keep first-seen order",
			a:    Session{GoogleEmails: []string{"a@x.com", "b@x.com"}},
			b:    Session{GoogleEmails: []string{"b@x.com", "c@x.com"}},
			want: Session{GoogleEmails: []string{"a@x.com", "b@x.com", "c@x.com"}},
		},
		{
			name: "right side wins single-valued fields",
			a:    Session{GoogleEmails: []string{"a@x.com"}, FacebookUsername: "old-fb", LinkedinUsername: "old-li"},
			b:    Session{FacebookUsername: "new-fb"},
			want: Session{GoogleEmails: []string{"a@x.com"}, FacebookUsername: "new-fb", LinkedinUsername: "old-li"},
		},
		{
			name: "left value kept when right is empty",
			a:    Session{GoogleEmails: []string{"a@x.com"}, FacebookUsername: "fb"},
			b:    Session{GoogleEmails: []string{"a@x.com"}},
			want: Session{GoogleEmails: []string{"a@x.com"}, FacebookUsername: "fb"},
		},
		{
			name: "both empty",
			a:    Session{},
			b:    Session{},
			want: Session{GoogleEmails: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSessions(tt.a, tt.b)
			if !reflect.DeepEqual(got.GoogleEmails, tt.want.GoogleEmails) {
				t.Errorf("GoogleEmails = %v, want %v", got.GoogleEmails, tt.want.GoogleEmails)
			}
			if got.FacebookUsername != tt.want.FacebookUsername {
				t.Errorf("FacebookUsername = %q, want %q", got.FacebookUsername, tt.want.FacebookUsername)
			}
			if got.LinkedinUsername != tt.want.LinkedinUsername {
				t.Errorf("LinkedinUsername = %q, want %q", got.LinkedinUsername, tt.want.LinkedinUsername)
			}
		})
	}
}

func TestMergeSessionsEmailMembershipIsOrderIndependent(t *testing.T) {
	a := Session{GoogleEmails: []string{"a@x.com", "b@x.com"}}
	b := Session{GoogleEmails: []string{"c@x.com", "a@x.com"}}

	ab := MergeSessions(a, b).GoogleEmails
	ba := MergeSessions(b, a).GoogleEmails

	sortedAB := append([]string(nil), ab...)
	sortedBA := append([]string(nil), ba...)
	sort.Strings(sortedAB)
	sort.Strings(sortedBA)

	if !reflect.DeepEqual(sortedAB, sortedBA) {
		t.Errorf("email membership differs by argument order: %v vs %v", ab, ba)
	}

	// but the primary follows the first argument
	if ab[0] != "a@x.com" {
		t.Errorf("Merge(a,b) primary = %q, want a@x.com", ab[0])
	}
	if ba[0] != "c@x.com" {
		t.Errorf("Merge(b,a) primary = %q, want c@x.com", ba[0])
	}
}

func TestSessionAccessors(t *testing.T) {
	s := NewGoogleSession("me@x.com")
	if s.PrimaryEmail() != "me@x.com" {
		t.Errorf("PrimaryEmail() = %q", s.PrimaryEmail())
	}
	if !s.HasGoogleEmail("me@x.com") {
		t.Error("HasGoogleEmail() should find the login email")
	}
	if s.HasGoogleEmail("other@x.com") {
		t.Error("HasGoogleEmail() should reject unknown emails")
	}
	if (Session{}).PrimaryEmail() != "" {
		t.Error("PrimaryEmail() on empty session should be empty")
	}
}
