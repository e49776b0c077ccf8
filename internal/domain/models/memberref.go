// internal/domain/models/memberref.go
package models

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRef identifies a member either by ObjectID or by handle. The zero
// value is an empty reference.
type MemberRef struct {
	ID     primitive.ObjectID
	Handle string
}

// ErrBadMemberRef is returned by ParseMemberRef for input that is neither an
// ObjectID nor a well-formed handle.
var ErrBadMemberRef = errors.New("member reference must be an id or a handle")

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{2,40}$`)

// RefByID builds an id reference.
func RefByID(id primitive.ObjectID) MemberRef {
	return MemberRef{ID: id}
}

// RefByHandle builds a handle reference. A leading "@" is dropped.
func RefByHandle(handle string) MemberRef {
	return MemberRef{Handle: strings.TrimPrefix(strings.TrimSpace(handle), "@")}
}

// ParseMemberRef interprets s as a 24-character hex id or, failing that, as a
// handle.
func ParseMemberRef(s string) (MemberRef, error) {
	s = strings.TrimSpace(s)
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return RefByID(oid), nil
	}
	ref := RefByHandle(s)
	if !ValidHandle(ref.Handle) {
		return MemberRef{}, ErrBadMemberRef
	}
	return ref, nil
}

// ValidHandle reports whether h is an acceptable handle.
func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}

// IsZero reports whether the reference points at nothing.
func (r MemberRef) IsZero() bool {
	return r.ID.IsZero() && r.Handle == ""
}

// IsID reports whether the reference is by ObjectID.
func (r MemberRef) IsID() bool {
	return !r.ID.IsZero()
}

// HandleKey is the folded form used for case-insensitive handle matching.
func (r MemberRef) HandleKey() string {
	return text.Fold(r.Handle)
}

// Matches reports whether the reference points at m.
func (r MemberRef) Matches(m Member) bool {
	if r.IsID() {
		return r.ID == m.ID
	}
	return r.Handle != "" && r.HandleKey() == text.Fold(m.Handle)
}

func (r MemberRef) String() string {
	if r.IsID() {
		return r.ID.Hex()
	}
	return "@" + r.Handle
}
