package model

import (
	"fmt"
	"strings"
)

// Kind is the category of identifier a Subject carries.
type Kind int

const (
	// KindUsername is a handle that may exist on many platforms.
	KindUsername Kind = iota
	// KindEmail is an email address.
	KindEmail
	// KindImage is a path to a local image used for reverse search.
	KindImage
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindUsername, KindEmail, KindImage}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUsername:
		return "username"
	case KindEmail:
		return "email"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "username", "user":
		return KindUsername, nil
	case "email", "mail":
		return KindEmail, nil
	case "image", "photo":
		return KindImage, nil
	default:
		return 0, fmt.Errorf("unknown subject kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
