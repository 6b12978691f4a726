package accounts

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	// Returned by ProfileStore.Update when the stored profile no longer
	// carries the expected last updated timestamp.
	ErrProfileStale = errors.New("profile modified concurrently")

	ErrFieldNotEditable = errors.New("field not editable")
	ErrInvalidValue     = errors.New("invalid field value")
)

// Cover assigned to every new profile. Never removed from the image store.
const DefaultCover = "profile_pics/default_cover_photo.webp"

const maxNameLength = 150

type Theme string

const (
	ThemeLight   Theme = "light"
	ThemeDark    Theme = "dark"
	ThemeCyan    Theme = "cyan"
	ThemeDefault       = ThemeCyan
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeCyan:
		return true
	default:
		return false
	}
}

// Field names a profile attribute as it appears on the wire.
type Field string

const (
	FieldFirstName    Field = "first_name"
	FieldLastName     Field = "last_name"
	FieldCover        Field = "cover"
	FieldProfileImage Field = "profile_image"
	FieldThemeMode    Field = "theme_mode"
	FieldThumbnail    Field = "thumbnail"
)

// Fields a client may change.
var EditableFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldCover,
	FieldProfileImage,
	FieldThemeMode,
}

// Every field a profile exposes, in history order.
var allFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldCover,
	FieldProfileImage,
	FieldThumbnail,
	FieldThemeMode,
}

type fieldAccessor struct {
	editable bool
	get      func(p *Profile) *string
	set      func(p *Profile, value *string) error
}

var accessors = map[Field]fieldAccessor{
	FieldFirstName: {
		editable: true,
		get:      func(p *Profile) *string { return &p.FirstName },
		set: func(p *Profile, value *string) error {
			name, err := validName(value)
			if err != nil {
				return err
			}
			p.FirstName = name
			return nil
		},
	},
	FieldLastName: {
		editable: true,
		get:      func(p *Profile) *string { return &p.LastName },
		set: func(p *Profile, value *string) error {
			name, err := validName(value)
			if err != nil {
				return err
			}
			p.LastName = name
			return nil
		},
	},
	FieldCover: {
		editable: true,
		get:      func(p *Profile) *string { return nullable(p.Cover) },
		set: func(p *Profile, value *string) error {
			p.Cover = deref(value)
			return nil
		},
	},
	FieldProfileImage: {
		editable: true,
		get:      func(p *Profile) *string { return nullable(p.ProfileImage) },
		set: func(p *Profile, value *string) error {
			// A stored reference without a derived variant is its own thumbnail.
			p.ProfileImage = deref(value)
			p.Thumbnail = p.ProfileImage
			return nil
		},
	},
	FieldThemeMode: {
		editable: true,
		get: func(p *Profile) *string {
			theme := string(p.ThemeMode)
			return &theme
		},
		set: func(p *Profile, value *string) error {
			if value == nil || !Theme(*value).Valid() {
				return ErrInvalidValue
			}
			p.ThemeMode = Theme(*value)
			return nil
		},
	},
	FieldThumbnail: {
		editable: false,
		get:      func(p *Profile) *string { return nullable(p.Thumbnail) },
	},
}

func ParseField(name string) (Field, bool) {
	f := Field(name)
	_, ok := accessors[f]
	return f, ok
}

func (f Field) Editable() bool {
	return accessors[f].editable
}

type Profile struct {
	UserId    UserId
	FirstName string
	LastName  string
	// Image store keys; empty when unset.
	ProfileImage string
	Thumbnail    string
	Cover        string
	ThemeMode    Theme
	// Server-authoritative, bumped by the store on every write.
	LastUpdated time.Time
}

// NewProfile returns the profile every account starts with.
func NewProfile(userId UserId, createdAt time.Time) Profile {
	return Profile{
		UserId:      userId,
		Cover:       DefaultCover,
		ThemeMode:   ThemeDefault,
		LastUpdated: createdAt.UTC().Truncate(time.Microsecond),
	}
}

// Value returns the stored value of f; nil means null. ok is false when the
// profile has no such field.
func (p Profile) Value(f Field) (value *string, ok bool) {
	accessor, ok := accessors[f]
	if !ok {
		return nil, false
	}
	return accessor.get(&p), true
}

func (p *Profile) Set(f Field, value *string) error {
	accessor, ok := accessors[f]
	if !ok || !accessor.editable {
		return ErrFieldNotEditable
	}
	return accessor.set(p, value)
}

func SameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FormatTimestamp renders t in the canonical form clients echo back.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NextTimestamp returns the timestamp to store for a write following prev.
// The result has microsecond precision and is always later than prev.
func NextTimestamp(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	min := prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	if next.Before(min) {
		return min
	}
	return next
}

type ProfileStore interface {
	ByUserId(ctx context.Context, userId UserId) (Profile, error)

	// Update stores profile if the stored profile was last updated at expected,
	// records changes and returns the profile with its new timestamp.
	// Returns ErrProfileStale when the stored timestamp differs.
	Update(ctx context.Context, profile Profile, expected time.Time, changes []FieldChange) (Profile, error)
}

func validName(value *string) (string, error) {
	if value == nil || utf8.RuneCountInString(*value) > maxNameLength {
		return "", ErrInvalidValue
	}
	return *value, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
