package accounts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func str(s string) *string {
	return &s
}

func TestParseField(t *testing.T) {
	assert := assert.New(t)

	for _, f := range EditableFields {
		parsed, ok := ParseField(string(f))
		assert.True(ok, f)
		assert.Equal(f, parsed)
		assert.True(parsed.Editable(), f)
	}

	thumbnail, ok := ParseField("thumbnail")
	assert.True(ok)
	assert.False(thumbnail.Editable())

	unknown, ok := ParseField("password")
	assert.False(ok)
	assert.False(unknown.Editable())
}

func TestProfileSet(t *testing.T) {
	assert := assert.New(t)

	p := Profile{UserId: 1, FirstName: "Bob", Cover: DefaultCover, ThemeMode: ThemeDefault}

	assert.NoError(p.Set(FieldFirstName, str("Alice")))
	assert.Equal("Alice", p.FirstName)

	assert.ErrorIs(p.Set(FieldFirstName, nil), ErrInvalidValue)
	assert.ErrorIs(p.Set(FieldLastName, str(strings.Repeat("ą", maxNameLength+1))), ErrInvalidValue)
	assert.NoError(p.Set(FieldLastName, str(strings.Repeat("ą", maxNameLength))))

	assert.ErrorIs(p.Set(FieldThemeMode, str("purple")), ErrInvalidValue)
	assert.NoError(p.Set(FieldThemeMode, str("dark")))
	assert.Equal(ThemeDark, p.ThemeMode)

	assert.ErrorIs(p.Set(FieldThumbnail, str("thumbnails/x.png")), ErrFieldNotEditable)
	assert.ErrorIs(p.Set(Field("is_staff"), str("true")), ErrFieldNotEditable)

	assert.NoError(p.Set(FieldCover, nil))
	cover, ok := p.Value(FieldCover)
	assert.True(ok)
	assert.Nil(cover)
}

func TestProfileImageCarriesThumbnail(t *testing.T) {
	assert := assert.New(t)

	p := Profile{ProfileImage: "profile_pics/a.png", Thumbnail: "thumbnails/a.png"}

	assert.NoError(p.Set(FieldProfileImage, str("profile_pics/b.png")))
	assert.Equal("profile_pics/b.png", p.ProfileImage)
	assert.Equal("profile_pics/b.png", p.Thumbnail)

	assert.NoError(p.Set(FieldProfileImage, nil))
	assert.Equal("", p.ProfileImage)
	assert.Equal("", p.Thumbnail)
}

func TestProfileValue(t *testing.T) {
	assert := assert.New(t)

	p := Profile{FirstName: "", LastName: "Smith", ThemeMode: ThemeCyan}

	first, ok := p.Value(FieldFirstName)
	assert.True(ok)
	assert.Equal(str(""), first)

	image, ok := p.Value(FieldProfileImage)
	assert.True(ok)
	assert.Nil(image)

	theme, _ := p.Value(FieldThemeMode)
	assert.Equal(str("cyan"), theme)

	_, ok = p.Value(Field("email"))
	assert.False(ok)
}

func TestDiff(t *testing.T) {
	assert := assert.New(t)

	before := Profile{UserId: 7, FirstName: "Bob", ProfileImage: "profile_pics/a.png", Thumbnail: "thumbnails/a.png"}
	after := before
	after.FirstName = "Alice"
	after.ProfileImage = ""
	after.Thumbnail = ""

	changes := Diff(before, after, 7)
	if !assert.Len(changes, 3) {
		return
	}
	assert.Equal(FieldFirstName, changes[0].Field)
	assert.Equal(str("Bob"), changes[0].OldValue)
	assert.Equal(str("Alice"), changes[0].NewValue)
	assert.Equal(FieldProfileImage, changes[1].Field)
	assert.Nil(changes[1].NewValue)
	assert.Equal(FieldThumbnail, changes[2].Field)
	assert.Equal(UserId(7), changes[2].ChangedBy)

	assert.Empty(Diff(before, before, 7))
}

func TestFormatTimestamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("2024-01-01T00:00:00Z", FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal("2024-01-01T00:00:00.1234Z", FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 123400000, time.UTC)))

	warsaw := time.FixedZone("CET", 3600)
	assert.Equal("2024-01-01T00:00:00Z", FormatTimestamp(time.Date(2024, 1, 1, 1, 0, 0, 0, warsaw)))
}

func TestNextTimestamp(t *testing.T) {
	assert := assert.New(t)

	prev := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	now := time.Date(2024, 3, 1, 12, 0, 0, 999, time.UTC)
	assert.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), NextTimestamp(prev, now))

	// clock behind the stored value
	assert.Equal(prev.Add(time.Microsecond), NextTimestamp(prev, prev.Add(-time.Hour)))
	assert.Equal(prev.Add(time.Microsecond), NextTimestamp(prev, prev))
}
