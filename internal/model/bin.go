// Package model defines the bin and file data structures that are edited,
// persisted, exported and imported.
//
// The JSON layout of Bin is the persisted and exported format: one object per
// bin, timestamps as milliseconds since the Unix epoch, files in tab order.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultBinTitle    = "Untitled Bin"
	ImportedBinTitle   = "Imported Bin"
	DefaultFileName    = "untitled.txt"
	DefaultEntryName   = "index.js"
	CopyTitleSuffix    = " (copy)"
	DefaultVisibility  = VisibilityPublic
	DefaultExpiration  = ExpirationNever
	DefaultNewLanguage = LanguagePlaintext
)

// Timestamp is a point in time stored as milliseconds since the Unix epoch.
type Timestamp int64

func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// File is one named, language-tagged block of text inside a Bin.
type File struct {
	Name     string   `json:"name"`
	Language Language `json:"language"`
	Content  string   `json:"content"`
}

// NewFile returns the placeholder file appended by "add file" when the bin
// already holds existing-1 files.
func NewFile(existing int) File {
	return File{
		Name:     fmt.Sprintf("file-%d.txt", existing+1),
		Language: DefaultNewLanguage,
	}
}

// WithDefaults fills a blank name and language the way a freshly added file
// would have them.
func (f File) WithDefaults() File {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = DefaultFileName
	}
	if f.Language == "" {
		f.Language = DefaultNewLanguage
	}
	return f
}

// Counts reports the character and line counts shown under the editor.
// An empty file has one line.
func (f File) Counts() (chars, lines int) {
	return utf8.RuneCountInString(f.Content), strings.Count(f.Content, "\n") + 1
}

// Bin is a titled, timestamped collection of one or more files. Files is
// never empty once a Bin is part of a collection.
type Bin struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility"`
	Expiration Expiration `json:"expiration"`
	CreatedAt  Timestamp  `json:"createdAt"`
	UpdatedAt  Timestamp  `json:"updatedAt"`
	Files      []File     `json:"files"`
}

// NewDefaultBin builds the bin used for first-run seeding and "new bin".
func NewDefaultBin(id string, now time.Time) Bin {
	ts := TimestampOf(now)
	return Bin{
		ID:         id,
		Title:      DefaultBinTitle,
		Visibility: DefaultVisibility,
		Expiration: DefaultExpiration,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Files: []File{
			{Name: DefaultEntryName, Language: LanguageJavaScript},
		},
	}
}

// Clone returns a deep copy; the file slice is not shared.
func (b Bin) Clone() Bin {
	c := b
	c.Files = make([]File, len(b.Files))
	copy(c.Files, b.Files)
	return c
}

// Touch stamps UpdatedAt.
func (b *Bin) Touch(now time.Time) {
	b.UpdatedAt = TimestampOf(now)
}

// TitleOrDefault trims title and falls back to fallback when nothing is left.
func TitleOrDefault(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}
