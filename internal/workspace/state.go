// Package workspace holds the editor's application state: the bin collection
// and the cursor pair (current bin, active file index). Every mutation
// operation is a method on *State that either applies completely or returns
// an error with the state untouched. Persistence and status reporting live in
// the service layer.
package workspace

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/model"
)

// User-facing refusal messages.
const (
	MsgLastBin  = "Cannot delete the only remaining bin"
	MsgLastFile = "At least one file is required"
)

// Form is the editable field set of the editor: the current file's
// name/language/content and the current bin's title/visibility/expiration.
type Form struct {
	Title      string           `json:"title"`
	Visibility model.Visibility `json:"visibility"`
	Expiration model.Expiration `json:"expiration"`
	FileName   string           `json:"fileName"`
	Language   model.Language   `json:"language"`
	Content    string           `json:"content"`
}

// State is the bin collection plus cursors. Bins is never empty, CurrentBinID
// always names a bin in Bins and ActiveFile is always a valid index into that
// bin's files.
type State struct {
	Bins         []model.Bin `json:"bins"`
	CurrentBinID string      `json:"currentBinId"`
	ActiveFile   int         `json:"activeFile"`
}

// New wraps a non-empty collection with cursors on its first bin and file.
func New(bins []model.Bin) *State {
	s := &State{Bins: bins}
	if len(bins) > 0 {
		s.CurrentBinID = bins[0].ID
	}
	return s
}

// Clone deep-copies the state so a mutation can be applied tentatively.
func (s *State) Clone() *State {
	c := &State{
		Bins:         make([]model.Bin, len(s.Bins)),
		CurrentBinID: s.CurrentBinID,
		ActiveFile:   s.ActiveFile,
	}
	for i, b := range s.Bins {
		c.Bins[i] = b.Clone()
	}
	return c
}

func (s *State) index(id string) int {
	for i := range s.Bins {
		if s.Bins[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the bin with the given id.
func (s *State) Find(id string) (*model.Bin, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return &s.Bins[i], true
}

// Current returns the current bin. It points into Bins.
func (s *State) Current() *model.Bin {
	b, ok := s.Find(s.CurrentBinID)
	if !ok {
		s.repair()
		b = &s.Bins[0]
	}
	return b
}

// CurrentFile returns the active file of the current bin.
func (s *State) CurrentFile() *model.File {
	b := s.Current()
	return &b.Files[s.ActiveFile]
}

// repair points the cursors back at existing elements.
func (s *State) repair() {
	if s.index(s.CurrentBinID) < 0 {
		s.CurrentBinID = s.Bins[0].ID
		s.ActiveFile = 0
	}
	b, _ := s.Find(s.CurrentBinID)
	if s.ActiveFile < 0 || s.ActiveFile >= len(b.Files) {
		s.ActiveFile = 0
	}
}

// ApplyEdits copies the form into the current bin and file. Blank names fall
// back to defaults and UpdatedAt is stamped.
func (s *State) ApplyEdits(form Form, now time.Time) {
	bin := s.Current()
	file := &bin.Files[s.ActiveFile]

	file.Name = model.TitleOrDefault(form.FileName, model.DefaultFileName)
	file.Language = form.Language
	file.Content = form.Content

	bin.Title = model.TitleOrDefault(form.Title, model.DefaultBinTitle)
	bin.Visibility = form.Visibility
	bin.Expiration = form.Expiration
	bin.Touch(now)
}

// FormOf returns the form as the view would currently display it.
func (s *State) FormOf() Form {
	bin := s.Current()
	file := bin.Files[s.ActiveFile]
	return Form{
		Title:      bin.Title,
		Visibility: bin.Visibility,
		Expiration: bin.Expiration,
		FileName:   file.Name,
		Language:   file.Language,
		Content:    file.Content,
	}
}

// Prepend inserts bin at the front of the collection and makes it current.
func (s *State) Prepend(bin model.Bin) {
	s.Bins = append([]model.Bin{bin}, s.Bins...)
	s.CurrentBinID = bin.ID
	s.ActiveFile = 0
}

// Duplicate deep-copies the current bin under a new id and a "(copy)" title
// and prepends it.
func (s *State) Duplicate(id string, now time.Time) model.Bin {
	cp := s.Current().Clone()
	cp.ID = id
	cp.Title += model.CopyTitleSuffix
	cp.CreatedAt = model.TimestampOf(now)
	cp.UpdatedAt = cp.CreatedAt
	s.Prepend(cp)
	return cp
}

// DeleteCurrent removes the current bin; the first remaining bin becomes
// current. The last bin cannot be deleted.
func (s *State) DeleteCurrent() (model.Bin, error) {
	if len(s.Bins) == 1 {
		return model.Bin{}, apperror.Refused(MsgLastBin)
	}
	i := s.index(s.Current().ID)
	removed := s.Bins[i]
	s.Bins = append(s.Bins[:i:i], s.Bins[i+1:]...)
	s.CurrentBinID = s.Bins[0].ID
	s.ActiveFile = 0
	return removed, nil
}

// AddFile appends a placeholder file, makes it active and stamps UpdatedAt.
func (s *State) AddFile(now time.Time) model.File {
	bin := s.Current()
	f := model.NewFile(len(bin.Files))
	bin.Files = append(bin.Files, f)
	bin.Touch(now)
	s.ActiveFile = len(bin.Files) - 1
	return f
}

// RemoveFile removes the active file; the previous file becomes active. A
// bin's last file cannot be removed.
func (s *State) RemoveFile(now time.Time) (model.File, error) {
	bin := s.Current()
	if len(bin.Files) == 1 {
		return model.File{}, apperror.Refused(MsgLastFile)
	}
	i := s.ActiveFile
	removed := bin.Files[i]
	bin.Files = append(bin.Files[:i:i], bin.Files[i+1:]...)
	bin.Touch(now)
	s.ActiveFile = max(0, i-1)
	return removed, nil
}

// SelectBin makes the bin with id current and resets the file cursor.
func (s *State) SelectBin(id string) (*model.Bin, error) {
	b, ok := s.Find(id)
	if !ok {
		return nil, apperror.NotFound("bin", id)
	}
	s.CurrentBinID = id
	s.ActiveFile = 0
	return b, nil
}

// SelectFile moves the file cursor within the current bin.
func (s *State) SelectFile(index int) error {
	if index < 0 || index >= len(s.Current().Files) {
		return apperror.NotFound("file", strconv.Itoa(index))
	}
	s.ActiveFile = index
	return nil
}

// Summary is one entry of the saved-bins list.
type Summary struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	FileCount int             `json:"fileCount"`
	UpdatedAt model.Timestamp `json:"updatedAt"`
	Current   bool            `json:"current"`
}

// List returns the saved bins whose title contains query (case-insensitive),
// most recently updated first.
func (s *State) List(query string) []Summary {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Summary, 0, len(s.Bins))
	for _, b := range s.Bins {
		if !strings.Contains(strings.ToLower(b.Title), q) {
			continue
		}
		out = append(out, Summary{
			ID:        b.ID,
			Title:     b.Title,
			FileCount: len(b.Files),
			UpdatedAt: b.UpdatedAt,
			Current:   b.ID == s.CurrentBinID,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}
