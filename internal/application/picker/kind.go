package picker

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind names what the caller wants picked
type Kind string

const (
	KindFile      Kind = "file"
	KindEmailFile Kind = "email-file"
	KindDirectory Kind = "directory"
)

// Selection is an entry type the native dialog may return
type Selection string

const (
	SelectFile      Selection = "file"
	SelectDirectory Selection = "directory"
)

// Filter restricts selectable files by extension (without the dot)
type Filter struct {
	Name       string
	Extensions []string
}

// DialogOptions describe the native dialog to show
type DialogOptions struct {
	Title     string
	Selection []Selection
	Filters   []Filter
}

// AllowsDirectories reports whether a folder may be chosen
func (o DialogOptions) AllowsDirectories() bool {
	for _, s := range o.Selection {
		if s == SelectDirectory {
			return true
		}
	}
	return false
}

// AllowsFiles reports whether a file may be chosen
func (o DialogOptions) AllowsFiles() bool {
	for _, s := range o.Selection {
		if s == SelectFile {
			return true
		}
	}
	return false
}

// OptionsFor returns the dialog options for a kind on the given OS. A plain
// file pick is file-only on linux and windows; elsewhere the dialog may also
// return a directory.
func OptionsFor(kind Kind, goos string) (DialogOptions, error) {
	switch kind {
	case KindFile:
		opts := DialogOptions{Title: "Select data file", Selection: []Selection{SelectFile}}
		if goos != "linux" && goos != "windows" {
			opts.Selection = append(opts.Selection, SelectDirectory)
		}
		return opts, nil
	case KindEmailFile:
		return DialogOptions{
			Title:     "Select email list",
			Selection: []Selection{SelectFile},
			Filters:   []Filter{{Name: "Text Files", Extensions: []string{"txt"}}},
		}, nil
	case KindDirectory:
		return DialogOptions{Title: "Select folder", Selection: []Selection{SelectDirectory}}, nil
	default:
		return DialogOptions{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// IsTextFile is the post-selection check for email lists
func IsTextFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".txt"
}
