package domain

import (
	"encoding/json"
	"fmt"
)

// RootFolderKind selects how output paths are wrapped
type RootFolderKind int

const (
	// RootFolderSubject wraps output in a folder named after the last URL segment
	RootFolderSubject RootFolderKind = iota
	// RootFolderNone writes files without a wrapper folder
	RootFolderNone
	// RootFolderCustom wraps output in a caller-chosen folder
	RootFolderCustom
)

// RootFolderPolicy decides the synthetic top-level directory of the output
type RootFolderPolicy struct {
	Kind RootFolderKind
	Name string // only for RootFolderCustom
}

// Prefix returns the path prefix (with trailing slash) this policy adds to every output path.
func (p RootFolderPolicy) Prefix(subject string) string {
	switch p.Kind {
	case RootFolderNone:
		return ""
	case RootFolderCustom:
		return p.Name + "/"
	default:
		return subject + "/"
	}
}

func (p RootFolderPolicy) String() string {
	switch p.Kind {
	case RootFolderNone:
		return "none"
	case RootFolderCustom:
		return "custom:" + p.Name
	default:
		return "subject"
	}
}

// RepoSpec is the normalized descriptor of one download request.
// It is built once by the resolver and never mutated afterwards.
type RepoSpec struct {
	Scheme        string
	Host          string
	Owner         string
	Repository    string
	Ref           string
	Subpath       string
	ListingPrefix string // contents endpoint of the repository, ends with "/"
	OutputName    string
	SubjectName   string // last segment of the subject URL
	RootFolder    RootFolderPolicy
}

// FullName returns "owner/repository"
func (s *RepoSpec) FullName() string {
	return s.Owner + "/" + s.Repository
}

// IsRoot reports whether s targets the whole repository
func (s *RepoSpec) IsRoot() bool {
	return s.Subpath == ""
}

// ArchiveURL returns the whole-ref zip download URL
func (s *RepoSpec) ArchiveURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s/archive/%s.zip", scheme, s.Host, s.Owner, s.Repository, s.Ref)
}

// WithRef returns a copy of s pinned to ref
func (s *RepoSpec) WithRef(ref string) *RepoSpec {
	c := *s
	c.Ref = ref
	return &c
}

// EntryKind classifies a tree entry
type EntryKind string

const (
	EntryFile EntryKind = "file"
	EntryDir  EntryKind = "dir"
)

// TreeEntry is one child returned by a listing call
type TreeEntry struct {
	Path        string
	Kind        EntryKind
	DownloadURL string // files only; empty for submodules and symlinks
}

// IsDir returns true for directory entries
func (e TreeEntry) IsDir() bool {
	return e.Kind == EntryDir
}

// FetchedFile holds the raw content of one downloaded file
type FetchedFile struct {
	Path    string
	Content []byte
}

// ProgressSnapshot is a point-in-time copy of the download progress
type ProgressSnapshot struct {
	IsProcessing    bool `json:"isProcessing"`
	DownloadedFiles int  `json:"downloadedFiles"`
	TotalFiles      int  `json:"totalFiles"`
}

// Done reports whether every discovered file has settled
func (p ProgressSnapshot) Done() bool {
	return !p.IsProcessing && p.DownloadedFiles == p.TotalFiles
}

// FailureKind classifies a per-item failure
type FailureKind string

const (
	FailureListing FailureKind = "listing"
	FailureFetch   FailureKind = "fetch"
)

// Failure records a per-item error that did not abort the run
type Failure struct {
	Kind FailureKind
	Path string
	Err  error
}

// MarshalJSON renders the error as a string
func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Kind  FailureKind `json:"kind"`
		Path  string      `json:"path"`
		Error string      `json:"error"`
	}{f.Kind, f.Path, msg})
}

// Mode is the shape of the produced artifact
type Mode string

const (
	ModeTree    Mode = "tree"
	ModeArchive Mode = "zip"
)

// Result describes what a download produced
type Result struct {
	Mode     Mode      `json:"mode"`
	Output   string    `json:"output"`
	Files    []string  `json:"files"`
	Failures []Failure `json:"failures,omitempty"`
}
