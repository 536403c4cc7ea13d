// Package vcsref implements the RefResolver capability (§6): it resolves
// a version-control ref-range of the form `old..new` to the set of
// changed path+blob pairs the MultiFileDriver needs for ref-range mode.
//
// Adapted from the teacher's pkg/gitlib, which already wraps libgit2 via
// git2go for commit/tree/blob/diff access; this package adds ref-range
// parsing and RevWalk-free rev-parsing on top of it.
package vcsref

import (
	"errors"
	"fmt"
	"strings"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/sourcelens/semdiff/pkg/gitlib"
)

// RefError variants, per §6.
var (
	ErrInvalidRange    = errors.New("vcsref: invalid ref range")
	ErrUnknownRef      = errors.New("vcsref: unknown ref")
	ErrNotARepository  = errors.New("vcsref: not a git repository")
)

// RefErrorKind classifies a RefError for callers that branch on it.
type RefErrorKind int

// RefError variants.
const (
	InvalidRange RefErrorKind = iota
	UnknownRef
	NotARepository
)

// RefError wraps one of the three RefError variants with context.
type RefError struct {
	Kind   RefErrorKind
	Detail string
	Cause  error
}

func (e *RefError) Error() string {
	return fmt.Sprintf("vcsref: %s: %v", e.Detail, e.Cause)
}

func (e *RefError) Unwrap() error { return e.Cause }

// Status mirrors git2go's delta status for a single changed path.
type Status int

// File statuses the resolver reports.
const (
	StatusAdded Status = iota
	StatusRemoved
	StatusModified
	StatusRenamed
)

// Entry is one changed path between the two sides of a ref-range.
type Entry struct {
	Path     string
	OldPath  string
	Status   Status
	OldBlob  []byte
	NewBlob  []byte
	HasOld   bool
	HasNew   bool
}

// Resolver resolves ref-ranges against one on-disk git repository.
type Resolver struct {
	repo *gitlib.Repository
}

// Open opens the git repository rooted at path.
func Open(path string) (*Resolver, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, &RefError{Kind: NotARepository, Detail: path, Cause: fmt.Errorf("%w: %w", ErrNotARepository, err)}
	}

	return &Resolver{repo: repo}, nil
}

// Close releases the underlying repository handle.
func (r *Resolver) Close() {
	if r.repo != nil {
		r.repo.Free()
	}
}

// ParseRange splits a `old..new` range, rejecting `old...new` (the
// three-dot merge-base form) with InvalidRange, per §4.7.
func ParseRange(rangeExpr string) (oldRef, newRef string, err error) {
	if strings.Contains(rangeExpr, "...") {
		return "", "", &RefError{Kind: InvalidRange, Detail: rangeExpr, Cause: ErrInvalidRange}
	}

	idx := strings.Index(rangeExpr, "..")
	if idx < 0 {
		return "", "", &RefError{Kind: InvalidRange, Detail: rangeExpr, Cause: ErrInvalidRange}
	}

	oldRef = rangeExpr[:idx]
	newRef = rangeExpr[idx+2:]

	if oldRef == "" || newRef == "" {
		return "", "", &RefError{Kind: InvalidRange, Detail: rangeExpr, Cause: ErrInvalidRange}
	}

	return oldRef, newRef, nil
}

// Resolve returns the changed path+blob set between the two ends of
// rangeExpr.
func (r *Resolver) Resolve(rangeExpr string) ([]Entry, error) {
	oldRef, newRef, err := ParseRange(rangeExpr)
	if err != nil {
		return nil, err
	}

	oldHash, err := r.revparse(oldRef)
	if err != nil {
		return nil, err
	}

	newHash, err := r.revparse(newRef)
	if err != nil {
		return nil, err
	}

	oldCommit, lookupErr := r.repo.LookupCommit(nil, oldHash) //nolint:staticcheck // gitlib.LookupCommit ignores ctx
	if lookupErr != nil {
		return nil, &RefError{Kind: UnknownRef, Detail: oldRef, Cause: fmt.Errorf("%w: %w", ErrUnknownRef, lookupErr)}
	}

	newCommit, lookupErr := r.repo.LookupCommit(nil, newHash) //nolint:staticcheck // gitlib.LookupCommit ignores ctx
	if lookupErr != nil {
		return nil, &RefError{Kind: UnknownRef, Detail: newRef, Cause: fmt.Errorf("%w: %w", ErrUnknownRef, lookupErr)}
	}

	oldTree, err := oldCommit.Tree()
	if err != nil {
		return nil, &RefError{Kind: UnknownRef, Detail: oldRef, Cause: err}
	}

	newTree, err := newCommit.Tree()
	if err != nil {
		return nil, &RefError{Kind: UnknownRef, Detail: newRef, Cause: err}
	}

	diff, err := r.repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, &RefError{Kind: InvalidRange, Detail: rangeExpr, Cause: err}
	}
	defer diff.Free()

	return r.collectEntries(diff)
}

func (r *Resolver) collectEntries(diff *gitlib.Diff) ([]Entry, error) {
	count, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("vcsref: counting deltas: %w", err)
	}

	entries := make([]Entry, 0, count)

	for i := range count {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		entry := Entry{
			Path:    delta.NewFile.Path,
			OldPath: delta.OldFile.Path,
			Status:  statusOf(delta.Status),
		}

		if !delta.OldFile.Hash.IsZero() {
			if blob, blobErr := r.repo.LookupBlob(nil, delta.OldFile.Hash); blobErr == nil { //nolint:staticcheck // ctx unused by gitlib
				entry.OldBlob = blob.Contents()
				entry.HasOld = true

				blob.Free()
			}
		}

		if !delta.NewFile.Hash.IsZero() {
			if blob, blobErr := r.repo.LookupBlob(nil, delta.NewFile.Hash); blobErr == nil { //nolint:staticcheck // ctx unused by gitlib
				entry.NewBlob = blob.Contents()
				entry.HasNew = true

				blob.Free()
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func statusOf(status git2go.Delta) Status {
	switch status {
	case git2go.DeltaAdded:
		return StatusAdded
	case git2go.DeltaDeleted:
		return StatusRemoved
	case git2go.DeltaRenamed:
		return StatusRenamed
	default:
		return StatusModified
	}
}

// revparse resolves a ref spec (branch, tag, short or full SHA) to a
// Hash via libgit2's native rev-parse, which gitlib does not expose
// directly.
func (r *Resolver) revparse(spec string) (gitlib.Hash, error) {
	obj, err := r.repo.Native().RevparseSingle(spec)
	if err != nil {
		return gitlib.Hash{}, &RefError{Kind: UnknownRef, Detail: spec, Cause: fmt.Errorf("%w: %w", ErrUnknownRef, err)}
	}
	defer obj.Free()

	peeled, err := obj.Peel(git2go.ObjectCommit)
	if err != nil {
		return gitlib.Hash{}, &RefError{Kind: UnknownRef, Detail: spec, Cause: fmt.Errorf("%w: %w", ErrUnknownRef, err)}
	}
	defer peeled.Free()

	return gitlib.NewHash(peeled.Id().String()), nil
}
