// Package gitmeta resolves repository metadata used for built-in
// substitutions: HEAD commit, branch name, and the tag pointing at HEAD.
package gitmeta

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Meta holds the resolved repository facts. All fields are empty when the
// workspace is not a git repository.
type Meta struct {
	SHA      string // full HEAD commit SHA
	ShortSHA string // first 7 characters
	Branch   string // current branch name, "" when detached
	Tag      string // tag pointing at HEAD, "" when none
}

// Detect resolves metadata from the repository at rootDir. A missing or
// unreadable repository is not an error — the executor runs fine outside
// version control, the git builtins just resolve to empty strings.
func Detect(rootDir string) *Meta {
	m := &Meta{}

	repo, err := git.PlainOpen(rootDir)
	if err != nil {
		return m
	}

	head, err := repo.Head()
	if err != nil {
		return m
	}

	m.SHA = head.Hash().String()
	if len(m.SHA) >= 7 {
		m.ShortSHA = m.SHA[:7]
	}
	if head.Name().IsBranch() {
		m.Branch = head.Name().Short()
	}
	m.Tag = tagAt(repo, head.Hash())

	return m
}

// tagAt returns the tag whose target is the given commit. When several tags
// point there, semver tags win over non-semver ones and the highest semver
// tag is chosen; remaining ties break lexicographically.
func tagAt(repo *git.Repository, hash plumbing.Hash) string {
	iter, err := repo.Tags()
	if err != nil {
		return ""
	}
	defer iter.Close()

	var names []string
	_ = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// Annotated tags point at a tag object; follow it to the commit.
		if obj, tagErr := repo.TagObject(ref.Hash()); tagErr == nil {
			target = obj.Target
		}
		if target == hash {
			names = append(names, ref.Name().Short())
		}
		return nil
	})

	if len(names) == 0 {
		return ""
	}

	sort.Slice(names, func(i, j int) bool {
		vi, ei := semver.NewVersion(strings.TrimPrefix(names[i], "v"))
		vj, ej := semver.NewVersion(strings.TrimPrefix(names[j], "v"))
		switch {
		case ei == nil && ej == nil:
			return vi.GreaterThan(vj)
		case ei == nil:
			return true
		case ej == nil:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names[0]
}
