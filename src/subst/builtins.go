package subst

import (
	"github.com/google/uuid"

	"github.com/pierworks/stevedore/src/gitmeta"
)

// Builtins returns the platform-supplied substitution values for one
// invocation. BUILD_ID is freshly generated; git-derived values are empty
// outside a repository.
func Builtins(projectID, rootDir string) map[string]string {
	m := gitmeta.Detect(rootDir)
	return map[string]string{
		"PROJECT_ID":  projectID,
		"BUILD_ID":    uuid.NewString(),
		"COMMIT_SHA":  m.SHA,
		"SHORT_SHA":   m.ShortSHA,
		"REVISION_ID": m.SHA,
		"BRANCH_NAME": m.Branch,
		"TAG_NAME":    m.Tag,
	}
}
