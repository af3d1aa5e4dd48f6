package core

import (
	"github.com/google/uuid"
)

// RunID labels one pipeline run
type RunID string

func (id RunID) String() string { return string(id) }

// runNamespace scopes run IDs so they never collide with other UUIDv5 users
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("embsurvey/run"))

// NewRunID derives the run ID from the input fingerprint, so identical
// input always yields the same ID
func NewRunID(fp Fingerprint) RunID {
	return RunID(uuid.NewSHA1(runNamespace, []byte(fp)).String())
}
