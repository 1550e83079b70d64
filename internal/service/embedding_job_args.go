package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	ideaEmbeddingKind = "idea_embedding"
	// EmbeddingsQueueName is the River queue used for idea embedding jobs.
	EmbeddingsQueueName = "embeddings"

	// uniqueByPeriodEmbedding spaces duplicate enqueues of the same idea.
	uniqueByPeriodEmbedding = 15 * time.Minute
)

// EmbeddingJobInserter inserts embedding jobs (e.g. River client). Used by BackfillEmbeddings.
type EmbeddingJobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// IdeaEmbeddingArgs is the job payload for generating and storing the vector
// of one idea. Uniqueness is by IdeaID so repeated backfill runs do not stack
// duplicate jobs.
type IdeaEmbeddingArgs struct {
	IdeaID uuid.UUID `json:"idea_id" river:"unique"`
}

// Kind returns the River job kind.
func (IdeaEmbeddingArgs) Kind() string { return ideaEmbeddingKind }

var _ river.JobArgs = IdeaEmbeddingArgs{}
