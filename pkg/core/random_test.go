package core

import (
	"context"
	"testing"
	"time"

	"github.com/oneconcern/amos/internal/rand"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReimportingIsIdempotent(t *testing.T) {
	repo, clock, _ := testRepository(t)
	ctx := context.Background()

	for _, lang := range []string{"en", "cs", "de"} {
		original := rand.StringSet("forum", lang, v21, 200)
		res := commitSets(t, repo, "Import", nil, original)
		assert.Equal(t, 200, res.Records)

		clock.Advance(time.Hour)
		for i := 0; i < 3; i++ {
			stage := repo.NewStage()
			require.NoError(t, stage.Put(original, false))
			require.NoError(t, stage.Rebase(ctx, FullSnapshot()))
			assert.False(t, stage.HasComponent(), "re-importing the same content stages nothing")
		}

		snapshot, err := repo.Snapshot(ctx, "forum", lang, v21, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, snapshot.Diff(original))
	}

	tree, err := repo.ComponentsTree(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"forum": 200}, tree[v21.Code]["cs"])
}

func BenchmarkCommitRebase(b *testing.B) {
	repo, _, _ := testRepository(b)
	ctx := context.Background()
	sets := make([]*model.StringSet, 0, 10)
	for i := 0; i < 10; i++ {
		sets = append(sets, rand.StringSet(rand.LetterString(8), "cs", v20, 100))
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		stage := repo.NewStage()
		for _, s := range sets {
			_ = stage.Put(s, false)
		}
		if _, err := stage.Commit(ctx, "bench", nil); err != nil {
			b.Fatal(err)
		}
	}
}
