package discussion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		threads []Thread
		want    Counts
	}{
		{name: "nil", threads: nil, want: Counts{}},
		{name: "empty", threads: []Thread{}, want: Counts{}},
		{
			name: "mixed",
			threads: []Thread{
				{Resolvable: true, Resolved: true},
				{Resolvable: true},
				{Resolvable: false},
				{IndividualNote: true},
			},
			want: Counts{Resolvable: 2, Resolved: 1},
		},
		{
			name:    "resolved without resolvable still counts",
			threads: []Thread{{Resolved: true}},
			want:    Counts{Resolvable: 0, Resolved: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.threads)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Resolvable, len(tt.threads))
			assert.LessOrEqual(t, got.Resolved, len(tt.threads))
		})
	}
}

func TestSelectBadge(t *testing.T) {
	allResolved := SelectBadge(Counts{Resolvable: 3, Resolved: 3})
	assert.Equal(t, BadgeResolved, allResolved.Kind)
	assert.Equal(t, "3/3 threads resolved", allResolved.Label())

	unresolved := SelectBadge(Counts{Resolvable: 3, Resolved: 1})
	assert.Equal(t, BadgeUnresolved, unresolved.Kind)
	assert.Equal(t, "1/3 threads resolved", unresolved.Label())

	none := SelectBadge(Counts{})
	assert.False(t, none.Visible())
	assert.Empty(t, none.Label())
}

func TestThreadEnds(t *testing.T) {
	thread := Thread{Resolvable: true, Notes: []Note{{AuthorID: 1}, {AuthorID: 2}, {AuthorID: 3}}}
	first, ok := thread.First()
	require.True(t, ok)
	assert.Equal(t, int64(1), first.AuthorID)
	last, ok := thread.Last()
	require.True(t, ok)
	assert.Equal(t, int64(3), last.AuthorID)
	assert.True(t, thread.Open())

	empty := Thread{Resolvable: true}
	_, ok = empty.First()
	assert.False(t, ok)
	assert.False(t, empty.Open())
}

func TestCountsUnresolved(t *testing.T) {
	assert.Equal(t, 2, Counts{Resolvable: 3, Resolved: 1}.Unresolved())
	assert.Equal(t, 0, Counts{Resolvable: 1, Resolved: 2}.Unresolved())
}
