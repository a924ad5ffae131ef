package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadTail(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name        string
		n           int
		want        []int
		wantSampled bool
	}{
		{name: "even split", n: 4, want: []int{1, 2, 9, 10}, wantSampled: true},
		{name: "odd favours head", n: 5, want: []int{1, 2, 3, 9, 10}, wantSampled: true},
		{name: "single item", n: 1, want: []int{1}, wantSampled: true},
		{name: "exact fit", n: 10, want: items, wantSampled: false},
		{name: "larger than collection", n: 50, want: items, wantSampled: false},
		{name: "zero disables", n: 0, want: items, wantSampled: false},
		{name: "negative disables", n: -3, want: items, wantSampled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sampled := HeadTail(items, tt.n)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSampled, sampled)
			assert.LessOrEqual(t, len(got), max(tt.n, len(items)))
		})
	}
}

func TestHeadTail_DoesNotAliasInput(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	got, _ := HeadTail(items, 2)
	got[0] = "z"

	assert.Equal(t, "a", items[0])
}
