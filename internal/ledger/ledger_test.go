package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/parser"
)

func TestLedgerAppend(t *testing.T) {
	l := New(Turn{Index: 7, IsUser: true, Body: "你好"})
	idx := l.Append(Turn{Body: "<horae>\nlocation:港口\n</horae>"})

	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, l.Len())

	first, ok := l.Turn(0)
	require.True(t, ok)
	assert.Equal(t, 0, first.Index)

	_, ok = l.Turn(2)
	assert.False(t, ok)
	assert.Nil(t, l.Delta(-1))

	err := l.SetDelta(5, &parser.Delta{})
	assert.ErrorIs(t, err, ErrTurnOutOfRange)

	turns := l.Turns()
	turns[0].Body = "changed"
	again, _ := l.Turn(0)
	assert.Equal(t, "你好", again.Body)
}

func TestAnnotate(t *testing.T) {
	l := New(
		Turn{IsUser: true, Body: "<horae>\nlocation:用户写的\n</horae>"},
		Turn{Body: "<horae>\nlocation:港口\n</horae>"},
		Turn{Body: "location:灯塔"},
		Turn{Body: "只有正文"},
	)

	result := Annotate(l, AnnotateOptions{})
	assert.Equal(t, 1, result.Annotated)
	assert.Equal(t, []int{2, 3}, result.Missing)
	assert.Nil(t, l.Delta(0))
	assert.Equal(t, "港口", l.Delta(1).Scene.Location)

	result = Annotate(l, AnnotateOptions{Loose: true})
	assert.Equal(t, 1, result.Annotated)
	assert.Equal(t, []int{3}, result.Missing)
	assert.Equal(t, "灯塔", l.Delta(2).Scene.Location)
	assert.Equal(t, []int{3}, l.Missing())
}

func TestBackfill(t *testing.T) {
	l := New(
		Turn{Body: "第一段"},
		Turn{IsUser: true, Body: "用户"},
		Turn{Body: "第二段"},
		Turn{Body: "第三段"},
		Turn{Body: "第四段", Delta: &parser.Delta{}},
	)

	analyze := func(ctx context.Context, body string) (*parser.Delta, error) {
		switch body {
		case "第一段":
			return &parser.Delta{Scene: &parser.Scene{Location: "森林"}}, nil
		case "第二段":
			return nil, errors.New("upstream unavailable")
		default:
			return nil, nil
		}
	}

	var calls [][3]int
	progress := func(percent, done, total int) {
		calls = append(calls, [3]int{percent, done, total})
	}

	result, err := Backfill(context.Background(), l, analyze, progress)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Filled: 1, Failed: 1, Empty: 1}, result)
	assert.Equal(t, "森林", l.Delta(0).Scene.Location)
	assert.Nil(t, l.Delta(2))
	assert.Equal(t, [][3]int{{33, 1, 3}, {66, 2, 3}, {100, 3, 3}}, calls)
}

func TestBackfillCancelled(t *testing.T) {
	l := New(Turn{Body: "a"}, Turn{Body: "b"})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	analyze := func(ctx context.Context, body string) (*parser.Delta, error) {
		calls++
		cancel()
		return &parser.Delta{}, nil
	}

	result, err := Backfill(ctx, l, analyze, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.Filled)
}
