package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/config"
	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/store"
	"horae/internal/table"
)

type mockQuerier struct {
	turns     []ledger.Turn
	turnsErr  error
	chats     []store.ChatSummary
	tables    []*table.Table
	results   []store.SearchResult
	lastChat  string
	lastQuery string
}

func (m *mockQuerier) ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error) {
	m.lastChat = chat
	return m.turns, m.turnsErr
}

func (m *mockQuerier) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	return m.chats, nil
}

func (m *mockQuerier) LoadTables(ctx context.Context, chat string) ([]*table.Table, error) {
	return m.tables, nil
}

func (m *mockQuerier) SearchTurns(ctx context.Context, chat, query string) ([]store.SearchResult, error) {
	m.lastChat = chat
	m.lastQuery = query
	return m.results, nil
}

func annotated(t *testing.T, body string) ledger.Turn {
	t.Helper()
	delta, err := parser.Parse(body)
	require.NoError(t, err)
	return ledger.Turn{Body: body, Delta: delta, SentAt: time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)}
}

func chatTurns(t *testing.T) []ledger.Turn {
	return []ledger.Turn{
		{IsUser: true, Body: "我推开门"},
		annotated(t, "<horae>\ntime:2024/3/5 14:00\nlocation:银杯酒馆\nitem!:家传长剑=艾伦@腰间\nnpc:艾伦|金发=开朗@旧友~年龄:20\naffection:艾伦=50\nagenda:3/14|赴约\nevent:重要|重逢\n</horae>"),
		annotated(t, "<horae>\nlocation:集市\naffection:艾伦+5\n</horae>\n<horaetable:任务>\n1,1:找回项链\n</horaetable>"),
	}
}

func TestParseAnnotation(t *testing.T) {
	server := NewServer(&mockQuerier{}, Settings{}, "test")

	_, output, err := server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{
		Text: "<horae>\nlocation:酒馆\nitem-:火把\nagenda-:赴约\nbroken:line\n</horae>\n<horaetable:任务>\n1,2:进行中\n</horaetable>",
	})
	require.NoError(t, err)
	assert.True(t, output.Found)
	assert.Equal(t, "酒馆", output.State.Location)
	assert.Equal(t, []string{"火把"}, output.DeletedItems)
	assert.Equal(t, []string{"赴约"}, output.AgendaCompleted)
	assert.Equal(t, []TableWriteOutput{{Table: "任务", Cell: "1-2", Text: "进行中"}}, output.TableWrites)

	_, output, err = server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{Text: "只是叙述"})
	require.NoError(t, err)
	assert.False(t, output.Found)

	_, output, err = server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{Text: "叙述\nlocation:酒馆", Loose: true})
	require.NoError(t, err)
	assert.True(t, output.Found)

	_, _, err = server.handleParseAnnotation(context.Background(), nil, ParseAnnotationInput{})
	assert.Error(t, err)
}

func TestGetState(t *testing.T) {
	db := &mockQuerier{turns: chatTurns(t)}
	server := NewServer(db, Settings{}, "test")

	_, output, err := server.handleGetState(context.Background(), nil, GetStateInput{Chat: "tavern"})
	require.NoError(t, err)
	assert.Equal(t, "tavern", db.lastChat)
	assert.Equal(t, "集市", output.Location)
	assert.Equal(t, "2024/3/5", output.StoryDate)
	require.Len(t, output.Items, 1)
	assert.Equal(t, ItemOutput{ID: "001", Name: "家传长剑", Importance: "!", Holder: "艾伦", Location: "腰间"}, output.Items[0])
	require.Len(t, output.NPCs, 1)
	assert.Equal(t, "20", output.NPCs[0].Age)
	assert.Equal(t, "2026-02-14T20:00:00Z", output.NPCs[0].LastSeen)
	assert.Equal(t, []AffectionOutput{{Name: "艾伦", Value: 55}}, output.Affection)
	assert.Len(t, output.Agenda, 1)
	assert.Len(t, output.Events, 1)

	_, output, err = server.handleGetState(context.Background(), nil, GetStateInput{Chat: "tavern", SkipLast: 1})
	require.NoError(t, err)
	assert.Equal(t, "银杯酒馆", output.Location)
	assert.Equal(t, []AffectionOutput{{Name: "艾伦", Value: 50}}, output.Affection)
}

func TestGetState_Errors(t *testing.T) {
	server := NewServer(&mockQuerier{turnsErr: store.ErrChatNotFound}, Settings{}, "test")

	_, _, err := server.handleGetState(context.Background(), nil, GetStateInput{})
	assert.Error(t, err)

	_, _, err = server.handleGetState(context.Background(), nil, GetStateInput{Chat: "x", SkipLast: -1})
	assert.Error(t, err)

	_, _, err = server.handleGetState(context.Background(), nil, GetStateInput{Chat: "missing"})
	assert.True(t, errors.Is(err, store.ErrChatNotFound))
}

func TestGetSummary(t *testing.T) {
	server := NewServer(&mockQuerier{turns: chatTurns(t)}, Settings{MaxEvents: 5}, "test")

	_, output, err := server.handleGetSummary(context.Background(), nil, GetSummaryInput{Chat: "tavern"})
	require.NoError(t, err)
	assert.Contains(t, output.Summary, "location:集市\n")
	assert.Contains(t, output.Summary, "affection:艾伦=55\n")
	assert.Contains(t, output.Summary, "event:重要|重逢 (今天)\n")
}

func TestListChats(t *testing.T) {
	updated := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	server := NewServer(&mockQuerier{chats: []store.ChatSummary{{Name: "tavern", Turns: 3, Annotated: 2, UpdatedAt: updated}}}, Settings{}, "test")

	_, output, err := server.handleListChats(context.Background(), nil, ListChatsInput{})
	require.NoError(t, err)
	assert.Equal(t, []ChatOutput{{Name: "tavern", Turns: 3, Annotated: 2, UpdatedAt: "2026-10-01T08:00:00Z"}}, output.Chats)
}

func TestGetTables(t *testing.T) {
	db := &mockQuerier{
		turns:  chatTurns(t),
		tables: []*table.Table{table.New("私人笔记", 1, 1), table.New("任务", 1, 1)},
	}
	settings := Settings{Tables: []config.TableDef{{Name: "任务", Rows: 2, Cols: 2, Cells: map[string]string{"0-1": "名称"}}}}
	server := NewServer(db, settings, "test")

	_, output, err := server.handleGetTables(context.Background(), nil, GetTablesInput{Chat: "tavern"})
	require.NoError(t, err)
	require.Len(t, output.Tables, 2)
	assert.Equal(t, "私人笔记", output.Tables[0].Name)
	assert.Equal(t, "任务", output.Tables[1].Name)
	assert.Equal(t, "找回项链", output.Tables[1].Cells["1-1"])
	assert.Equal(t, "名称", output.Tables[1].Cells["0-1"])
	assert.Empty(t, output.Unresolved)

	_, _, err = server.handleGetTables(context.Background(), nil, GetTablesInput{})
	assert.Error(t, err)
}

func TestRelativeTime(t *testing.T) {
	server := NewServer(&mockQuerier{}, Settings{}, "test")

	_, output, err := server.handleRelativeTime(context.Background(), nil, RelativeTimeInput{From: "2024/3/4", To: "2024/3/5"})
	require.NoError(t, err)
	assert.Equal(t, RelativeTimeOutput{Known: true, Days: 1, Label: "昨天"}, output)

	_, output, err = server.handleRelativeTime(context.Background(), nil, RelativeTimeInput{From: "某天", To: "2024/3/5"})
	require.NoError(t, err)
	assert.False(t, output.Known)

	_, _, err = server.handleRelativeTime(context.Background(), nil, RelativeTimeInput{From: "2024/3/4"})
	assert.Error(t, err)
}

func TestSearchTurns(t *testing.T) {
	db := &mockQuerier{results: []store.SearchResult{{Chat: "tavern", Turn: 1, Score: 2.5, Snippet: "**酒馆**"}}}
	server := NewServer(db, Settings{}, "test")

	_, output, err := server.handleSearchTurns(context.Background(), nil, SearchTurnsInput{Query: "酒馆", Chat: "tavern"})
	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "**酒馆**", output.Results[0].Snippet)
	assert.Equal(t, "tavern", db.lastChat)
	assert.Equal(t, "酒馆", db.lastQuery)

	_, _, err = server.handleSearchTurns(context.Background(), nil, SearchTurnsInput{})
	assert.Error(t, err)
}
