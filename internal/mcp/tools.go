package mcp

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/state"
	"horae/internal/storydate"
	"horae/internal/summary"
	"horae/internal/table"
)

type ParseAnnotationInput struct {
	Text  string `json:"text" jsonschema:"turn text holding an annotation"`
	Loose bool   `json:"loose,omitempty" jsonschema:"also accept unwrapped key:value lines"`
}

type GetStateInput struct {
	Chat     string `json:"chat" jsonschema:"chat name"`
	SkipLast int    `json:"skip_last,omitempty" jsonschema:"ignore the most recent turns"`
}

type GetSummaryInput struct {
	Chat     string `json:"chat" jsonschema:"chat name"`
	SkipLast int    `json:"skip_last,omitempty" jsonschema:"ignore the most recent turns"`
}

type ListChatsInput struct{}

type GetTablesInput struct {
	Chat string `json:"chat" jsonschema:"chat name"`
}

type RelativeTimeInput struct {
	From string `json:"from" jsonschema:"earlier story date, e.g. 2024/3/5"`
	To   string `json:"to" jsonschema:"reference story date"`
}

type SearchTurnsInput struct {
	Query string `json:"query" jsonschema:"search terms; quote phrases, prefix - to exclude"`
	Chat  string `json:"chat,omitempty" jsonschema:"restrict to one chat"`
}

type ParseAnnotationOutput struct {
	Found           bool               `json:"found"`
	Discarded       int                `json:"discarded"`
	State           StateOutput        `json:"state"`
	DeletedItems    []string           `json:"deleted_items"`
	AgendaCompleted []string           `json:"agenda_completed"`
	TableWrites     []TableWriteOutput `json:"table_writes"`
}

type GetSummaryOutput struct {
	Summary string `json:"summary"`
}

type ListChatsOutput struct {
	Chats []ChatOutput `json:"chats"`
}

type GetTablesOutput struct {
	Tables     []TableOutput `json:"tables"`
	Unresolved []string      `json:"unresolved"`
}

type RelativeTimeOutput struct {
	Known bool   `json:"known"`
	Days  int    `json:"days"`
	Label string `json:"label"`
}

type SearchTurnsOutput struct {
	Results []SearchResultOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "parse_annotation",
		Description: "Parse one turn's annotation and show the state it records",
	}, s.handleParseAnnotation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_state",
		Description: "Fold a chat's history into its current world state",
	}, s.handleGetState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_summary",
		Description: "Render a chat's current state as compact annotation lines",
	}, s.handleGetSummary)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_chats",
		Description: "List stored chats with turn counts",
	}, s.handleListChats)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_tables",
		Description: "Rebuild and return a chat's tables from its history",
	}, s.handleGetTables)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "relative_time",
		Description: "Describe how far one story date lies from another",
	}, s.handleRelativeTime)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_turns",
		Description: "Full-text search over turn bodies",
	}, s.handleSearchTurns)
}

func (s *Server) handleParseAnnotation(ctx context.Context, req *sdk.CallToolRequest, input ParseAnnotationInput) (*sdk.CallToolResult, ParseAnnotationOutput, error) {
	if input.Text == "" {
		return nil, ParseAnnotationOutput{}, fmt.Errorf("text is required")
	}
	delta, err := parser.ParseText(input.Text, input.Loose || s.settings.Loose)
	if errors.Is(err, parser.ErrNoAnnotation) {
		return nil, ParseAnnotationOutput{State: stateOutput(state.New()), DeletedItems: []string{}, AgendaCompleted: []string{}, TableWrites: []TableWriteOutput{}}, nil
	}
	if err != nil {
		return nil, ParseAnnotationOutput{}, err
	}

	st := state.Fold(ledger.New(ledger.Turn{Delta: delta}), state.Options{})
	return nil, ParseAnnotationOutput{
		Found:           true,
		Discarded:       delta.Discarded,
		State:           stateOutput(st),
		DeletedItems:    append([]string{}, delta.DeletedItems...),
		AgendaCompleted: append([]string{}, delta.AgendaCompleted...),
		TableWrites:     tableWrites(delta.Tables),
	}, nil
}

func (s *Server) handleGetState(ctx context.Context, req *sdk.CallToolRequest, input GetStateInput) (*sdk.CallToolResult, StateOutput, error) {
	st, err := s.fold(ctx, input.Chat, input.SkipLast)
	if err != nil {
		return nil, StateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleGetSummary(ctx context.Context, req *sdk.CallToolRequest, input GetSummaryInput) (*sdk.CallToolResult, GetSummaryOutput, error) {
	st, err := s.fold(ctx, input.Chat, input.SkipLast)
	if err != nil {
		return nil, GetSummaryOutput{}, err
	}
	return nil, GetSummaryOutput{Summary: summary.Render(st, summary.Options{MaxEvents: s.settings.MaxEvents})}, nil
}

func (s *Server) handleListChats(ctx context.Context, req *sdk.CallToolRequest, input ListChatsInput) (*sdk.CallToolResult, ListChatsOutput, error) {
	chats, err := s.db.ListChats(ctx)
	if err != nil {
		return nil, ListChatsOutput{}, err
	}
	output := make([]ChatOutput, 0, len(chats))
	for _, chat := range chats {
		output = append(output, chatOutput(chat))
	}
	return nil, ListChatsOutput{Chats: output}, nil
}

func (s *Server) handleGetTables(ctx context.Context, req *sdk.CallToolRequest, input GetTablesInput) (*sdk.CallToolResult, GetTablesOutput, error) {
	if input.Chat == "" {
		return nil, GetTablesOutput{}, fmt.Errorf("chat is required")
	}
	turns, err := s.db.ListTurns(ctx, input.Chat)
	if err != nil {
		return nil, GetTablesOutput{}, err
	}
	saved, err := s.db.LoadTables(ctx, input.Chat)
	if err != nil {
		return nil, GetTablesOutput{}, err
	}

	global := table.FromDefs(s.settings.Tables)
	engine := table.NewEngine(table.LocalOnly(saved, global), global)
	applied := engine.Rebuild(ledger.New(turns...))

	output := GetTablesOutput{Tables: []TableOutput{}, Unresolved: []string{}}
	for _, t := range engine.Tables() {
		output.Tables = append(output.Tables, tableOutput(t))
	}
	output.Unresolved = append(output.Unresolved, applied.Unresolved...)
	return nil, output, nil
}

func (s *Server) handleRelativeTime(ctx context.Context, req *sdk.CallToolRequest, input RelativeTimeInput) (*sdk.CallToolResult, RelativeTimeOutput, error) {
	if input.From == "" || input.To == "" {
		return nil, RelativeTimeOutput{}, fmt.Errorf("from and to are required")
	}
	days, ok := storydate.CalculateRelativeTime(input.From, input.To)
	if !ok {
		return nil, RelativeTimeOutput{}, nil
	}
	label, _ := storydate.RelativeLabel(input.From, input.To)
	return nil, RelativeTimeOutput{Known: true, Days: days, Label: label}, nil
}

func (s *Server) handleSearchTurns(ctx context.Context, req *sdk.CallToolRequest, input SearchTurnsInput) (*sdk.CallToolResult, SearchTurnsOutput, error) {
	if input.Query == "" {
		return nil, SearchTurnsOutput{}, fmt.Errorf("query is required")
	}
	results, err := s.db.SearchTurns(ctx, input.Chat, input.Query)
	if err != nil {
		return nil, SearchTurnsOutput{}, err
	}
	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, SearchResultOutput{Chat: r.Chat, Turn: r.Turn, IsUser: r.IsUser, Score: r.Score, Snippet: r.Snippet})
	}
	return nil, SearchTurnsOutput{Results: output}, nil
}

func (s *Server) fold(ctx context.Context, chat string, skipLast int) (*state.State, error) {
	if chat == "" {
		return nil, fmt.Errorf("chat is required")
	}
	if skipLast < 0 {
		return nil, fmt.Errorf("skip_last must not be negative")
	}
	turns, err := s.db.ListTurns(ctx, chat)
	if err != nil {
		return nil, err
	}
	return state.Fold(ledger.New(turns...), state.Options{SkipLast: skipLast}), nil
}
