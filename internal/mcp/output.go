package mcp

import (
	"time"

	"horae/internal/parser"
	"horae/internal/state"
	"horae/internal/store"
	"horae/internal/table"
)

type StateOutput struct {
	StoryDate  string            `json:"story_date"`
	StoryTime  string            `json:"story_time"`
	Location   string            `json:"location"`
	Atmosphere string            `json:"atmosphere"`
	Characters []string          `json:"characters"`
	Costumes   []CostumeOutput   `json:"costumes"`
	Items      []ItemOutput      `json:"items"`
	NPCs       []NpcOutput       `json:"npcs"`
	Affection  []AffectionOutput `json:"affection"`
	Agenda     []AgendaOutput    `json:"agenda"`
	Events     []EventOutput     `json:"events"`
}

type CostumeOutput struct {
	Character string `json:"character"`
	Outfit    string `json:"outfit"`
}

type ItemOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Importance  string `json:"importance,omitempty"`
	Holder      string `json:"holder,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

type NpcOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Appearance   string `json:"appearance,omitempty"`
	Personality  string `json:"personality,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Age          string `json:"age,omitempty"`
	Race         string `json:"race,omitempty"`
	Job          string `json:"job,omitempty"`
	Note         string `json:"note,omitempty"`
	FirstSeen    string `json:"first_seen,omitempty"`
	LastSeen     string `json:"last_seen,omitempty"`
}

type AffectionOutput struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type AgendaOutput struct {
	Date   string `json:"date,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Turn   int    `json:"turn"`
}

type EventOutput struct {
	Turn    int    `json:"turn"`
	Date    string `json:"date,omitempty"`
	Level   string `json:"level"`
	Summary string `json:"summary"`
}

type TableOutput struct {
	Name        string            `json:"name"`
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	Cells       map[string]string `json:"cells"`
	LockedRows  []int             `json:"locked_rows,omitempty"`
	LockedCols  []int             `json:"locked_cols,omitempty"`
	LockedCells []string          `json:"locked_cells,omitempty"`
}

type TableWriteOutput struct {
	Table string `json:"table"`
	Cell  string `json:"cell"`
	Text  string `json:"text"`
}

type ChatOutput struct {
	Name      string `json:"name"`
	Turns     int    `json:"turns"`
	Annotated int    `json:"annotated"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type SearchResultOutput struct {
	Chat    string  `json:"chat"`
	Turn    int     `json:"turn"`
	IsUser  bool    `json:"is_user"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// stateOutput ages NPCs against the state's own current date.
func stateOutput(st *state.State) StateOutput {
	out := StateOutput{
		StoryDate:  st.Timestamp.StoryDate,
		StoryTime:  st.Timestamp.StoryTime,
		Location:   st.Scene.Location,
		Atmosphere: st.Scene.Atmosphere,
		Characters: append([]string{}, st.Scene.Characters...),
		Costumes:   make([]CostumeOutput, 0, st.Costumes.Len()),
		Items:      make([]ItemOutput, 0, st.Items.Len()),
		NPCs:       make([]NpcOutput, 0, st.NPCs.Len()),
		Affection:  make([]AffectionOutput, 0, st.Affection.Len()),
		Agenda:     make([]AgendaOutput, 0, len(st.Agenda)),
		Events:     make([]EventOutput, 0, len(st.Events)),
	}
	for name, outfit := range st.Costumes.All() {
		out.Costumes = append(out.Costumes, CostumeOutput{Character: name, Outfit: outfit})
	}
	for name, item := range st.Items.All() {
		out.Items = append(out.Items, ItemOutput{
			ID:          item.ID,
			Name:        name,
			Icon:        item.Icon,
			Importance:  item.Importance.String(),
			Holder:      item.Holder,
			Location:    item.Location,
			Description: item.Description,
		})
	}
	for name, npc := range st.NPCs.All() {
		out.NPCs = append(out.NPCs, NpcOutput{
			ID:           npc.ID,
			Name:         name,
			Appearance:   npc.Appearance,
			Personality:  npc.Personality,
			Relationship: npc.Relationship,
			Gender:       npc.Gender,
			Age:          state.CalcCurrentAge(*npc, st.Timestamp.StoryDate),
			Race:         npc.Race,
			Job:          npc.Job,
			Note:         npc.Note,
			FirstSeen:    formatTime(npc.FirstSeen),
			LastSeen:     formatTime(npc.LastSeen),
		})
	}
	for name, value := range st.Affection.All() {
		out.Affection = append(out.Affection, AffectionOutput{Name: name, Value: value})
	}
	for _, entry := range st.Agenda {
		if entry.Done {
			continue
		}
		out.Agenda = append(out.Agenda, AgendaOutput{Date: entry.Date, Text: entry.Text, Source: entry.Source, Turn: entry.Turn})
	}
	for _, e := range st.Events {
		out.Events = append(out.Events, EventOutput{Turn: e.Turn, Date: e.Date, Level: e.Level, Summary: e.Summary})
	}
	return out
}

func tableOutput(t *table.Table) TableOutput {
	cells := make(map[string]string, len(t.Data))
	for key, text := range t.Data {
		cells[key] = text
	}
	return TableOutput{
		Name:        t.Name,
		Rows:        t.Rows,
		Cols:        t.Cols,
		Cells:       cells,
		LockedRows:  t.LockedRows,
		LockedCols:  t.LockedCols,
		LockedCells: t.LockedCells,
	}
}

func tableWrites(updates []parser.TableUpdate) []TableWriteOutput {
	out := make([]TableWriteOutput, 0)
	for _, update := range updates {
		for _, cell := range update.Cells {
			out = append(out, TableWriteOutput{Table: update.Name, Cell: cell.Key(), Text: cell.Text})
		}
	}
	return out
}

func chatOutput(chat store.ChatSummary) ChatOutput {
	return ChatOutput{
		Name:      chat.Name,
		Turns:     chat.Turns,
		Annotated: chat.Annotated,
		UpdatedAt: formatTime(chat.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
