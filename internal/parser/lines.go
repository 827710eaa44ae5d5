package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clockSuffixPattern = regexp.MustCompile(`\s*(\d{1,2}[:：]\d{2})\s*$`)
	absoluteAffection  = regexp.MustCompile(`^(.+?)\s*[=＝]\s*([+\-]?\d+)`)
	relativeAffection  = regexp.MustCompile(`^(.+?)\s*([+\-]\d+)`)
)

var npcFieldSynonyms = map[string]string{
	"性别":         "gender",
	"gender":     "gender",
	"sex":        "gender",
	"年龄":         "age",
	"年纪":         "age",
	"age":        "age",
	"种族":         "race",
	"物种":         "race",
	"race":       "race",
	"species":    "race",
	"职业":         "job",
	"身份":         "job",
	"job":        "job",
	"occupation": "job",
	"profession": "job",
	"补充":         "note",
	"备注":         "note",
	"其他":         "note",
	"note":       "note",
	"notes":      "note",
}

// parseLine applies one annotation line to delta. It reports whether the
// line carried a recognised key, even if its payload was then discarded.
func parseLine(delta *Delta, line string) bool {
	key, value, ok := splitKey(trimBullet(line))
	if !ok {
		return false
	}

	switch key {
	case "time":
		date, clock := splitTime(value)
		if date == "" && clock == "" {
			delta.Discarded++
			return true
		}
		delta.Timestamp = &Timestamp{StoryDate: date, StoryTime: clock}
	case "location":
		if value != "" {
			delta.scene().Location = value
		}
	case "atmosphere":
		if value != "" {
			delta.scene().Atmosphere = value
		}
	case "characters":
		if names := splitList(value); len(names) > 0 {
			delta.scene().Characters = names
		}
	case "costume":
		character, outfit, found := strings.Cut(value, "=")
		character, outfit = strings.TrimSpace(character), strings.TrimSpace(outfit)
		if !found || character == "" {
			delta.Discarded++
			return true
		}
		delta.Costumes = append(delta.Costumes, Costume{Character: character, Outfit: outfit})
	case "item-":
		_, name := SplitIcon(value)
		if name == "" {
			delta.Discarded++
			return true
		}
		delta.DeletedItems = append(delta.DeletedItems, name)
	case "item", "item!", "item!!":
		item, ok := parseItem(value, Importance(strings.Count(key, "!")))
		if !ok {
			delta.Discarded++
			return true
		}
		delta.Items = append(delta.Items, item)
	case "event":
		event, ok := parseEvent(value)
		if !ok {
			delta.Discarded++
			return true
		}
		delta.Events = append(delta.Events, event)
	case "affection":
		update, ok := parseAffection(value)
		if !ok {
			delta.Discarded++
			return true
		}
		delta.Affection = append(delta.Affection, update)
	case "npc":
		npc, ok := parseNPC(value)
		if !ok {
			delta.Discarded++
			return true
		}
		delta.NPCs = append(delta.NPCs, npc)
	case "agenda-":
		text := value
		if _, after, found := strings.Cut(value, "|"); found {
			text = after
		}
		if text = strings.TrimSpace(text); text == "" {
			delta.Discarded++
			return true
		}
		delta.AgendaCompleted = append(delta.AgendaCompleted, text)
	case "agenda":
		date, text, found := strings.Cut(value, "|")
		if !found {
			date, text = "", value
		}
		if text = strings.TrimSpace(text); text == "" {
			delta.Discarded++
			return true
		}
		delta.Agenda = append(delta.Agenda, AgendaEntry{Date: strings.TrimSpace(date), Text: text})
	default:
		return false
	}
	return true
}

func splitTime(value string) (date, clock string) {
	loc := clockSuffixPattern.FindStringSubmatchIndex(value)
	if loc == nil {
		return strings.TrimSpace(value), ""
	}
	clock = strings.Replace(value[loc[2]:loc[3]], "：", ":", 1)
	return strings.TrimSpace(value[:loc[0]]), clock
}

func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '，' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

func parseItem(value string, importance Importance) (ItemUpdate, bool) {
	namePart, rest, hasTarget := strings.Cut(value, "=")

	icon, namePart := SplitIcon(namePart)
	name, description, hasDescription := strings.Cut(namePart, "|")
	name = StripTrivialQuantity(name)
	if name == "" {
		return ItemUpdate{}, false
	}

	item := ItemUpdate{
		Name:       name,
		Icon:       icon,
		Importance: importance,
	}
	if hasDescription {
		item.Description = DescriptionOf(strings.TrimSpace(description))
	}
	if hasTarget {
		holder, location, _ := strings.Cut(rest, "@")
		holder, location = strings.TrimSpace(holder), strings.TrimSpace(location)
		item.Holder = &holder
		item.Location = &location
	}
	return item, true
}

func parseEvent(value string) (Event, bool) {
	level, summary, found := strings.Cut(value, "|")
	level, summary = strings.TrimSpace(level), strings.TrimSpace(summary)
	if !found || level == "" || summary == "" {
		return Event{}, false
	}
	return Event{Level: normalizeLevel(level), Summary: summary}, true
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case LevelCritical, "critical":
		return LevelCritical
	case LevelImportant, "important":
		return LevelImportant
	default:
		return LevelNormal
	}
}

func parseAffection(value string) (AffectionUpdate, bool) {
	if m := absoluteAffection.FindStringSubmatch(value); m != nil {
		n, err := strconv.Atoi(strings.TrimPrefix(m[2], "+"))
		if err == nil {
			return AffectionUpdate{Name: strings.TrimSpace(m[1]), Kind: AffectionAbsolute, Value: n}, true
		}
	}
	if strings.ContainsAny(value, "=＝") {
		return AffectionUpdate{}, false
	}
	if m := relativeAffection.FindStringSubmatch(value); m != nil {
		n, err := strconv.Atoi(strings.TrimPrefix(m[2], "+"))
		if err == nil {
			return AffectionUpdate{Name: strings.TrimSpace(m[1]), Kind: AffectionRelative, Value: n}, true
		}
	}
	return AffectionUpdate{}, false
}

func parseNPC(value string) (NpcUpdate, bool) {
	segments := strings.Split(value, "~")
	name, descriptor, _ := strings.Cut(segments[0], "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return NpcUpdate{}, false
	}

	var appearance, personality, relationship string
	switch {
	case strings.ContainsAny(descriptor, "=@"):
		if i := strings.Index(descriptor, "="); i >= 0 {
			appearance = descriptor[:i]
			personality, relationship, _ = strings.Cut(descriptor[i+1:], "@")
		} else {
			appearance, relationship, _ = strings.Cut(descriptor, "@")
		}
	default:
		parts := strings.SplitN(descriptor, "|", 3)
		appearance = parts[0]
		if len(parts) > 1 {
			personality = parts[1]
		}
		if len(parts) > 2 {
			relationship = parts[2]
		}
	}

	npc := NpcUpdate{
		Name:         name,
		Appearance:   present(appearance),
		Personality:  present(personality),
		Relationship: present(relationship),
	}

	for _, segment := range segments[1:] {
		key, val, ok := splitKey(segment)
		if !ok {
			continue
		}
		field := present(val)
		if field == nil {
			continue
		}
		switch npcFieldSynonyms[key] {
		case "gender":
			npc.Gender = field
		case "age":
			npc.Age = field
		case "race":
			npc.Race = field
		case "job":
			npc.Job = field
		case "note":
			npc.Note = field
		}
	}
	return npc, true
}

// present returns nil for blank text so that merge treats it as absent.
func present(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}
