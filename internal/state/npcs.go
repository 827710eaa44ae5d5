package state

import (
	"strconv"
	"strings"
	"time"

	"horae/internal/parser"
)

func (st *State) upsertNPC(u parser.NpcUpdate, seen time.Time) {
	if u.Name == "" {
		return
	}
	lastSeen := seen
	if u.LastSeen != nil {
		lastSeen = *u.LastSeen
	}

	rec, ok := st.NPCs.Get(u.Name)
	if !ok {
		rec = &NpcRecord{
			ID:           u.ID,
			Appearance:   value(u.Appearance),
			Personality:  value(u.Personality),
			Relationship: value(u.Relationship),
			Gender:       value(u.Gender),
			Age:          value(u.Age),
			Race:         value(u.Race),
			Job:          value(u.Job),
			Note:         value(u.Note),
			FirstSeen:    seen,
			LastSeen:     lastSeen,
		}
		if u.Age != nil {
			rec.AgeRefDate = st.Timestamp.StoryDate
		}
		st.NPCs.Set(u.Name, rec)
		return
	}

	if rec.ID == "" {
		rec.ID = u.ID
	}
	overwrite(&rec.Appearance, u.Appearance)
	overwrite(&rec.Personality, u.Personality)
	overwrite(&rec.Relationship, u.Relationship)
	overwrite(&rec.Job, u.Job)
	overwrite(&rec.Note, u.Note)

	// Gender and race are settable once.
	if rec.Gender == "" {
		overwrite(&rec.Gender, u.Gender)
	}
	if rec.Race == "" {
		overwrite(&rec.Race, u.Race)
	}

	if u.Age != nil {
		if rec.AgeRefDate == "" || ageChanged(rec.Age, *u.Age) {
			rec.AgeRefDate = st.Timestamp.StoryDate
		}
		rec.Age = *u.Age
	}
	rec.LastSeen = lastSeen
}

func ageChanged(old, next string) bool {
	a, errA := strconv.Atoi(strings.TrimSpace(old))
	b, errB := strconv.Atoi(strings.TrimSpace(next))
	return errA == nil && errB == nil && a != b
}

func overwrite(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
