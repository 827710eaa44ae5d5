package state

import (
	"fmt"
	"strconv"
	"strings"

	"horae/internal/ledger"
)

type identified interface {
	id() string
	setID(string)
}

func (r *ItemRecord) id() string      { return r.ID }
func (r *ItemRecord) setID(id string) { r.ID = id }
func (r *NpcRecord) id() string       { return r.ID }
func (r *NpcRecord) setID(id string)  { r.ID = id }

// assignIDs gives every record without an identifier the next zero-padded
// number after the highest numeric identifier already present, walking the
// records in insertion order.
func assignIDs[V identified](records *Ordered[V]) {
	next := 0
	for _, rec := range records.All() {
		if n, err := strconv.Atoi(rec.id()); err == nil && n > next {
			next = n
		}
	}
	for _, rec := range records.All() {
		if rec.id() != "" {
			continue
		}
		next++
		rec.setID(fmt.Sprintf("%03d", next))
	}
}

// StampIDs writes the identifiers of st back into the stored deltas that
// mention each record and do not yet carry one, so that later folds over a
// different range keep the same identifiers. It returns the number of
// updates stamped.
func StampIDs(l *ledger.Ledger, st *State) int {
	stamped := 0
	for i := range l.Len() {
		d := l.Delta(i)
		if d == nil {
			continue
		}
		for j := range d.Items {
			item := &d.Items[j]
			if item.ID != "" {
				continue
			}
			if rec := st.itemFor(item.Name); rec != nil && rec.ID != "" {
				item.ID = rec.ID
				stamped++
			}
		}
		for j := range d.NPCs {
			npc := &d.NPCs[j]
			if npc.ID != "" {
				continue
			}
			if rec, ok := st.NPCs.Get(npc.Name); ok && rec.ID != "" {
				npc.ID = rec.ID
				stamped++
			}
		}
	}
	return stamped
}

func (st *State) itemFor(name string) *ItemRecord {
	if rec, ok := st.Items.Get(name); ok {
		return rec
	}
	base := BaseName(name)
	for key, rec := range st.Items.All() {
		if strings.EqualFold(BaseName(key), base) {
			return rec
		}
	}
	return nil
}
