package state

import (
	"regexp"
	"strings"

	"horae/internal/parser"
)

const consumedWords = `已消耗|已用完|已销毁|消耗殆尽|消耗|用尽`

var (
	quantitySuffixPattern = regexp.MustCompile(`\s*[(（]\s*\d+(?:\.\d+)?\s*[^\d.()（）]{0,8}\s*[)）]\s*$`)
	zeroQuantityPattern   = regexp.MustCompile(`[(（]\s*0(?:\.0+)?\s*[^\d.()（）]*[)）]`)
	consumedMarkerPattern = regexp.MustCompile(`\s*[(（]\s*(?:` + consumedWords + `)\s*[)）]`)
)

var consumedHolders = map[string]bool{
	"已消耗":  true,
	"已用完":  true,
	"已销毁":  true,
	"消耗殆尽": true,
	"消耗":   true,
	"用尽":   true,
	"无":    true,
}

// BaseName is the identity key of an item: the display name without trivial
// counts, consumption markers or a trailing amount such as "(50L)".
func BaseName(name string) string {
	name = parser.StripTrivialQuantity(name)
	name = consumedMarkerPattern.ReplaceAllString(name, "")
	name = quantitySuffixPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func isConsumed(name string, holder *string) bool {
	if zeroQuantityPattern.MatchString(name) || consumedMarkerPattern.MatchString(name) {
		return true
	}
	return holder != nil && consumedHolders[strings.TrimSpace(*holder)]
}

// findItem resolves name to a tracked key. An exact key wins; otherwise the
// first key whose base name matches case-insensitively.
func (st *State) findItem(name string) (string, bool) {
	if _, ok := st.Items.Get(name); ok {
		return name, true
	}
	base := BaseName(name)
	for key := range st.Items.All() {
		if strings.EqualFold(BaseName(key), base) {
			return key, true
		}
	}
	return "", false
}

func (st *State) removeByBase(name string) {
	base := BaseName(name)
	for _, key := range st.Items.Keys() {
		if key == name || strings.EqualFold(BaseName(key), base) {
			st.Items.Delete(key)
		}
	}
}

func (st *State) upsertItem(u parser.ItemUpdate) {
	name := parser.StripTrivialQuantity(u.Name)
	if name == "" {
		return
	}
	if isConsumed(name, u.Holder) {
		st.removeByBase(name)
		return
	}

	key, found := st.findItem(name)
	if !found {
		rec := &ItemRecord{
			ID:         u.ID,
			Icon:       u.Icon,
			Importance: u.Importance,
		}
		if u.Holder != nil {
			rec.Holder = *u.Holder
		}
		if u.Location != nil {
			rec.Location = *u.Location
		}
		if u.Description.HasValue() {
			rec.Description = u.Description.Text()
		}
		st.Items.Set(name, rec)
		return
	}

	rec, _ := st.Items.Get(key)
	if rec.ID == "" {
		rec.ID = u.ID
	}
	if u.Icon != "" {
		rec.Icon = u.Icon
	}
	rec.Importance = rec.Importance.Max(u.Importance)
	if u.Holder != nil {
		rec.Holder = *u.Holder
	}
	if u.Location != nil {
		rec.Location = *u.Location
	}
	if u.Description.HasValue() {
		rec.Description = u.Description.Text()
	}

	if key != name {
		st.Items.Delete(key)
	}
	st.Items.Set(name, rec)
}

func (st *State) deleteItem(name string) {
	_, name = parser.SplitIcon(name)
	if name == "" {
		return
	}
	st.removeByBase(name)
}
