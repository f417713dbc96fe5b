// Package merge updates an existing translation catalog from a freshly
// extracted template, the way msgmerge updates a PO file from a POT.
package merge

import (
	"slices"

	"github.com/eq-tools/eqtrans/catalog"
	"github.com/eq-tools/eqtrans/schema"
)

// Previous reports the source text a schema address held when the catalog
// was last updated. The lock file implements it.
type Previous interface {
	Previous(addr string) (string, bool)
}

// Stats counts what a merge did.
type Stats struct {
	Kept     int // translations carried over unchanged
	Fuzzy    int // translations inherited from changed source text
	Added    int // new untranslated messages
	Obsolete int // messages no longer in the template
}

// Merge returns a catalog ordered like template.
//   - Messages present in both keep their translation and fuzzy state; comments
//     and locations come from the template.
//   - A new message whose address held different text that existing translates
//     inherits that translation, flagged fuzzy with PreviousID set.
//   - Messages no longer in the template are appended as obsolete.
//
// prev may be nil, in which case no translations are inherited.
func Merge(existing, template *catalog.Catalog, prev Previous) *catalog.Catalog {
	out, _ := MergeStats(existing, template, prev)
	return out
}

// MergeStats is Merge reporting what changed.
func MergeStats(existing, template *catalog.Catalog, prev Previous) (*catalog.Catalog, Stats) {
	var st Stats
	result := catalog.New(existing.Locale)
	matched := make(map[string]bool)

	for _, tm := range template.Messages() {
		if tm.ID == "" || tm.Obsolete {
			continue
		}
		msg := catalog.Message{
			ID:           tm.ID,
			AutoComments: tm.AutoComments,
			UserComments: tm.UserComments,
			Locations:    tm.Locations,
		}

		if old, ok := existing.Get(tm.ID); ok {
			matched[tm.ID] = true
			msg.String = old.String
			msg.Flags = mergeFlags(old.Flags, tm.Flags)
			msg.PreviousID = old.PreviousID
			// A revived obsolete translation needs review.
			if old.Obsolete && old.String != "" && !slices.Contains(msg.Flags, "fuzzy") {
				msg.Flags = append([]string{"fuzzy"}, msg.Flags...)
			}
			switch {
			case slices.Contains(msg.Flags, "fuzzy"):
				st.Fuzzy++
			case msg.String != "":
				st.Kept++
			default:
				st.Added++
			}
			result.Add(msg)
			continue
		}

		msg.Flags = slices.Clone(tm.Flags)
		if prevID, text, ok := inherited(existing, tm, prev); ok {
			msg.String = text
			msg.PreviousID = prevID
			msg.SetFuzzy(true)
			st.Fuzzy++
		} else {
			st.Added++
		}
		result.Add(msg)
	}

	for _, old := range existing.Messages() {
		if old.ID == "" || old.Obsolete || matched[old.ID] {
			continue
		}
		gone := *old
		gone.Obsolete = true
		gone.Locations = nil
		result.Add(gone)
		st.Obsolete++
	}

	return result, st
}

// inherited finds a translation made for the text previously stored at one of
// tm's locations.
func inherited(existing *catalog.Catalog, tm *catalog.Message, prev Previous) (prevID, text string, ok bool) {
	if prev == nil {
		return "", "", false
	}
	for _, loc := range tm.Locations {
		source, found := prev.Previous(loc)
		if !found {
			continue
		}
		id := schema.SmartQuotes(source)
		if id == tm.ID {
			continue
		}
		old, found := existing.Get(id)
		if !found || old.String == "" {
			continue
		}
		return id, old.String, true
	}
	return "", "", false
}

// mergeFlags keeps the translator's fuzzy flag and takes every other flag
// from the template.
func mergeFlags(existing, template []string) []string {
	var flags []string
	if slices.Contains(existing, "fuzzy") {
		flags = append(flags, "fuzzy")
	}
	for _, f := range template {
		if !slices.Contains(flags, f) {
			flags = append(flags, f)
		}
	}
	return flags
}
