// Package catalog holds translation catalogs: ordered collections of messages
// keyed by their source text.
//
// A Catalog is produced by extracting a survey schema and consumed when a
// schema is translated. Message order is insertion order, so catalogs written
// to disk are deterministic.
package catalog

import "slices"

// Message is one translatable string.
type Message struct {
	// ID is the source text.
	ID string
	// String is the translation; empty means untranslated.
	String string
	// AutoComments are generated context notes ("answer-id: ...").
	AutoComments []string
	// UserComments are notes for translators ("Answer for: ...").
	UserComments []string
	// Locations are the schema addresses the text was found at.
	Locations []string
	Flags     []string
	// PreviousID is the source text a fuzzy translation was made for.
	PreviousID string
	Obsolete   bool
}

// IsFuzzy reports whether the message is flagged fuzzy.
func (m *Message) IsFuzzy() bool {
	return slices.Contains(m.Flags, "fuzzy")
}

// SetFuzzy adds or removes the fuzzy flag.
func (m *Message) SetFuzzy(fuzzy bool) {
	switch {
	case fuzzy && !m.IsFuzzy():
		m.Flags = append([]string{"fuzzy"}, m.Flags...)
	case !fuzzy:
		m.Flags = slices.DeleteFunc(slices.Clone(m.Flags), func(f string) bool { return f == "fuzzy" })
		m.PreviousID = ""
	}
}

// IsTranslated reports whether the message carries a usable translation.
func (m *Message) IsTranslated() bool {
	return m.String != "" && !m.IsFuzzy() && !m.Obsolete
}

// Catalog is an insertion-ordered set of messages keyed by ID.
type Catalog struct {
	// Locale is the language of the translations, empty for templates.
	Locale string

	messages []*Message
	index    map[string]int
}

// New returns an empty catalog.
func New(locale string) *Catalog {
	return &Catalog{Locale: locale, index: make(map[string]int)}
}

// Add inserts m, or merges it into the message already stored under m.ID.
// On a merge the first message keeps its comments, locations accumulate and
// a missing translation is filled in.
func (c *Catalog) Add(m Message) *Message {
	if existing, ok := c.Get(m.ID); ok {
		for _, loc := range m.Locations {
			if !slices.Contains(existing.Locations, loc) {
				existing.Locations = append(existing.Locations, loc)
			}
		}
		if existing.String == "" {
			existing.String = m.String
		}
		return existing
	}

	msg := m
	msg.AutoComments = slices.Clone(m.AutoComments)
	msg.UserComments = slices.Clone(m.UserComments)
	msg.Locations = slices.Clone(m.Locations)
	msg.Flags = slices.Clone(m.Flags)

	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, &msg)
	return &msg
}

// Get returns the message stored under id.
func (c *Catalog) Get(id string) (*Message, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.messages[i], true
}

// Contains reports whether a message with id exists.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Delete removes the message stored under id.
func (c *Catalog) Delete(id string) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	c.messages = slices.Delete(c.messages, i, i+1)
	delete(c.index, id)
	for j := i; j < len(c.messages); j++ {
		c.index[c.messages[j].ID] = j
	}
}

// Messages returns the messages in insertion order.
func (c *Catalog) Messages() []*Message {
	if c == nil {
		return nil
	}
	return slices.Clone(c.messages)
}

// IDs returns the message ids in insertion order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.messages))
	for i, m := range c.messages {
		ids[i] = m.ID
	}
	return ids
}

// Len returns the number of messages, obsolete ones included.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.messages)
}

// Lookup returns the translation for source. Untranslated, fuzzy and obsolete
// messages report false.
func (c *Catalog) Lookup(source string) (string, bool) {
	m, ok := c.Get(source)
	if !ok || !m.IsTranslated() {
		return "", false
	}
	return m.String, true
}

// Stats counts live messages.
func (c *Catalog) Stats() (total, translated, fuzzy, untranslated int) {
	for _, m := range c.Messages() {
		if m.Obsolete {
			continue
		}
		total++
		switch {
		case m.IsFuzzy():
			fuzzy++
		case m.String != "":
			translated++
		default:
			untranslated++
		}
	}
	return
}

// Map is the simplest translation source: source text to translation.
type Map map[string]string

// Lookup implements the same contract as Catalog.Lookup.
func (m Map) Lookup(source string) (string, bool) {
	t, ok := m[source]
	return t, ok && t != ""
}
