package fixmsg

import (
	"strconv"
	"strings"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
)

const soh = '\x01'

// Field is a single tag=value pair in wire order.
type Field struct {
	Tag   quickfix.Tag
	Value string
}

// Fields splits a raw FIX message into its tag=value pairs in wire order.
// Malformed pairs are skipped.
func Fields(raw string) []Field {
	fields := make([]Field, 0, strings.Count(raw, string(soh))+1)
	for len(raw) > 0 {
		var pair string
		if i := strings.IndexByte(raw, soh); i >= 0 {
			pair, raw = raw[:i], raw[i+1:]
		} else {
			pair, raw = raw, ""
		}
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		n, err := strconv.Atoi(pair[:eq])
		if err != nil {
			continue
		}
		fields = append(fields, Field{Tag: quickfix.Tag(n), Value: pair[eq+1:]})
	}
	return fields
}

// FieldsOf returns the wire fields of msg.
func FieldsOf(msg *quickfix.Message) []Field {
	return Fields(msg.String())
}

// after returns the fields following the first occurrence of countTag along
// with the advertised count. ok is false when countTag is absent or not a number.
func after(fields []Field, countTag quickfix.Tag) ([]Field, int, bool) {
	for i, f := range fields {
		if f.Tag != countTag {
			continue
		}
		n, err := strconv.Atoi(f.Value)
		if err != nil || n < 0 {
			return nil, 0, false
		}
		return fields[i+1:], n, true
	}
	return nil, 0, false
}

// GroupValues collects the values of member inside the repeating group
// introduced by countTag, stopping once the advertised count is reached.
// The advertised count is returned alongside.
func GroupValues(fields []Field, countTag, member quickfix.Tag) ([]string, int) {
	rest, n, ok := after(fields, countTag)
	if !ok {
		return nil, 0
	}
	values := make([]string, 0, n)
	for _, f := range rest {
		if len(values) == n {
			break
		}
		if f.Tag == member {
			values = append(values, f.Value)
		}
	}
	return values, n
}

// PartySubID is one entry of a NoPartySubIDs group.
type PartySubID struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
}

// Party is one entry of a NoPartyIDs group.
type Party struct {
	ID     string       `json:"id"`
	Source string       `json:"source,omitempty"`
	Role   int          `json:"role"`
	SubIDs []PartySubID `json:"subIds,omitempty"`
}

// Parties decodes the NoPartyIDs group with its nested sub ids.
func Parties(fields []Field) []Party {
	rest, n, ok := after(fields, tag.NoPartyIDs)
	if !ok || n == 0 {
		return nil
	}

	parties := make([]Party, 0, n)
	for _, f := range rest {
		switch f.Tag {
		case tag.PartyID:
			if len(parties) == n {
				return parties
			}
			parties = append(parties, Party{ID: f.Value})
		case tag.PartyIDSource, tag.PartyRole, tag.NoPartySubIDs, tag.PartySubID, tag.PartySubIDType:
			if len(parties) == 0 {
				return parties
			}
			p := &parties[len(parties)-1]
			switch f.Tag {
			case tag.PartyIDSource:
				p.Source = f.Value
			case tag.PartyRole:
				p.Role, _ = strconv.Atoi(f.Value)
			case tag.PartySubID:
				p.SubIDs = append(p.SubIDs, PartySubID{ID: f.Value})
			case tag.PartySubIDType:
				if len(p.SubIDs) > 0 {
					p.SubIDs[len(p.SubIDs)-1].Type, _ = strconv.Atoi(f.Value)
				}
			}
		default:
			return parties
		}
	}
	return parties
}

// MDEntry is one entry of a NoMDEntries group.
type MDEntry struct {
	Type  string
	Price string
}

// MDEntries decodes type and price of each NoMDEntries entry.
func MDEntries(fields []Field) []MDEntry {
	rest, n, ok := after(fields, tag.NoMDEntries)
	if !ok {
		return nil
	}
	entries := make([]MDEntry, 0, n)
	for _, f := range rest {
		switch f.Tag {
		case tag.MDEntryType:
			if len(entries) == n {
				return entries
			}
			entries = append(entries, MDEntry{Type: f.Value})
		case tag.MDEntryPx:
			if len(entries) > 0 {
				entries[len(entries)-1].Price = f.Value
			}
		}
	}
	return entries
}
