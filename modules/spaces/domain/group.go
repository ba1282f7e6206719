package domain

import (
	"sort"
	"strings"
)

// Group is an access group expression: anyone, or the union of persistent groups.
// The zero value is the nobody group.
type Group struct {
	Anyone  bool     `json:"anyone,omitempty"`
	Members []string `json:"members,omitempty"`
}

func Nobody() Group { return Group{} }

func Anyone() Group { return Group{Anyone: true} }

func GroupOf(xid string) Group {
	return Group{Members: []string{xid}}
}

func (g Group) Or(o Group) Group {
	if g.Anyone || o.Anyone {
		return Anyone()
	}
	seen := make(map[string]struct{}, len(g.Members)+len(o.Members))
	members := make([]string, 0, len(g.Members)+len(o.Members))
	for _, m := range append(append([]string{}, g.Members...), o.Members...) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		members = append(members, m)
	}
	sort.Strings(members)
	if len(members) == 0 {
		return Nobody()
	}
	return Group{Members: members}
}

func (g Group) Equal(o Group) bool {
	if g.Anyone != o.Anyone || len(g.Members) != len(o.Members) {
		return false
	}
	for i := range g.Members {
		if g.Members[i] != o.Members[i] {
			return false
		}
	}
	return true
}

func (g Group) IsNobody() bool {
	return g.Equal(Nobody())
}

func (g Group) Expression() string {
	switch {
	case g.Anyone:
		return "anyone"
	case len(g.Members) == 0:
		return "nobody"
	}
	return strings.Join(g.Members, " | ")
}

type GroupKind string

const (
	GroupKindNobody GroupKind = "nobody"
	GroupKindAnyone GroupKind = "anyone"
	GroupKindCustom GroupKind = "custom"
)

// PersistentGroup is a legacy group object addressed by XID.
type PersistentGroup struct {
	XID     string    `json:"xid"`
	Kind    GroupKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Deleted bool      `json:"deleted,omitempty"`
}

func (p PersistentGroup) Valid() bool {
	return p.XID != "" && !p.Deleted
}

func (p PersistentGroup) ToGroup() Group {
	switch p.Kind {
	case GroupKindNobody:
		return Nobody()
	case GroupKindAnyone:
		return Anyone()
	default:
		return GroupOf(p.XID)
	}
}
