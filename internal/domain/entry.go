package domain

// EntryKind tags the capability variant of a directory entry. The portal
// treats users and groups as the same record shape with typed accessors
// instead of a type hierarchy.
type EntryKind string

const (
	EntryGeneric EntryKind = "generic"
	EntryUser    EntryKind = "user"
	EntryGroup   EntryKind = "group"
)

// Entry is one LDAP record as seen by the portal: its DN plus the raw
// attribute multimap. Kind decides which typed accessor is meaningful.
type Entry struct {
	DN         string              `json:"dn"`
	Kind       EntryKind           `json:"kind"`
	Attributes map[string][]string `json:"attributes"`
}

// UserEntry is the typed view of a user-kind entry.
type UserEntry struct {
	DN          string
	AccountName string
	DisplayName string
	Mail        string
	Disabled    bool
}

// GroupEntry is the typed view of a group-kind entry.
type GroupEntry struct {
	DN      string
	Name    string
	Members []string
}

func (e *Entry) first(attr string) string {
	if vs := e.Attributes[attr]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// User returns the typed user view, or ok=false when the entry is not
// user-kind.
func (e *Entry) User() (UserEntry, bool) {
	if e.Kind != EntryUser {
		return UserEntry{}, false
	}
	u := UserEntry{
		DN:          e.DN,
		AccountName: e.first("uid"),
		DisplayName: e.first("displayName"),
		Mail:        e.first("mail"),
	}
	if u.AccountName == "" {
		// Active Directory schema
		u.AccountName = e.first("sAMAccountName")
	}
	if u.DisplayName == "" {
		u.DisplayName = e.first("cn")
	}
	return u, true
}

// Group returns the typed group view, or ok=false when the entry is not
// group-kind.
func (e *Entry) Group() (GroupEntry, bool) {
	if e.Kind != EntryGroup {
		return GroupEntry{}, false
	}
	g := GroupEntry{
		DN:      e.DN,
		Name:    e.first("cn"),
		Members: e.Attributes["member"],
	}
	if g.Members == nil {
		g.Members = e.Attributes["uniqueMember"]
	}
	return g, true
}
