package record

// Group column and JSON keys.
const (
	GroupName  = "name"
	GroupUsers = "users"
)

// Group is a named, ordered list of user ids.
type Group struct {
	ID    int64
	Name  string
	Users []string
}

func (g *Group) GetID() int64   { return g.ID }
func (g *Group) SetID(id int64) { g.ID = id }

func (g *Group) ToRow() Row {
	return Row{
		GroupName:  g.Name,
		GroupUsers: g.members(),
	}
}

func (g *Group) ToJSON() Payload {
	p := Payload(g.ToRow())
	if g.ID != 0 {
		p[KeyID] = g.ID
	}
	return p
}

// members returns a copy of Users that is never nil, so an empty group is
// stored as an empty array and encoded as [] rather than null.
func (g *Group) members() []string {
	out := make([]string, len(g.Users))
	copy(out, g.Users)
	return out
}

// GroupFromRow builds a Group from a stored row, including its id.
func GroupFromRow(row Row) (*Group, error) {
	id, err := idField(row)
	if err != nil {
		return nil, err
	}
	g, err := GroupFromJSON(Payload(row))
	if err != nil {
		return nil, err
	}
	g.ID = id
	return g, nil
}

// GroupFromJSON builds a new, unpersisted Group from a request payload.
func GroupFromJSON(p Payload) (*Group, error) {
	name, err := stringField(p, GroupName)
	if err != nil {
		return nil, err
	}
	users, err := stringsField(p, GroupUsers)
	if err != nil {
		return nil, err
	}
	return &Group{Name: name, Users: users}, nil
}

// Groups describes the groups table and resource.
var Groups = &Kind[*Group]{
	Name:  "group",
	Table: "groups",
	Columns: []Column{
		{Name: GroupName, Type: "TEXT NOT NULL", JSON: JSONString},
		{Name: GroupUsers, Type: "TEXT[] NOT NULL DEFAULT '{}'", JSON: JSONStrings},
	},
	FromRow:  GroupFromRow,
	FromJSON: GroupFromJSON,
	Updaters: map[string]Setter[*Group]{
		GroupName:  StringSetter(GroupName, func(g *Group, v string) { g.Name = v }),
		GroupUsers: StringsSetter(GroupUsers, func(g *Group, v []string) { g.Users = v }),
	},
	Replace: func(dst, src *Group) {
		dst.Name = src.Name
		dst.Users = src.members()
	},
}
