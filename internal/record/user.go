package record

// User column and JSON keys.
const (
	UserName = "name"
)

// User is a named account.
type User struct {
	ID   int64
	Name string
}

func (u *User) GetID() int64   { return u.ID }
func (u *User) SetID(id int64) { u.ID = id }

func (u *User) ToRow() Row {
	return Row{UserName: u.Name}
}

func (u *User) ToJSON() Payload {
	p := Payload{UserName: u.Name}
	if u.ID != 0 {
		p[KeyID] = u.ID
	}
	return p
}

// UserFromRow builds a User from a stored row, including its id.
func UserFromRow(row Row) (*User, error) {
	id, err := idField(row)
	if err != nil {
		return nil, err
	}
	name, err := stringField(row, UserName)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Name: name}, nil
}

// UserFromJSON builds a new, unpersisted User from a request payload.
func UserFromJSON(p Payload) (*User, error) {
	name, err := stringField(p, UserName)
	if err != nil {
		return nil, err
	}
	return &User{Name: name}, nil
}

// Users describes the users table and resource.
var Users = &Kind[*User]{
	Name:  "user",
	Table: "users",
	Columns: []Column{
		{Name: UserName, Type: "TEXT NOT NULL", JSON: JSONString},
	},
	FromRow:  UserFromRow,
	FromJSON: UserFromJSON,
	Updaters: map[string]Setter[*User]{
		UserName: StringSetter(UserName, func(u *User, v string) { u.Name = v }),
	},
	Replace: func(dst, src *User) {
		dst.Name = src.Name
	},
}
