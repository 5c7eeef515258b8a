package record

// Location column and JSON keys.
const (
	LocationUserID    = "userId"
	LocationLatitude  = "lat"
	LocationLongitude = "lon"
	LocationElevation = "elev"
	LocationTimestamp = "ts"
)

// Location is a single position report for a user. Ts is a unix timestamp in
// seconds.
type Location struct {
	ID     int64
	UserID string
	Lat    float64
	Lon    float64
	Elev   float64
	Ts     float64
}

func (l *Location) GetID() int64   { return l.ID }
func (l *Location) SetID(id int64) { l.ID = id }

func (l *Location) ToRow() Row {
	return Row{
		LocationUserID:    l.UserID,
		LocationLatitude:  l.Lat,
		LocationLongitude: l.Lon,
		LocationElevation: l.Elev,
		LocationTimestamp: l.Ts,
	}
}

func (l *Location) ToJSON() Payload {
	p := Payload(l.ToRow())
	if l.ID != 0 {
		p[KeyID] = l.ID
	}
	return p
}

// LocationFromRow builds a Location from a stored row, including its id.
func LocationFromRow(row Row) (*Location, error) {
	id, err := idField(row)
	if err != nil {
		return nil, err
	}
	l, err := decodeLocation(row, false)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return l, nil
}

// LocationFromJSON builds a new, unpersisted Location from a request payload.
// Elevation may be omitted and defaults to zero.
func LocationFromJSON(p Payload) (*Location, error) {
	return decodeLocation(p, true)
}

func decodeLocation(src map[string]any, elevOptional bool) (*Location, error) {
	var (
		l   Location
		err error
	)
	if l.UserID, err = stringField(src, LocationUserID); err != nil {
		return nil, err
	}
	if l.Lat, err = floatField(src, LocationLatitude); err != nil {
		return nil, err
	}
	if l.Lon, err = floatField(src, LocationLongitude); err != nil {
		return nil, err
	}
	if elevOptional {
		l.Elev, err = optionalFloatField(src, LocationElevation, 0)
	} else {
		l.Elev, err = floatField(src, LocationElevation)
	}
	if err != nil {
		return nil, err
	}
	if l.Ts, err = floatField(src, LocationTimestamp); err != nil {
		return nil, err
	}
	return &l, nil
}

// Locations describes the locations table and resource. The owning user of a
// location is fixed at creation, so userId is not a partial-update key.
var Locations = &Kind[*Location]{
	Name:  "location",
	Table: "locations",
	Columns: []Column{
		{Name: LocationUserID, Type: "TEXT NOT NULL", JSON: JSONString},
		{Name: LocationLatitude, Type: "DOUBLE PRECISION NOT NULL", JSON: JSONNumber},
		{Name: LocationLongitude, Type: "DOUBLE PRECISION NOT NULL", JSON: JSONNumber},
		{Name: LocationElevation, Type: "DOUBLE PRECISION NOT NULL DEFAULT 0", JSON: JSONNumber, Optional: true},
		{Name: LocationTimestamp, Type: "DOUBLE PRECISION NOT NULL", JSON: JSONNumber},
	},
	FromRow:  LocationFromRow,
	FromJSON: LocationFromJSON,
	Updaters: map[string]Setter[*Location]{
		LocationLatitude:  FloatSetter(LocationLatitude, func(l *Location, v float64) { l.Lat = v }),
		LocationLongitude: FloatSetter(LocationLongitude, func(l *Location, v float64) { l.Lon = v }),
		LocationElevation: FloatSetter(LocationElevation, func(l *Location, v float64) { l.Elev = v }),
		LocationTimestamp: FloatSetter(LocationTimestamp, func(l *Location, v float64) { l.Ts = v }),
	},
	Replace: func(dst, src *Location) {
		dst.UserID = src.UserID
		dst.Lat = src.Lat
		dst.Lon = src.Lon
		dst.Elev = src.Elev
		dst.Ts = src.Ts
	},
}
