package rfid

// Record is the live attendance document at RFID_Cards/{uid}, field names
// exactly as the reader integration writes them. TimeOut present or absent
// is the only signal the room-status derivation consumes.
type Record struct {
	UID       string `json:"UID"`
	Name      string `json:"Name"`
	Institute string `json:"Institute"`
	Building  string `json:"Building"`
	Room      string `json:"Room"`
	TimeIn    string `json:"TimeIn"`
	TimeOut   string `json:"TimeOut"`
}

// Open reports whether the record is an in-progress visit.
func (r Record) Open() bool {
	return r.TimeIn != "" && r.TimeOut == ""
}
