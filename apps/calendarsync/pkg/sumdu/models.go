package sumdu

import (
	"bytes"
	"encoding/json"
)

// Record is one row of the schedule feed. Only the fields used for
// calendar events are decoded.
type Record struct {
	NameDisc Text `json:"NAME_DISC"`
	DateReg  Text `json:"DATE_REG"`
	TimePair Text `json:"TIME_PAIR"`
	NameAud  Text `json:"NAME_AUD"`
	NameFio  Text `json:"NAME_FIO"`
	NameStud Text `json:"NAME_STUD"`
	Comment  Text `json:"COMMENT"`
}

// Text accepts JSON strings, numbers and null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}
