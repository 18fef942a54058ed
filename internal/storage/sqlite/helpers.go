package sqlite

import (
	"encoding/json"
	"time"

	"github.com/msivakumar/duetrack/internal/dues"
)

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Staff lives as a JSON array column; a join table buys nothing for a list
// that is always read and written whole.
func marshalStaff(staff []dues.StaffMember) (string, error) {
	if staff == nil {
		staff = []dues.StaffMember{}
	}
	b, err := json.Marshal(staff)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStaff(raw string, dst *[]dues.StaffMember) error {
	if raw == "" {
		*dst = []dues.StaffMember{}
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
