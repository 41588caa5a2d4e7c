package db

import "github.com/google/uuid"

// ValidID reports whether id is a canonical uuid. Ids that are not would make
// PostgreSQL reject the whole query on a uuid column, so repositories treat
// them as rows that do not exist.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
