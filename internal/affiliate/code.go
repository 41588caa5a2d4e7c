package affiliate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var codeRe = regexp.MustCompile(`^[A-Z0-9]{4,20}$`)

func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func ValidateCode(code string) error {
	if !codeRe.MatchString(code) {
		return fmt.Errorf("%w: code must be 4 to 20 letters or digits", ErrInvalid)
	}
	return nil
}

// GenerateCode derives a code from the affiliate's name plus a random suffix,
// e.g. "Maria Souza" -> "MARIASOU3F9A".
func GenerateCode(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return b.String() + suffix
}
