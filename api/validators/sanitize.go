package validators

import (
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
)

// CleanField trims input and drops control characters. Values longer than
// maxLen after cleaning are rejected, never cut.
func CleanField(field, input string, maxLen int) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxLen > 0 && len(cleaned) > maxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{field: "must be at most " + strconv.Itoa(maxLen) + " characters"})
	}
	return cleaned, nil
}
