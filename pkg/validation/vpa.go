package validation

import "regexp"

// username@bankhandle; alphanumeric plus . and - before the @, letters after.
var vpaRegex = regexp.MustCompile(`^[a-zA-Z0-9.-]{2,256}@[a-zA-Z]{2,64}$`)

// ValidVPA reports whether s is a well-formed UPI virtual payment address.
func ValidVPA(s string) bool {
	return vpaRegex.MatchString(s)
}
