package extract

import "regexp"

const emailPattern = `[a-zA-Z0-9._%+-]{1,64}@[a-zA-Z0-9.-]{1,255}\.[A-Za-z0-9-]{2,}`

// EmailRE finds email addresses embedded in text.
var EmailRE = regexp.MustCompile(`\b` + emailPattern + `\b`)

// emailExactRE validates a whole string as an email address; used for
// mailto: targets where the address stands alone.
var emailExactRE = regexp.MustCompile(`^` + emailPattern + `$`)

// ValidEmail reports whether s as a whole is an email address.
func ValidEmail(s string) bool {
	return emailExactRE.MatchString(s)
}
