package validation

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// IsValidMobile reports whether number is a real phone number under the
// international dialing code isdCode ("+91", "91", "+1", ...). A number
// written in international form must carry that same country code.
func IsValidMobile(number, isdCode string) bool {
	code, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(isdCode), "+"))
	if err != nil || code <= 0 {
		return false
	}

	region := phonenumbers.GetRegionCodeForCountryCode(code)
	if region == "" || region == "ZZ" {
		return false
	}

	parsed, err := phonenumbers.Parse(strings.TrimSpace(number), region)
	if err != nil {
		return false
	}
	if int(parsed.GetCountryCode()) != code {
		return false
	}
	return phonenumbers.IsValidNumber(parsed)
}
