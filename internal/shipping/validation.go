package shipping

import (
	"regexp"
	"strings"

	domain "github.com/footprint-shop/api/internal/domain"
)

// israeliCities lists the recognised destination cities, English and
// Hebrew.
var israeliCities = []string{
	"Tel Aviv",
	"Jerusalem",
	"Haifa",
	"Rishon LeZion",
	"Petah Tikva",
	"Ashdod",
	"Netanya",
	"Beer Sheva",
	"Holon",
	"Bnei Brak",
	"Ramat Gan",
	"Bat Yam",
	"Rehovot",
	"Ashkelon",
	"Herzliya",
	"Kfar Saba",
	"Hadera",
	"Modiin",
	"Nazareth",
	"Lod",
	"Ramla",
	"Raanana",
	"Givatayim",
	"Eilat",
	"תל אביב",
	"ירושלים",
	"חיפה",
	"ראשון לציון",
	"פתח תקווה",
	"אשדוד",
	"נתניה",
	"באר שבע",
	"חולון",
	"בני ברק",
	"רמת גן",
	"בת ים",
	"רחובות",
	"אשקלון",
	"הרצליה",
	"כפר סבא",
	"חדרה",
	"מודיעין",
	"נצרת",
	"לוד",
	"רמלה",
	"רעננה",
	"גבעתיים",
	"אילת",
}

var cityIndex = func() map[string]struct{} {
	index := make(map[string]struct{}, len(israeliCities))
	for _, city := range israeliCities {
		index[normalizeCity(city)] = struct{}{}
	}
	return index
}()

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// IsKnownCity reports whether city is a recognised Israeli city, in either
// language, case-insensitively.
func IsKnownCity(city string) bool {
	if strings.TrimSpace(city) == "" {
		return false
	}
	_, ok := cityIndex[normalizeCity(city)]
	return ok
}

var (
	postalCodePattern = regexp.MustCompile(`^\d{7}$`)

	// Israeli phone formats: 05X mobiles, 0X landlines (area codes 02-09),
	// and +972 international numbers.
	mobilePhonePattern        = regexp.MustCompile(`^05[0-9]-?[0-9]{7}$`)
	landlinePhonePattern      = regexp.MustCompile(`^0[2-9]-?[0-9]{7}$`)
	internationalPhonePattern = regexp.MustCompile(`^\+?972-?[0-9]-?[0-9]{7,8}$`)
)

// ValidPostalCode reports whether raw is a 7-digit Israeli postal code.
// Spaces are ignored.
func ValidPostalCode(raw string) bool {
	cleaned := strings.ReplaceAll(raw, " ", "")
	return postalCodePattern.MatchString(cleaned)
}

// ValidPhone reports whether raw is a plausible Israeli phone number,
// domestic or international.
func ValidPhone(raw string) bool {
	spaceless := strings.ReplaceAll(raw, " ", "")
	if mobilePhonePattern.MatchString(spaceless) || landlinePhonePattern.MatchString(spaceless) {
		return true
	}
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(raw)
	return internationalPhonePattern.MatchString(cleaned)
}

// FormatPhone normalises a phone number to the XXX-XXXXXXX domestic form.
// Numbers it cannot normalise come back unchanged.
func FormatPhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if strings.HasPrefix(digits, "972") {
		digits = "0" + digits[3:]
	}
	if len(digits) == 10 && strings.HasPrefix(digits, "0") {
		return digits[:3] + "-" + digits[3:]
	}
	return raw
}

// FieldErrors maps address field names to a validation message. An empty
// map means the address is valid.
type FieldErrors map[string]string

// ValidateAddress checks a recipient address for shipping. Name, street,
// a recognised city, and a valid postal code are required; phone is checked
// only when present.
func ValidateAddress(addr domain.Address) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(addr.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(addr.Street) == "" {
		errs["street"] = "Street address is required"
	}
	switch {
	case strings.TrimSpace(addr.City) == "":
		errs["city"] = "City is required"
	case !IsKnownCity(addr.City):
		errs["city"] = "City not recognized"
	}
	if !ValidPostalCode(addr.PostalCode) {
		errs["postalCode"] = "Postal code must be 7 digits"
	}
	if addr.Phone != "" && !ValidPhone(addr.Phone) {
		errs["phone"] = "Invalid Israeli phone number"
	}
	return errs
}
