package users

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used for numbers written without a country code.
const DefaultPhoneRegion = "BR"

// NormalizePhone returns raw in E.164 form. An empty input stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", ErrInvalidPhone
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func phoneRule(region string) func(value any) error {
	return func(value any) error {
		var raw string
		switch v := value.(type) {
		case string:
			raw = v
		case *string:
			if v == nil {
				return nil
			}
			raw = *v
		default:
			return nil
		}
		if _, err := NormalizePhone(raw, region); err != nil {
			return ErrInvalidPhone
		}
		return nil
	}
}
