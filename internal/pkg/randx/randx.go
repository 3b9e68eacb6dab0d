/*
Package randx mints identifiers and placeholder names.

Connection ids are UUID v4 strings. Guest names use a short Base62 suffix drawn from crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// GuestNamePrefix prefixes every generated display name.
	GuestNamePrefix = "Guest_"

	// GuestNameSuffixLength is the number of Base62 characters after GuestNamePrefix.
	GuestNameSuffixLength = 6
)

// ConnectionID returns a fresh UUID v4 string identifying one transport connection.
func ConnectionID() string {
	return uuid.NewString()
}

// GuestName returns a display name such as "Guest_a9Xk2B".
func GuestName() (string, error) {
	suffix, err := base62(GuestNameSuffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate guest name: %w", err)
	}

	return GuestNamePrefix + suffix, nil
}

func base62(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", err
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}
