package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating memorable student usernames
var adjectives = []string{
	"amber", "brave", "bright", "calm", "clever", "cosmic", "daring", "eager",
	"fuzzy", "gentle", "golden", "happy", "jolly", "keen", "lively", "lucky",
	"merry", "mighty", "nimble", "plucky", "quick", "quiet", "rapid", "shiny",
	"silver", "snappy", "solar", "speedy", "sturdy", "sunny", "swift", "witty",
}

var nouns = []string{
	"badger", "beacon", "comet", "dolphin", "eagle", "falcon", "fox", "glacier",
	"harbor", "heron", "lantern", "lynx", "maple", "meteor", "otter", "panda",
	"pebble", "pine", "raven", "reef", "river", "rocket", "sparrow", "summit",
	"tiger", "walnut", "willow", "wolf",
}

const passwordChars = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateStudentUsername returns a random "adjective-noun" username for
// students who sign in without an email address.
func GenerateStudentUsername() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// GenerateStudentPassword returns a random 8-character initial password.
// Ambiguous characters (0, O, 1, l, I) are excluded.
func GenerateStudentPassword() (string, error) {
	password := make([]byte, 8)
	for i := range password {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		if err != nil {
			return "", err
		}
		password[i] = passwordChars[num.Int64()]
	}
	return string(password), nil
}

func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
