package password

import "golang.org/x/crypto/bcrypt"

func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Matches reports whether plain verifies against hash. An empty or malformed hash never matches.
func Matches(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return Compare(hash, plain) == nil
}
