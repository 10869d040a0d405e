package provision

import "math/rand/v2"

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newRandomPassword generates an alphanumeric password with a length
// uniformly chosen in [10,15].
func newRandomPassword() string {
	length := 10 + rand.IntN(6)
	password := make([]byte, length)
	for i := range password {
		password[i] = passwordCharset[rand.IntN(len(passwordCharset))]
	}
	return string(password)
}
