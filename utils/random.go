package utils

import (
	"crypto/rand"
)

// CodeAlphabet excludes visually ambiguous characters (0/O, 1/I/L) so a
// session code survives being read aloud or scribbled on a napkin. This is
// a usability contract, not a security one: private and code-gated
// sessions are the access-control mechanism.
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateSessionCode returns n random characters from CodeAlphabet.
func GenerateSessionCode(n int) (string, error) {
	code := make([]byte, n)

	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < n; i++ {
		code[i] = CodeAlphabet[int(code[i])%len(CodeAlphabet)]
	}

	return string(code), nil
}
