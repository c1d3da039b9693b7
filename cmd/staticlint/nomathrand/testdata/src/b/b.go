package b

import "crypto/rand"

func token() []byte {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return buf
}
