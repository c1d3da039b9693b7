package a

import (
	"crypto/rand"
	mathrand "math/rand" // want "use internal/randstr instead of math/rand"
)

func shortKey() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return string(buf[:mathrand.Intn(len(buf))])
}
