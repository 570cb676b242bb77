package workflow

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

// ReferenceGenerator issues short, human-readable campaign reference
// codes for launch confirmations. Codes are unique per process; they
// are a support handle, not a security token.
type ReferenceGenerator struct {
	h       *hashids.HashID
	counter uint64
}

func NewReferenceGenerator(salt string) (*ReferenceGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = "abcdefghijklmnopqrstuvwxyz123456789"

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &ReferenceGenerator{h: h}, nil
}

func (g *ReferenceGenerator) Generate() string {
	n := atomic.AddUint64(&g.counter, 1)
	code, err := g.h.EncodeInt64([]int64{time.Now().Unix(), int64(n)})
	if err != nil {
		// EncodeInt64 only fails on empty input, which cannot happen here.
		return "AD-UNKNOWN"
	}
	return "AD-" + strings.ToUpper(code)
}
