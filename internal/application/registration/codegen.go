package registration

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/baechuer/admin-portal/internal/domain"
)

const (
	codeMin    = 1000
	codeMax    = 9999
	CodeLength = 4

	DefaultCodeTTL = 10 * time.Minute
)

// CodeGenerator issues 4-digit one-time codes.
// The code space is 9000 values; guessing is bounded only by the HTTP rate limits.
type CodeGenerator struct {
	ttl  time.Duration
	now  func() time.Time
	rand io.Reader
}

func NewCodeGenerator(ttl time.Duration, now func() time.Time) *CodeGenerator {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &CodeGenerator{ttl: ttl, now: now, rand: rand.Reader}
}

// TTL is the validity window of issued codes.
func (g *CodeGenerator) TTL() time.Duration { return g.ttl }

// Issue returns a fresh challenge: uniform code in [1000, 9999], expiring ttl from now.
func (g *CodeGenerator) Issue() (domain.VerificationChallenge, error) {
	n, err := rand.Int(g.rand, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return domain.VerificationChallenge{}, domain.ErrRandomFailed(err)
	}
	now := g.now()
	return domain.VerificationChallenge{
		Code:      fmt.Sprintf("%04d", n.Int64()+codeMin),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.ttl),
	}, nil
}

// NormalizeCode keeps digits only and truncates to CodeLength, like the code input box.
func NormalizeCode(in string) string {
	var b strings.Builder
	for _, r := range in {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == CodeLength {
			break
		}
	}
	return b.String()
}
