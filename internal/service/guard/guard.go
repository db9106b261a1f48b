package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

// Guard owns the identity text and screens user input before it can reach
// the model.
type Guard struct {
	identityPath string

	mu       sync.RWMutex
	identity string
	hash     string
	cfg      Config
}

type Stats struct {
	IdentityFile      string `json:"identity_file"`
	Loaded            bool   `json:"loaded"`
	Length            int    `json:"length"`
	Hash              string `json:"hash"`
	Patterns          int    `json:"patterns"`
	IntegrityVerified bool   `json:"integrity_verified"`
}

// New reads the identity file. Without it the agent cannot run, so any read
// failure is reported as core.ErrIdentityMissing.
func New(ctx context.Context, identityPath string, cfg Config) (*Guard, error) {
	content, err := os.ReadFile(identityPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrIdentityMissing, identityPath, err)
	}

	g := &Guard{
		identityPath: identityPath,
		identity:     string(content),
		hash:         hashContent(content),
		cfg:          cfg.normalize(),
	}

	log.FromCtx(ctx).Info().
		Str("identity", identityPath).
		Str("hash", shortHash(g.hash)).
		Int("patterns", len(g.cfg.Patterns)).
		Msg("guard initialized")

	return g, nil
}

// Detect reports whether input contains a known injection phrase and which
// one matched first.
func (g *Guard) Detect(input string) (bool, string) {
	lower := strings.ToLower(input)

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, p := range g.cfg.Patterns {
		if strings.Contains(lower, p) {
			return true, p
		}
	}
	return false, ""
}

// RejectResponse picks a canned refusal. The same pattern always yields the
// same response.
func (g *Guard) RejectResponse(pattern string) string {
	g.mu.RLock()
	responses := g.cfg.Responses
	g.mu.RUnlock()

	h := fnv.New64a()
	h.Write([]byte(pattern))
	rnd := rand.New(rand.NewSource(int64(h.Sum64())))

	return responses[rnd.Intn(len(responses))]
}

// SystemPrompt returns the identity text verbatim.
func (g *Guard) SystemPrompt() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity
}

func (g *Guard) Hash() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hash
}

// VerifyIntegrity rehashes the identity file. On a mismatch it adopts the new
// content and returns false. A read failure keeps the current content and
// also returns false.
func (g *Guard) VerifyIntegrity(ctx context.Context) bool {
	logger := log.FromCtx(ctx)

	content, err := os.ReadFile(g.identityPath)
	if err != nil {
		logger.Error().Err(err).Str("identity", g.identityPath).Msg("failed to verify identity integrity")
		return false
	}

	current := hashContent(content)

	g.mu.Lock()
	defer g.mu.Unlock()

	if current == g.hash {
		return true
	}

	logger.Warn().
		Str("identity", g.identityPath).
		Str("previous_hash", shortHash(g.hash)).
		Str("current_hash", shortHash(current)).
		Msg("identity file has been modified")

	g.identity = string(content)
	g.hash = current
	return false
}

// Reload swaps the matching policy and rechecks the identity file.
func (g *Guard) Reload(ctx context.Context, cfg Config) bool {
	cfg = cfg.normalize()

	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()

	log.FromCtx(ctx).Info().Int("patterns", len(cfg.Patterns)).Msg("guard config reloaded")
	return g.VerifyIntegrity(ctx)
}

func (g *Guard) Stats(ctx context.Context) Stats {
	verified := g.VerifyIntegrity(ctx)

	g.mu.RLock()
	defer g.mu.RUnlock()

	return Stats{
		IdentityFile:      g.identityPath,
		Loaded:            g.identity != "",
		Length:            len([]rune(g.identity)),
		Hash:              g.hash,
		Patterns:          len(g.cfg.Patterns),
		IntegrityVerified: verified,
	}
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
