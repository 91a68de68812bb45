package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashWithDomainFormat(t *testing.T) {
	data := []byte(`{"a":1}`)

	h := sha256.New()
	h.Write([]byte(DomainPlan))
	h.Write([]byte{0x00})
	h.Write(data)
	want := hex.EncodeToString(h.Sum(nil))

	assert.Equal(t, want, hashWithDomain(DomainPlan, data))
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainPlan, data), hashWithDomain(DomainTick, data))
}

func TestPlanHashDeterminism(t *testing.T) {
	plan := map[string]any{
		"module":        "Accumulator",
		"combinational": []any{map[string]any{"name": "output", "expr": "(input + prev)"}},
	}

	h1, err := PlanHash(plan)
	require.NoError(t, err)
	h2, err := PlanHash(plan)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")

	plan["module"] = "Other"
	h3, err := PlanHash(plan)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestTickHashChains(t *testing.T) {
	in := IRObject{"input": IRInt(1)}
	out := IRObject{"output": IRInt(1)}
	regs := IRObject{"prev": IRInt(1)}

	first := MustTickHash("", 1, in, out, regs)
	second := MustTickHash(first, 2, in, out, regs)
	unchained := MustTickHash("", 2, in, out, regs)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, unchained, "previous hash is part of the identity")
	assert.Equal(t, second, MustTickHash(first, 2, in, out, regs))
}

func TestTickHashRejectsNaN(t *testing.T) {
	_, err := TickHash("", 1, IRObject{"x": IRFloat(math.NaN())}, IRObject{}, IRObject{})
	assert.Error(t, err)
}
