package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPlan = "tickflow/plan/v1"
	DomainTick = "tickflow/tick/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PlanHash computes the content-addressed identity of a compiled plan from
// its canonical form. Two compilations of the same source yield the same
// hash.
func PlanHash(canonical map[string]any) (string, error) {
	data, err := MarshalCanonical(canonical)
	if err != nil {
		return "", fmt.Errorf("PlanHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, data), nil
}

// TickHash computes the identity of one recorded tick. It chains the
// previous tick's hash so a trace cannot be reordered or truncated in the
// middle without detection.
func TickHash(prev string, seq int64, inputs, outputs, registers IRObject) (string, error) {
	obj := IRObject{
		"prev":      IRString(prev),
		"seq":       IRInt(seq),
		"inputs":    inputs,
		"outputs":   outputs,
		"registers": registers,
	}

	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TickHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTick, data), nil
}

// MustTickHash is like TickHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTickHash(prev string, seq int64, inputs, outputs, registers IRObject) string {
	h, err := TickHash(prev, seq, inputs, outputs, registers)
	if err != nil {
		panic(err)
	}
	return h
}
