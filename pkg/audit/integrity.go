package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ComputeIntegrityHash returns the hex SHA-256 of the record's write-once
// fields. Outcome and IntegrityHash itself are excluded.
func ComputeIntegrityHash(r *Record) (string, error) {
	frozen := *r
	frozen.Outcome = OutcomeTracking{}
	frozen.IntegrityHash = ""

	data, err := json.Marshal(&frozen)
	if err != nil {
		return "", fmt.Errorf("failed to encode record %s: %w", r.DecisionID, err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Seal computes and stores the record's integrity hash.
func Seal(r *Record) error {
	h, err := ComputeIntegrityHash(r)
	if err != nil {
		return err
	}
	r.IntegrityHash = h
	return nil
}

// VerifyIntegrity returns ErrIntegrityMismatch if the record's write-once
// fields changed since it was sealed.
func VerifyIntegrity(r *Record) error {
	h, err := ComputeIntegrityHash(r)
	if err != nil {
		return err
	}
	if h != r.IntegrityHash {
		return fmt.Errorf("%w: decision %s", ErrIntegrityMismatch, r.DecisionID)
	}
	return nil
}
