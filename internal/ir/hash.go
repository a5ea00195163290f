package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainNode     = "polyexpr/node/v1"
	DomainOperator = "polyexpr/operator/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a stable hash of a tree's structure. Node IDs and
// positions are excluded, so a tree and its clone share a fingerprint.
func Fingerprint(n Node) (string, error) {
	data, err := MarshalNode(n)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, data), nil
}

// OperatorFingerprint identifies a descriptor by its static metadata.
func OperatorFingerprint(op *Operator) string {
	params := make(Array, len(op.ParamTypes))
	for i, t := range op.ParamTypes {
		params[i] = Text(t.String())
	}
	obj := Object{
		"name":       Text(op.Name),
		"kind":       Text(op.Kind.String()),
		"syntax":     Text(op.Syntax.String()),
		"category":   Text(op.Category.String()),
		"left_prec":  Int(op.LeftPrec),
		"right_prec": Int(op.RightPrec),
		"params":     params,
	}
	data, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainOperator, data)
}
