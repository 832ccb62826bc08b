package watcher

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
)

// Fingerprint is the serialized form of the change-relevant order fields.
// Stored per order UUID in the session state store so a watcher restart does
// not treat already-seen states as new. It parses back into fields so the
// classifier can diff individual slices like banking presence.
type Fingerprint struct {
	Status          string  `json:"st"`
	BankAccountName string  `json:"ban"`
	BankAccountNo   string  `json:"bac"`
	IFSCCode        string  `json:"ifsc"`
	UPIID           string  `json:"upi"`
	Quantity        float64 `json:"qty"`
	UnitPrice       float64 `json:"up"`
	FeePercent      float64 `json:"fee"`
	PaymentDeadline int64   `json:"pd"` // unix seconds, 0 when unset
	ExpiresAt       int64   `json:"exp"`
}

// ComputeFingerprint serializes the change-relevant fields of a snapshot.
// The encoding is deterministic: identical snapshots produce identical
// strings.
func ComputeFingerprint(s Snapshot) string {
	fp := Fingerprint{
		Status:          s.Status,
		BankAccountName: strings.TrimSpace(s.BankAccountName),
		BankAccountNo:   strings.TrimSpace(s.BankAccountNo),
		IFSCCode:        strings.TrimSpace(s.IFSCCode),
		UPIID:           strings.TrimSpace(s.UPIID),
		Quantity:        s.Quantity,
		UnitPrice:       s.UnitPrice,
		FeePercent:      s.FeePercent,
		PaymentDeadline: unixOrZero(s.PaymentDeadline),
		ExpiresAt:       unixOrZero(s.ExpiresAt),
	}

	data, err := json.Marshal(fp)
	if err != nil {
		// Marshal of a flat struct cannot fail in practice; fall back to a
		// status-only form so change detection keeps working.
		return fmt.Sprintf(`{"st":%q}`, s.Status)
	}
	return string(data)
}

// ParseFingerprint decodes a stored fingerprint back into fields.
func ParseFingerprint(raw string) (Fingerprint, error) {
	var fp Fingerprint
	if raw == "" {
		return fp, fmt.Errorf("empty fingerprint")
	}
	if err := json.Unmarshal([]byte(raw), &fp); err != nil {
		return fp, fmt.Errorf("malformed fingerprint: %w", err)
	}
	return fp, nil
}

// HasBanking reports whether the fingerprinted state had banking details.
func (f Fingerprint) HasBanking() bool {
	return f.BankAccountName != "" || f.BankAccountNo != "" || f.IFSCCode != "" || f.UPIID != ""
}

// IsTerminal reports whether the fingerprinted status was final.
func (f Fingerprint) IsTerminal() bool {
	return f.Status == models.ORDER_STATUS_COMPLETED || f.Status == models.ORDER_STATUS_CANCELLED
}

// fingerprintDigest shortens a fingerprint to a hash suitable for use as a
// dedup key disambiguator: identical states collapse to the same key, any
// field change produces a fresh one.
func fingerprintDigest(fingerprint string) string {
	h := fnv.New64a()
	h.Write([]byte(fingerprint))
	return fmt.Sprintf("%016x", h.Sum64())
}

func unixOrZero(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.Unix()
}
