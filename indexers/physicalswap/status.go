package physicalswap

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrUnknownChargeStatus is returned when the contract reports a status code outside the catalog.
var ErrUnknownChargeStatus = errors.New("unknown charge status")

// ChargeStatus is the escrow state of a charge as reported by getChargeStatus.
type ChargeStatus uint8

const (
	StatusUninitialized ChargeStatus = iota
	StatusSuspense
	StatusOkToDeliver
	StatusOkToPayout
	StatusOkToRefund
	StatusScavenging
)

var statusNames = [...]string{
	StatusUninitialized: "UNINITIALIZED",
	StatusSuspense:      "SUSPENSE",
	StatusOkToDeliver:   "OK_TO_DELIVER",
	StatusOkToPayout:    "OK_TO_PAYOUT",
	StatusOkToRefund:    "OK_TO_REFUND",
	StatusScavenging:    "SCAVENGING",
}

// ParseChargeStatus converts a raw on-chain status code.
// Codes outside the catalog indicate a contract/indexer mismatch and are rejected.
func ParseChargeStatus(code uint8) (ChargeStatus, error) {
	if int(code) >= len(statusNames) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownChargeStatus, code)
	}
	return ChargeStatus(code), nil
}

// ParseChargeStatusName is the inverse of String.
func ParseChargeStatusName(name string) (ChargeStatus, error) {
	for code, n := range statusNames {
		if n == name {
			return ChargeStatus(code), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChargeStatus, name)
}

func (s ChargeStatus) String() string {
	if int(s) >= len(statusNames) {
		return fmt.Sprintf("ChargeStatus(%d)", uint8(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s ChargeStatus) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChargeStatus, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ChargeStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseChargeStatusName(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status by name.
func (s ChargeStatus) Value() (driver.Value, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan implements sql.Scanner.
func (s *ChargeStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		*s = StatusUninitialized
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ChargeStatus", src)
	}
}
