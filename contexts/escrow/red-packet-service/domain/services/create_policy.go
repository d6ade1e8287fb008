package services

import (
	"unicode/utf8"

	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

type AmountMode string

const (
	AmountModeFixed   AmountMode = "fixed"
	AmountModeGeneral AmountMode = "general"
)

// DefaultFixedAmount is 0.0001 of an 18-decimal base unit (0.0001 ETH in wei).
const DefaultFixedAmount uint64 = 100_000_000_000_000

// AmountPolicy decides which deposit amounts create may accept.
type AmountPolicy struct {
	Mode        AmountMode
	FixedAmount uint64
}

func (p AmountPolicy) EffectiveFixedAmount() uint64 {
	if p.FixedAmount == 0 {
		return DefaultFixedAmount
	}
	return p.FixedAmount
}

func (p AmountPolicy) IsFixed() bool {
	return p.Mode != AmountModeGeneral
}

// ValidateAmount rejects zero deposits and, in fixed mode, any deposit other
// than the configured fixed amount.
func (p AmountPolicy) ValidateAmount(amount uint64) error {
	if amount == 0 {
		return domainerrors.ErrInvalidAmount
	}
	if p.IsFixed() && amount != p.EffectiveFixedAmount() {
		return domainerrors.ErrWrongAmount
	}
	return nil
}

func ValidatePacketCount(count int) error {
	if count < entities.MinPacketCount || count > entities.MaxPacketCount {
		return domainerrors.ErrInvalidCount
	}
	return nil
}

func ValidateMessage(message string) error {
	if utf8.RuneCountInString(message) > entities.MaxMessageRunes {
		return domainerrors.ErrInvalidMessage
	}
	return nil
}
