package dto

import "github.com/SscSPs/estate_ledger/internal/core/domain"

// ValidateIdentifierRequest checks a user-chosen identifier before it is used.
type ValidateIdentifierRequest struct {
	Prefix     domain.IdentifierPrefix `json:"prefix" binding:"required,idprefix"`
	Identifier string                  `json:"identifier" binding:"required,max=64"`
	Year       int                     `json:"year" binding:"omitempty,min=2000,max=2999"`
}
