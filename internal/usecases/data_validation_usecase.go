package usecases

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
)

// ValidationRules are the fixed literals the data callback is checked against
type ValidationRules struct {
	BlockedEmailDomain string
	BlockedCountryCode string
	BlockedCity        string
	PostalCodeMin      int
	PostalCodeMax      int
}

// DefaultValidationRules mirrors the rules wallets were originally tested against.
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		BlockedEmailDomain: "@example.com",
		BlockedCountryCode: "XY",
		BlockedCity:        "nowhere",
		PostalCodeMin:      5,
		PostalCodeMax:      10,
	}
}

// DataValidationUsecase checks profile data a wallet collected before the
// call batch is executed. It holds no state between calls.
type DataValidationUsecase struct {
	rules   ValidationRules
	metrics *metrics.Registry
}

func NewDataValidationUsecase(rules ValidationRules, m *metrics.Registry) *DataValidationUsecase {
	return &DataValidationUsecase{rules: rules, metrics: m}
}

// Validate applies every rule independently and collects all failures.
func (uc *DataValidationUsecase) Validate(ctx context.Context, req *entities.DataValidationRequest) (*entities.ApprovedCallRequest, *entities.ValidationErrors) {
	var verrs entities.ValidationErrors
	info := req.RequestedInfo

	if info.Email != nil && uc.rules.BlockedEmailDomain != "" {
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(*info.Email)), strings.ToLower(uc.rules.BlockedEmailDomain)) {
			verrs.Email = blockedDomainMessage(uc.rules.BlockedEmailDomain)
			uc.metrics.IncValidationRejection("email")
		}
	}

	if addr := info.PhysicalAddress; addr != nil {
		var aerrs entities.AddressErrors
		if n := utf8.RuneCountInString(addr.PostalCode); n < uc.rules.PostalCodeMin || n > uc.rules.PostalCodeMax {
			aerrs.PostalCode = "Invalid postal code"
			uc.metrics.IncValidationRejection("physicalAddress.postalCode")
		}
		if uc.rules.BlockedCountryCode != "" && addr.CountryCode == uc.rules.BlockedCountryCode {
			aerrs.CountryCode = "Invalid country"
			uc.metrics.IncValidationRejection("physicalAddress.countryCode")
		}
		if uc.rules.BlockedCity != "" && strings.EqualFold(addr.City, uc.rules.BlockedCity) {
			aerrs.City = "Invalid city"
			uc.metrics.IncValidationRejection("physicalAddress.city")
		}
		if aerrs != (entities.AddressErrors{}) {
			verrs.PhysicalAddress = &aerrs
		}
	}

	if !verrs.Empty() {
		logger.Info(ctx, "Data callback rejected",
			zap.Bool("email", verrs.Email != ""),
			zap.Bool("physical_address", verrs.PhysicalAddress != nil),
		)
		return nil, &verrs
	}

	return &entities.ApprovedCallRequest{
		Calls:        req.Calls,
		ChainID:      req.ChainID,
		Capabilities: req.Capabilities,
	}, nil
}

// blockedDomainMessage turns "@example.com" into "Example.com emails are not allowed".
func blockedDomainMessage(domain string) string {
	d := strings.TrimPrefix(domain, "@")
	if d == "" {
		return "Emails from this domain are not allowed"
	}
	return strings.ToUpper(d[:1]) + d[1:] + " emails are not allowed"
}
