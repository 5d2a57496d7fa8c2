package entities

import "encoding/json"

// PhysicalAddress is the shipping address a wallet may return in a data callback.
type PhysicalAddress struct {
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
}

// RequestedInfo carries the profile fields a payer supplied through the wallet.
// Each field is present only when it was requested and provided.
type RequestedInfo struct {
	Email           *string          `json:"email,omitempty"`
	PhysicalAddress *PhysicalAddress `json:"physicalAddress,omitempty"`
}

// DataValidationRequest is the body the wallet posts to the callback URL.
// Calls, ChainID and Capabilities are echoed back untouched on success.
type DataValidationRequest struct {
	RequestedInfo RequestedInfo   `json:"requestedInfo"`
	Calls         json.RawMessage `json:"calls"`
	ChainID       json.RawMessage `json:"chainId"`
	Capabilities  json.RawMessage `json:"capabilities"`
}

// ApprovedCallRequest tells the wallet to go ahead with execution.
type ApprovedCallRequest struct {
	Calls        json.RawMessage `json:"calls"`
	ChainID      json.RawMessage `json:"chainId"`
	Capabilities json.RawMessage `json:"capabilities"`
}

// AddressErrors holds per-field rejections of a physical address.
type AddressErrors struct {
	PostalCode  string `json:"postalCode,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	City        string `json:"city,omitempty"`
}

// ValidationErrors is keyed by requested field; empty means the request is accepted.
type ValidationErrors struct {
	Email           string         `json:"email,omitempty"`
	PhysicalAddress *AddressErrors `json:"physicalAddress,omitempty"`
}

// Empty reports whether no rule rejected the request.
func (e ValidationErrors) Empty() bool {
	return e.Email == "" && e.PhysicalAddress == nil
}

// DataCallbackRequestType names a profile field the wallet should collect.
type DataCallbackRequestType string

const (
	DataCallbackEmail           DataCallbackRequestType = "email"
	DataCallbackPhysicalAddress DataCallbackRequestType = "physicalAddress"
)

// DataCallbackRequest asks the wallet for one profile field.
type DataCallbackRequest struct {
	Type     DataCallbackRequestType `json:"type"`
	Optional bool                    `json:"optional"`
}

// DataCallbackCapability is attached to a wallet_sendCalls batch.
type DataCallbackCapability struct {
	Requests    []DataCallbackRequest `json:"requests"`
	CallbackURL string                `json:"callbackURL"`
}
