package blink

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/code-payments/charity-server/pkg/sol"
)

const (
	DonatePath = "/api/actions/donate"
	IconPath   = "/charity-logo.png"

	defaultCharityName        = "Charity"
	defaultCharityDescription = "Support this charity with a donation on Solana."

	customAmountParameter = "amount"
)

// PresetDonations are the one tap donation amounts, in lamports
var PresetDonations = []uint64{
	10_000_000,
	50_000_000,
	100_000_000,
}

type ActionType string

const (
	ActionTypeAction      ActionType = "action"
	ActionTypeTransaction ActionType = "transaction"
)

// ActionMetadata describes a donation card and the requests it can make
type ActionMetadata struct {
	Type        ActionType  `json:"type"`
	Icon        string      `json:"icon"`
	Label       string      `json:"label"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Links       ActionLinks `json:"links"`
}

type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

type LinkedAction struct {
	Type       ActionType        `json:"type"`
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

type ActionParameter struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// NewDonateActionMetadata returns the donation card for a charity. An empty
// name or description falls back to a generic one.
func NewDonateActionMetadata(charity, name, description string) *ActionMetadata {
	if len(name) == 0 {
		name = defaultCharityName
	}
	if len(description) == 0 {
		description = defaultCharityDescription
	}

	actions := make([]LinkedAction, 0, len(PresetDonations)+1)
	for _, lamports := range PresetDonations {
		amount := decimal.NewFromUint64(lamports).Shift(-sol.Decimals).String()
		actions = append(actions, LinkedAction{
			Type:  ActionTypeTransaction,
			Label: fmt.Sprintf("%s SOL", amount),
			Href:  donateHref(charity, amount),
		})
	}

	// The wallet substitutes the placeholder, so it's left unescaped
	actions = append(actions, LinkedAction{
		Type:  ActionTypeTransaction,
		Label: "Custom Amount",
		Href:  donateHref(charity, "{"+customAmountParameter+"}"),
		Parameters: []ActionParameter{
			{
				Name:  customAmountParameter,
				Label: "Enter a custom SOL amount",
				Type:  "number",
			},
		},
	})

	return &ActionMetadata{
		Type:        ActionTypeAction,
		Icon:        IconPath,
		Label:       "Donate SOL",
		Title:       fmt.Sprintf("Donate to %s", name),
		Description: description,
		Links: ActionLinks{
			Actions: actions,
		},
	}
}

func donateHref(charity, amount string) string {
	return fmt.Sprintf("%s?charity=%s&%s=%s", DonatePath, url.QueryEscape(charity), customAmountParameter, amount)
}
