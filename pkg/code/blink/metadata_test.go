package blink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDonateActionMetadata(t *testing.T) {
	metadata := NewDonateActionMetadata("CharityKey111", "Helping Hands", "Food for everyone")

	assert.Equal(t, ActionTypeAction, metadata.Type)
	assert.Equal(t, "Donate to Helping Hands", metadata.Title)
	assert.Equal(t, "Food for everyone", metadata.Description)
	assert.Equal(t, IconPath, metadata.Icon)

	require.Len(t, metadata.Links.Actions, 4)

	var labels, hrefs []string
	for _, action := range metadata.Links.Actions {
		assert.Equal(t, ActionTypeTransaction, action.Type)
		labels = append(labels, action.Label)
		hrefs = append(hrefs, action.Href)
	}
	assert.Equal(t, []string{"0.01 SOL", "0.05 SOL", "0.1 SOL", "Custom Amount"}, labels)
	assert.Equal(t, []string{
		"/api/actions/donate?charity=CharityKey111&amount=0.01",
		"/api/actions/donate?charity=CharityKey111&amount=0.05",
		"/api/actions/donate?charity=CharityKey111&amount=0.1",
		"/api/actions/donate?charity=CharityKey111&amount={amount}",
	}, hrefs)

	custom := metadata.Links.Actions[3]
	require.Len(t, custom.Parameters, 1)
	assert.Equal(t, "amount", custom.Parameters[0].Name)
	assert.Equal(t, "number", custom.Parameters[0].Type)

	for _, action := range metadata.Links.Actions[:3] {
		assert.Empty(t, action.Parameters)
	}
}

func TestNewDonateActionMetadata_Defaults(t *testing.T) {
	metadata := NewDonateActionMetadata("CharityKey111", "", "")
	assert.Equal(t, "Donate to Charity", metadata.Title)
	assert.Equal(t, defaultCharityDescription, metadata.Description)
}

func TestActionMetadata_JSON(t *testing.T) {
	encoded, err := json.Marshal(NewDonateActionMetadata("CharityKey111", "Helping Hands", "Food"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "action", decoded["type"])

	actions := decoded["links"].(map[string]interface{})["actions"].([]interface{})
	require.Len(t, actions, 4)
	assert.NotContains(t, actions[0].(map[string]interface{}), "parameters")
	assert.Contains(t, actions[3].(map[string]interface{}), "parameters")
}
