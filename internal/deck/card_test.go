package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "blackjack",
			input: "AsKh",
			expected: []Card{
				{Suit: Spades, Rank: Ace},
				{Suit: Hearts, Rank: King},
			},
		},
		{
			name:  "case insensitive",
			input: "tdQC",
			expected: []Card{
				{Suit: Diamonds, Rank: Ten},
				{Suit: Clubs, Rank: Queen},
			},
		},
		{
			name:    "invalid rank",
			input:   "XsKs",
			wantErr: true,
		},
		{
			name:    "invalid suit",
			input:   "AxKs",
			wantErr: true,
		},
		{
			name:    "odd length",
			input:   "AsK",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCardValues(t *testing.T) {
	assert.Equal(t, 1, NewCard(Spades, Ace).BlackjackValue())
	assert.Equal(t, 10, NewCard(Spades, King).BlackjackValue())
	assert.Equal(t, 7, NewCard(Hearts, Seven).BlackjackValue())
	assert.Equal(t, 0, NewCard(Clubs, Ten).BaccaratValue())
	assert.Equal(t, 0, NewCard(Clubs, Queen).BaccaratValue())
	assert.Equal(t, 1, NewCard(Clubs, Ace).BaccaratValue())
	assert.Equal(t, 9, NewCard(Clubs, Nine).BaccaratValue())
}

func TestCardJSONUsesCode(t *testing.T) {
	c := NewCard(Diamonds, Ten)
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"Td"`, string(b))

	var back Card
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c, back)
}

func TestNewDeckHasEveryCardOnce(t *testing.T) {
	seen := make(map[Card]bool)
	for _, c := range NewDeck() {
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}
