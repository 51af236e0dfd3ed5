package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollectionPage(t *testing.T) {
	data := `{
		"hydra:member": [` + introJSON + `,` + introJSON + `],
		"hydra:totalItems": 5,
		"hydra:view": {
			"@id": "/messages?page=1",
			"@type": "hydra:PartialCollectionView",
			"hydra:first": "/messages?page=1",
			"hydra:last": "/messages?page=3",
			"hydra:next": "/messages?page=2"
		}
	}`
	page, err := DecodeCollection[Message]([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, page.Len())
	assert.Equal(t, 5, page.TotalCount())
	assert.True(t, page.HasNext())
	assert.Equal(t, "/messages?page=2", page.NextPath())
	assert.Equal(t, "Fwd: test", page.Item(0).Subject)

	// Items is a copy.
	items := page.Items()
	items[0].Subject = "changed"
	assert.Equal(t, "Fwd: test", page.Item(0).Subject)
}

func TestDecodeCollectionLastPage(t *testing.T) {
	data := `{
		"hydra:member": [` + introJSON + `],
		"hydra:totalItems": 1,
		"hydra:view": {"@id": "/messages?page=1"}
	}`
	page, err := DecodeCollection[Message]([]byte(data))
	require.NoError(t, err)
	assert.False(t, page.HasNext())
	assert.Equal(t, "", page.NextPath())
}

func TestDecodeCollectionEmpty(t *testing.T) {
	page, err := DecodeCollection[Message]([]byte(`{"hydra:member": [], "hydra:totalItems": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Len())
	assert.Equal(t, 0, page.TotalCount())
	assert.False(t, page.HasNext())
	assert.NotNil(t, page.Items())
}

func TestDecodeCollectionInvalid(t *testing.T) {
	tests := map[string]string{
		"no members":     `{"hydra:totalItems": 0}`,
		"no total":       `{"hydra:member": []}`,
		"negative total": `{"hydra:member": [], "hydra:totalItems": -1}`,
		"bad member":     `{"hydra:member": [{"id": "x"}], "hydra:totalItems": 1}`,
		"not an object":  `[]`,
		"null":           `null`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCollection[Message]([]byte(data))
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCollectionMarshal(t *testing.T) {
	d := Domain{ID: "d1", Domain: "example.org", IsActive: true,
		CreatedAt: time.Unix(0, 0).UTC(), UpdatedAt: time.Unix(0, 0).UTC()}
	page := NewLinkedCollection([]Domain{d}, 3, &HydraView{Next: "/domains?page=2"})
	b, err := json.Marshal(page)
	require.NoError(t, err)

	got, err := DecodeCollection[Domain](b)
	require.NoError(t, err)
	assert.Equal(t, []Domain{d}, got.Items())
	assert.Equal(t, 3, got.TotalCount())
	assert.Equal(t, "/domains?page=2", got.NextPath())
}

func TestNewLinkedCollectionCopiesItems(t *testing.T) {
	items := []Domain{{ID: "d1"}, {ID: "d2"}}
	page := NewLinkedCollection(items, 2, nil)
	items[0].ID = "changed"
	assert.Equal(t, "d1", page.Item(0).ID)

	assert.NotNil(t, NewLinkedCollection[Domain](nil, 0, nil).Items())
}

func TestDomainAndAccountDecode(t *testing.T) {
	var d Domain
	err := json.Unmarshal([]byte(`{"id":"000001","domain":"testdomain.com","isActive":true,`+
		`"isPrivate":false,"createdAt":"2021-05-22T00:00:00+00:00",`+
		`"updatedAt":"2021-05-22T00:00:00+00:00"}`), &d)
	require.NoError(t, err)
	assert.Equal(t, "testdomain.com", d.Domain)
	assert.True(t, d.IsActive)

	var a Account
	err = json.Unmarshal([]byte(`{"id":"000011","address":"account@testdomain.com",`+
		`"quota":40000,"used":0,"isDisabled":true,"isDeleted":false,`+
		`"createdAt":"2021-05-22T00:00:00+00:00","updatedAt":"2021-05-22T00:00:00+00:00"}`), &a)
	require.NoError(t, err)
	assert.Equal(t, "account@testdomain.com", a.Address)
	assert.Equal(t, int64(40000), a.Quota)
	assert.True(t, a.IsDisabled)

	err = json.Unmarshal([]byte(`{"id":"000011"}`), &a)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "account", verr.Model)
	assert.Len(t, verr.Missing, 7)
}

func TestTokenClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		AccountID: "acc1",
		Username:  "nick@example.org",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tok := Token(signed)
	claims, err := tok.Claims()
	require.NoError(t, err)
	assert.Equal(t, "acc1", claims.AccountID)
	assert.Equal(t, "nick@example.org", claims.Username)

	got, ok := tok.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = Token("not-a-jwt").ExpiresAt()
	assert.False(t, ok)
}

func TestTokenResponseDecode(t *testing.T) {
	var r TokenResponse
	require.NoError(t, json.Unmarshal([]byte(`{"id":"acc1","token":"abc"}`), &r))
	assert.Equal(t, Token("abc"), r.Token)
	assert.Equal(t, "acc1", r.ID)

	err := json.Unmarshal([]byte(`{"id":"acc1"}`), &r)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
