package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

func TestTaskForProvider(t *testing.T) {
	assert.Equal(t, socx.TaskIsimpleHotPromo, taskForProvider(models.ProviderIsimple))
	assert.Equal(t, socx.TaskTriSpecialOffer, taskForProvider(models.ProviderTri))
}

func TestNormalizeOffersHotPromo(t *testing.T) {
	raw := json.RawMessage(`{"dnmcode":"HP5GB30D"}`)
	promos := []socx.PromoPayload{{
		Name:       "Hot Promo 5GB",
		DnmCode:    "HP5GB30D",
		Amount:     socx.FlexInt(8800),
		Type:       "data",
		TypeTitle:  "Data",
		Commission: socx.FlexInt(500),
		Gb:         socx.FlexFloat(5),
		Days:       socx.FlexInt(30),
		Raw:        raw,
	}}

	offers := normalizeOffers(7, promos)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, 7, o.PhoneNumberID)
	assert.Equal(t, "HP5GB30D", o.ProductCode)
	assert.Equal(t, "Hot Promo 5GB", o.ProductName)
	assert.Equal(t, 8800, o.Amount)
	assert.Equal(t, "data", o.ProductType)
	assert.Equal(t, "Data", o.TypeTitle)
	assert.Equal(t, 500, o.Commission)
	assert.InDelta(t, 5.0, o.GbQuota, 0.001)
	assert.Equal(t, 30, o.DayValidity)
	assert.Nil(t, o.NetAmount, "hot_promo has no net price")
	assert.Equal(t, raw, o.RawPayload)
}

func TestNormalizeOffersSpecialOffer(t *testing.T) {
	promos := []socx.PromoPayload{{
		OfferShortDesc:  "Special 3GB",
		RegistrationKey: "SO3GB",
		ProductPrice:    socx.FlexInt(15000),
		NetPrice:        socx.FlexInt(14200),
		Validity:        socx.FlexInt(7),
		ProductType:     "combo",
	}}

	offers := normalizeOffers(3, promos)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, "SO3GB", o.ProductCode)
	assert.Equal(t, "Special 3GB", o.ProductName)
	assert.Equal(t, 15000, o.Amount)
	assert.Equal(t, "combo", o.ProductType, "falls back to the special_offer type field")
	require.NotNil(t, o.NetAmount)
	assert.Equal(t, 14200, *o.NetAmount)
	assert.Equal(t, 7, o.DayValidity, "validity fills day quota when days is absent")
}

func TestNormalizeOffersQuotaFallbacks(t *testing.T) {
	promos := []socx.PromoPayload{{
		DnmCode:    "X1",
		Amount:     socx.FlexInt(1000),
		ProductGb:  socx.FlexFloat(2.5),
		ProductDay: socx.FlexInt(14),
	}}

	offers := normalizeOffers(1, promos)
	require.Len(t, offers, 1)
	assert.InDelta(t, 2.5, offers[0].GbQuota, 0.001)
	assert.Equal(t, 14, offers[0].DayValidity)
}

func TestNormalizeOffersDropsDuplicatesAndBlanks(t *testing.T) {
	promos := []socx.PromoPayload{
		{DnmCode: "DUP", Amount: socx.FlexInt(1000)},
		{DnmCode: "DUP", Amount: socx.FlexInt(2000)},
		{Name: "no code at all"},
		{DnmCode: "KEEP", Amount: socx.FlexInt(3000)},
	}

	offers := normalizeOffers(1, promos)
	require.Len(t, offers, 2)
	assert.Equal(t, "DUP", offers[0].ProductCode)
	assert.Equal(t, 1000, offers[0].Amount, "first occurrence wins")
	assert.Equal(t, "KEEP", offers[1].ProductCode)
}

func TestNormalizeOffersZeroNetPriceStaysNil(t *testing.T) {
	promos := []socx.PromoPayload{{
		RegistrationKey: "SO0",
		ProductPrice:    socx.FlexInt(5000),
		NetPrice:        socx.FlexInt(0),
	}}

	offers := normalizeOffers(1, promos)
	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].NetAmount)
}

func TestNormalizeOffersEmptyInput(t *testing.T) {
	assert.Empty(t, normalizeOffers(1, nil))
}
