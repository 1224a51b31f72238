package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPhoneNumbers(t *testing.T) {
	verdict := Classify("call me at 555-123-4567")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "phone numbers")

	verdict = Classify("the price is 50000")
	assert.False(t, verdict.IsBlocked)
}

func TestClassifyLocalPhoneFormat(t *testing.T) {
	verdict := Classify("hubungi 081234567890 ya")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "phone numbers")
}

func TestClassifyEmailAddresses(t *testing.T) {
	verdict := Classify("email me at a@b.com")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "email addresses")
}

func TestClassifyObfuscatedEmail(t *testing.T) {
	verdict := Classify("reach me via seller [at] gmail [dot] com")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "email addresses")
}

func TestClassifySocialMedia(t *testing.T) {
	verdict := Classify("find me on instagram @cooluser")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "social media handles")
}

func TestClassifyExternalLinks(t *testing.T) {
	verdict := Classify("check www.example.com for more")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "external links")

	verdict = Classify("visit our store page for more")
	assert.False(t, verdict.IsBlocked)
}

func TestClassifyPaymentDetails(t *testing.T) {
	verdict := Classify("transfer to rekening number 1234567890")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "payment details")

	verdict = Classify("the total comes to 100000")
	assert.False(t, verdict.IsBlocked)
}

func TestClassifyPhysicalAddresses(t *testing.T) {
	verdict := Classify("come to jalan sudirman tomorrow")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "physical addresses")

	verdict = Classify("I will ship it tomorrow")
	assert.False(t, verdict.IsBlocked)
}

func TestClassifyPersonalInfo(t *testing.T) {
	verdict := Classify("hello, my name is budi")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "personal information")

	verdict = Classify("the item name is listed above")
	assert.False(t, verdict.IsBlocked)
}

func TestClassifyProhibitedPhrases(t *testing.T) {
	verdict := Classify("please dm me for details")
	assert.True(t, verdict.IsBlocked)
	assert.Contains(t, verdict.Reason, "prohibited phrases")
}

func TestPhrasesMatchWholeWordsOnly(t *testing.T) {
	verdict := Classify("I called the meeting to order")
	assert.False(t, verdict.IsBlocked)
	assert.Empty(t, verdict.Reason)
}

func TestEmptyInputIsClean(t *testing.T) {
	verdict := Classify("")
	assert.False(t, verdict.IsBlocked)
	assert.Empty(t, verdict.Violations)

	verdict = Classify("   ")
	assert.False(t, verdict.IsBlocked)
}

func TestReasonSingleCategory(t *testing.T) {
	verdict := Classify("come to jalan sudirman")
	assert.Equal(t, "Contains physical addresses", verdict.Reason)
}

func TestReasonTwoCategories(t *testing.T) {
	verdict := Classify("call me at 555-123-4567")
	assert.Equal(t, "Contains phone numbers and prohibited phrases", verdict.Reason)
}

func TestReasonThreeCategories(t *testing.T) {
	verdict := Classify("email me at a@b.com or dm me")
	assert.Equal(t, "Contains email addresses, social media handles, and prohibited phrases", verdict.Reason)
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify("call me at 555-123-4567")
	second := Classify("call me at 555-123-4567")
	assert.Equal(t, first, second)
}

func TestMatchCounts(t *testing.T) {
	verdict := Classify("call me at 555-123-4567")
	counts := verdict.MatchCounts()
	assert.Equal(t, 1, counts[CategoryPhoneNumbers])
	assert.Equal(t, 1, counts[CategoryProhibitedPhrases])

	clean := Classify("hello there")
	assert.Nil(t, clean.MatchCounts())
}
