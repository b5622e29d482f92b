package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	item := Item{
		Name:    "John Smith",
		Email:   "john.smith@example.com",
		Phone:   "+14045551234",
		Subject: "Re: Quote for unit 4B",
		Body:    "Hi John, the quote is attached.",
	}

	t.Run("Name prefix match", func(t *testing.T) {
		// "john" is a prefix of "john smith", contained in email and body
		score := Score(item, []string{"john"})
		assert.Equal(t, weightNamePrefix+weightEmail+weightBody, score)
	})

	t.Run("Exact name match", func(t *testing.T) {
		score := Score(Item{Name: "John Smith"}, []string{"john smith"})
		assert.Equal(t, weightNameExact, score)
	})

	t.Run("Name contains", func(t *testing.T) {
		score := Score(Item{Name: "John Smith"}, []string{"smith"})
		assert.Equal(t, weightNameContains, score)
	})

	t.Run("Phone digits match", func(t *testing.T) {
		score := Score(item, []string{"555-1234"})
		assert.Equal(t, weightPhone, score)
	})

	t.Run("Subject match", func(t *testing.T) {
		score := Score(item, []string{"quote"})
		assert.Equal(t, weightSubject+weightBody, score)
	})

	t.Run("AND semantics - one unmatched term zeroes the score", func(t *testing.T) {
		assert.Zero(t, Score(item, []string{"john", "zebra"}))
	})

	t.Run("Additive across terms", func(t *testing.T) {
		one := Score(item, []string{"john"})
		two := Score(item, []string{"john", "quote"})
		assert.Equal(t, one+weightSubject+weightBody, two)
	})

	t.Run("Empty fields never match", func(t *testing.T) {
		assert.Zero(t, Score(Item{}, []string{"john"}))
	})
}

func TestFormatReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Quote", FormatReplySubject("RE: Re: Quote"))
	assert.Equal(t, "Re: Quote", FormatReplySubject("Quote"))
	assert.Equal(t, "Re: Quote", FormatReplySubject("re:Quote"))
	assert.Equal(t, "Re: Quote", FormatReplySubject("Re: RE: re: Quote"))
	assert.Equal(t, "Re:", FormatReplySubject("Re:"))
	assert.Equal(t, "Re:", FormatReplySubject(""))
}

func TestNormalizeContactName(t *testing.T) {
	assert.Equal(t, "jane", NormalizeContactName("Jane and John Doe"))
	assert.Equal(t, "jane doe", NormalizeContactName("Jane Doe"))
	assert.Equal(t, "jane", NormalizeContactName("  Jane AND John  "))
	// Documented heuristic gap: reordered multi-party names do not dedup
	assert.NotEqual(t, NormalizeContactName("Jane and John"), NormalizeContactName("John and Jane"))
}

func TestMergeThreads(t *testing.T) {
	now := time.Now()

	t.Run("Collapses by normalized name", func(t *testing.T) {
		threads := []Thread{
			{ContactName: "Jane Doe", LastMessage: "old", LastAt: now.Add(-time.Hour), UnreadCount: 1},
			{ContactName: "jane doe", LastMessage: "new", LastAt: now, UnreadCount: 2},
		}
		merged := MergeThreads(threads)
		assert.Len(t, merged, 1)
		assert.Equal(t, "new", merged[0].LastMessage)
		assert.Equal(t, 3, merged[0].UnreadCount)
	})

	t.Run("Falls back to email then phone", func(t *testing.T) {
		threads := []Thread{
			{ContactEmail: "a@example.com", LastAt: now},
			{ContactEmail: "A@Example.com", LastAt: now.Add(-time.Minute)},
			{ContactPhone: "+14045551234", LastAt: now},
			{ContactPhone: "(404) 555-1234", LastAt: now.Add(-time.Minute)},
		}
		merged := MergeThreads(threads)
		assert.Len(t, merged, 2)
	})

	t.Run("Newest first", func(t *testing.T) {
		threads := []Thread{
			{ContactName: "A", LastAt: now.Add(-time.Hour)},
			{ContactName: "B", LastAt: now},
		}
		merged := MergeThreads(threads)
		assert.Equal(t, "B", merged[0].ContactName)
	})
}

func TestRankItems(t *testing.T) {
	items := []Item{
		{Name: "Smith Plumbing"},        // contains
		{Name: "john smith"},            // exact for "john smith"
		{Name: "John", Body: "nothing"}, // prefix
		{Name: "Unrelated"},
	}
	ranked := RankItems(items, []string{"john"})
	// exact (100) outranks prefix (50); zero scores are dropped
	assert.Equal(t, []int{2, 1}, ranked)
}
