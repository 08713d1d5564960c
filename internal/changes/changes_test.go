package changes

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"personlens/internal/correlate"
)

type ChangesSuite struct {
	suite.Suite
}

func TestChangesSuite(t *testing.T) {
	suite.Run(t, new(ChangesSuite))
}

// TestFirstObservation verifies the nil-old baseline behavior.
func (s *ChangesSuite) TestFirstObservation() {
	s.Run("single non-empty category yields exactly one change", func() {
		current := &correlate.PersonProfile{Emails: []string{"a@x.com"}}

		d := Detect(nil, current)

		s.True(d.HasChanges)
		s.Require().Len(d.Changes, 1)
		s.Equal(TypeNewEmail, d.Changes[0].Type)
		s.InDelta(1.0, d.Changes[0].Confidence, 1e-9)
		s.InDelta(1.0, d.Confidence, 1e-9)
	})

	s.Run("one change per populated category at full confidence", func() {
		current := &correlate.PersonProfile{
			Emails:      []string{"a@x.com", "b@x.com"},
			Phones:      []string{"5551234567"},
			Addresses:   []string{"123 Main St"},
			SocialMedia: map[string]string{"github": "ada"},
		}

		d := Detect(nil, current)

		s.Require().Len(d.Changes, 4)
		types := map[Type]bool{}
		for _, c := range d.Changes {
			types[c.Type] = true
			s.InDelta(1.0, c.Confidence, 1e-9)
		}
		s.True(types[TypeNewEmail])
		s.True(types[TypeNewPhone])
		s.True(types[TypeNewAddress])
		s.True(types[TypeNewSocial])
	})

	s.Run("empty profile yields no changes", func() {
		d := Detect(nil, &correlate.PersonProfile{})

		s.False(d.HasChanges)
		s.Empty(d.Changes)
		s.Zero(d.Confidence)
	})
}

// TestDiff verifies per-item set differences between two observations.
func (s *ChangesSuite) TestDiff() {
	s.Run("addition is reported per item", func() {
		old := &correlate.PersonProfile{Emails: []string{"a@x.com"}}
		current := &correlate.PersonProfile{Emails: []string{"a@x.com", "b@x.com"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 1)
		s.Equal(TypeNewEmail, d.Changes[0].Type)
		s.Equal("b@x.com", d.Changes[0].NewValue)
		s.InDelta(0.95, d.Changes[0].Confidence, 1e-9)
	})

	s.Run("removal carries the old value", func() {
		old := &correlate.PersonProfile{Phones: []string{"5551234567", "5559998888"}}
		current := &correlate.PersonProfile{Phones: []string{"5551234567"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 1)
		s.Equal(TypeRemovedData, d.Changes[0].Type)
		s.Equal("5559998888", d.Changes[0].OldValue)
		s.Empty(d.Changes[0].NewValue)
		s.InDelta(0.75, d.Changes[0].Confidence, 1e-9)
	})

	s.Run("formatting differences are not changes", func() {
		old := &correlate.PersonProfile{
			Emails:    []string{"A@X.com"},
			Phones:    []string{"+1 (555) 123-4567"},
			Addresses: []string{"123  Main St"},
		}
		current := &correlate.PersonProfile{
			Emails:    []string{"a@x.com"},
			Phones:    []string{"5551234567"},
			Addresses: []string{"123 Main st"},
		}

		d := Detect(old, current)

		s.False(d.HasChanges)
		s.Zero(d.Confidence)
	})

	s.Run("new social platform is an addition", func() {
		old := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada"}}
		current := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada", "twitter": "@ada"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 1)
		s.Equal(TypeNewSocial, d.Changes[0].Type)
		s.Contains(d.Changes[0].NewValue, "twitter")
	})

	s.Run("changed handle on a known platform is an update", func() {
		old := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada"}}
		current := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada-lovelace"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 1)
		s.Equal(TypeUpdatedData, d.Changes[0].Type)
		s.Contains(d.Changes[0].OldValue, "ada")
		s.Contains(d.Changes[0].NewValue, "ada-lovelace")
	})

	s.Run("vanished platform is a removal", func() {
		old := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada", "twitter": "@ada"}}
		current := &correlate.PersonProfile{SocialMedia: map[string]string{"github": "ada"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 1)
		s.Equal(TypeRemovedData, d.Changes[0].Type)
		s.Equal("social", d.Changes[0].Field)
	})

	s.Run("overall confidence is the mean of change confidences", func() {
		old := &correlate.PersonProfile{Emails: []string{"gone@x.com"}}
		current := &correlate.PersonProfile{Emails: []string{"new@x.com"}}

		d := Detect(old, current)

		s.Require().Len(d.Changes, 2)
		s.InDelta((0.95+0.80)/2, d.Confidence, 1e-9)
	})

	s.Run("identical profiles yield no changes", func() {
		p := &correlate.PersonProfile{
			Emails:      []string{"a@x.com"},
			Phones:      []string{"5551234567"},
			SocialMedia: map[string]string{"github": "ada"},
		}

		d := Detect(p, p)

		s.False(d.HasChanges)
		s.Empty(d.Changes)
	})
}
