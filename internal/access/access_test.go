package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-booking/internal/model"
)

var (
	anon  = Caller{}
	alice = Caller{ID: "u-alice", Role: model.RoleUser}
	bob   = Caller{ID: "u-bob", Role: model.RoleUser}
	olga  = Caller{ID: "o-olga", Role: model.RoleOwner}
	oscar = Caller{ID: "o-oscar", Role: model.RoleOwner}
	root  = Caller{ID: "a-root", Role: model.RoleAdmin}
)

func TestCheck(t *testing.T) {
	p := NewPolicy(ListApprovedOnly)
	venue := Resource{OwnerID: olga.ID}
	booking := Resource{UserID: alice.ID, OwnerID: olga.ID}

	tests := []struct {
		name   string
		caller Caller
		action Action
		res    Resource
		want   error
	}{
		{"anonymous rejected", anon, UpdateVenue, venue, ErrUnauthorized},
		{"owner creates venue", olga, CreateVenue, Resource{}, nil},
		{"user cannot create venue", alice, CreateVenue, Resource{}, ErrForbidden},
		{"owner updates own venue", olga, UpdateVenue, venue, nil},
		{"other owner cannot update", oscar, UpdateVenue, venue, ErrForbidden},
		{"admin updates any venue", root, DeleteVenue, venue, nil},
		{"user cannot manage slots", alice, ManageSlots, venue, ErrForbidden},
		{"owner approves own venue", olga, ApproveVenue, venue, nil},
		{"other owner cannot approve", oscar, ApproveVenue, venue, ErrForbidden},
		{"owner cannot reject", olga, RejectVenue, venue, ErrForbidden},
		{"admin rejects", root, RejectVenue, venue, nil},
		{"any user books", bob, CreateBooking, Resource{}, nil},
		{"booker views booking", alice, ViewBooking, booking, nil},
		{"venue owner views booking", olga, ViewBooking, booking, nil},
		{"stranger cannot view", bob, ViewBooking, booking, ErrForbidden},
		{"booker cancels", alice, CancelBooking, booking, nil},
		{"venue owner cannot cancel", olga, CancelBooking, booking, ErrForbidden},
		{"admin cancels", root, CancelBooking, booking, nil},
		{"user manages favorites", alice, ManageFavorites, Resource{}, nil},
		{"owner has no favorites", olga, ManageFavorites, Resource{}, ErrForbidden},
		{"empty owner never matches", Caller{ID: "x", Role: model.RoleOwner}, UpdateVenue, Resource{}, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Check(tt.caller, tt.action, tt.res)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookings(t *testing.T) {
	p := NewPolicy(ListApprovedOnly)

	s, err := p.Bookings(alice)
	require.NoError(t, err)
	assert.Equal(t, BookingScope{UserID: alice.ID}, s)

	s, err = p.Bookings(olga)
	require.NoError(t, err)
	assert.Equal(t, BookingScope{VenueOwnerID: olga.ID}, s)

	s, err = p.Bookings(root)
	require.NoError(t, err)
	assert.True(t, s.All)

	_, err = p.Bookings(anon)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = p.Bookings(Caller{ID: "x", Role: "guest"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestVenues(t *testing.T) {
	yes, no := true, false

	t.Run("owner=me requires identity", func(t *testing.T) {
		_, err := NewPolicy(ListApprovedOnly).Venues(anon, VenueQuery{OwnerMe: true})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("owner=me scopes to caller", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(olga, VenueQuery{OwnerMe: true, Approved: &no})
		require.NoError(t, err)
		assert.Equal(t, olga.ID, s.OwnerID)
		require.NotNil(t, s.Approved)
		assert.False(t, *s.Approved)
	})

	t.Run("anonymous default sees approved", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(anon, VenueQuery{})
		require.NoError(t, err)
		require.NotNil(t, s.Approved)
		assert.True(t, *s.Approved)
		assert.Empty(t, s.OrOwnerID)
	})

	t.Run("owner default adds own venues", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(olga, VenueQuery{})
		require.NoError(t, err)
		assert.True(t, *s.Approved)
		assert.Equal(t, olga.ID, s.OrOwnerID)
	})

	t.Run("owner approved=true gets approved only", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(olga, VenueQuery{Approved: &yes})
		require.NoError(t, err)
		assert.True(t, *s.Approved)
		assert.Empty(t, s.OrOwnerID)
	})

	t.Run("unapproved hidden from users", func(t *testing.T) {
		_, err := NewPolicy(ListApprovedOnly).Venues(alice, VenueQuery{Approved: &no})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("owner unapproved limited to own", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(olga, VenueQuery{Approved: &no})
		require.NoError(t, err)
		assert.False(t, *s.Approved)
		assert.Equal(t, olga.ID, s.OwnerID)
	})

	t.Run("admin sees all", func(t *testing.T) {
		s, err := NewPolicy(ListApprovedOnly).Venues(root, VenueQuery{})
		require.NoError(t, err)
		assert.Equal(t, VenueScope{}, s)
	})

	t.Run("listing mode all", func(t *testing.T) {
		s, err := NewPolicy(ListAll).Venues(anon, VenueQuery{Approved: &no})
		require.NoError(t, err)
		assert.False(t, *s.Approved)

		s, err = NewPolicy(ListAll).Venues(anon, VenueQuery{})
		require.NoError(t, err)
		assert.Equal(t, VenueScope{}, s)
	})
}

func TestParseListingMode(t *testing.T) {
	assert.Equal(t, ListAll, ParseListingMode("all"))
	assert.Equal(t, ListApprovedOnly, ParseListingMode(""))
	assert.Equal(t, ListApprovedOnly, ParseListingMode("bogus"))
}
