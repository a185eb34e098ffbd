package master

import (
	"sync"
	"testing"

	"kitchen-dispatch/internal/channel"
	"kitchen-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func specialities(tags ...string) domain.CapabilitySet {
	return domain.NewCapabilitySet(tags...)
}

func completed(t *testing.T, r *Registry, id domain.StaffID) int {
	t.Helper()
	info, ok := r.Lookup(id)
	require.True(t, ok, "staff %s not on duty", id)
	return info.Completed
}

func TestRegistryRegisterDeregister(t *testing.T) {
	r := NewRegistry()
	a, _ := channel.NewPipe()

	r.Register("a", specialities("grill"), a)
	require.Equal(t, 1, r.Len())

	require.NoError(t, r.Deregister("a"))
	require.Equal(t, 0, r.Len())

	require.ErrorIs(t, r.Deregister("a"), domain.ErrNotRegistered)
	require.ErrorIs(t, r.Deregister("never"), domain.ErrNotRegistered)
}

func TestRegistryMatchesLastLifecycleEvent(t *testing.T) {
	r := NewRegistry()
	ch, _ := channel.NewPipe()

	type step struct {
		id    domain.StaffID
		onDut bool
	}
	steps := []step{
		{"a", true}, {"b", true}, {"a", false}, {"c", true},
		{"a", true}, {"b", false}, {"c", true}, {"d", true}, {"d", false},
	}
	want := map[domain.StaffID]bool{}
	for _, s := range steps {
		if s.onDut {
			r.Register(s.id, specialities("grill"), ch)
			want[s.id] = true
		} else {
			require.NoError(t, r.Deregister(s.id))
			delete(want, s.id)
		}
	}

	got := map[domain.StaffID]bool{}
	for _, info := range r.Snapshot() {
		got[info.ID] = true
	}
	require.Equal(t, want, got)
}

func TestRegistrySelectLeastLoaded(t *testing.T) {
	ch, _ := channel.NewPipe()

	t.Run("alternates between equally capable staff", func(t *testing.T) {
		r := NewRegistry()
		r.Register("a", specialities("grill"), ch)
		r.Register("b", specialities("grill"), ch)

		w, err := r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		require.Equal(t, domain.StaffID("a"), w.ID)

		w, err = r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		require.Equal(t, domain.StaffID("b"), w.ID)

		require.Equal(t, 1, completed(t, r, "a"))
		require.Equal(t, 1, completed(t, r, "b"))
	})

	t.Run("no capable staff leaves counts untouched", func(t *testing.T) {
		r := NewRegistry()
		r.Register("c", specialities("bakery"), ch)

		_, err := r.SelectLeastLoaded("grill")
		require.ErrorIs(t, err, domain.ErrNoCapableWorker)
		require.Equal(t, 0, completed(t, r, "c"))
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := NewRegistry().SelectLeastLoaded("grill")
		require.ErrorIs(t, err, domain.ErrNoCapableWorker)
	})

	t.Run("multi speciality staff serves both", func(t *testing.T) {
		r := NewRegistry()
		r.Register("d", specialities("grill", "bakery"), ch)

		w, err := r.SelectLeastLoaded("bakery")
		require.NoError(t, err)
		require.Equal(t, domain.StaffID("d"), w.ID)

		w, err = r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		require.Equal(t, domain.StaffID("d"), w.ID)
		require.Equal(t, 2, completed(t, r, "d"))
	})

	t.Run("only the selected count moves", func(t *testing.T) {
		r := NewRegistry()
		r.Register("a", specialities("grill"), ch)
		r.Register("b", specialities("bakery"), ch)
		r.Register("c", specialities("grill"), ch)

		_, err := r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		_, err = r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		_, err = r.SelectLeastLoaded("grill")
		require.NoError(t, err)

		require.Equal(t, 2, completed(t, r, "a"))
		require.Equal(t, 0, completed(t, r, "b"))
		require.Equal(t, 1, completed(t, r, "c"))
	})

	t.Run("tie goes to earliest still registered", func(t *testing.T) {
		r := NewRegistry()
		r.Register("a", specialities("grill"), ch)
		r.Register("b", specialities("grill"), ch)
		r.Register("c", specialities("grill"), ch)
		require.NoError(t, r.Deregister("a"))

		w, err := r.SelectLeastLoaded("grill")
		require.NoError(t, err)
		require.Equal(t, domain.StaffID("b"), w.ID)
	})
}

func TestRegistryReRegisterResetsCountInPlace(t *testing.T) {
	r := NewRegistry()
	first, _ := channel.NewPipe()
	second, _ := channel.NewPipe()

	r.Register("a", specialities("grill"), first)
	r.Register("b", specialities("grill"), first)
	_, err := r.SelectLeastLoaded("grill")
	require.NoError(t, err)
	require.Equal(t, 1, completed(t, r, "a"))

	r.Register("a", specialities("grill", "bakery"), second)
	require.Equal(t, 0, completed(t, r, "a"))
	require.Equal(t, 2, r.Len())

	snap := r.Snapshot()
	require.Equal(t, domain.StaffID("a"), snap[0].ID)
	require.Equal(t, []string{"bakery", "grill"}, snap[0].Speciality)

	// The old channel is no longer referenced.
	select {
	case <-first.Released():
	default:
		t.Fatal("replaced channel was not released")
	}

	w, err := r.SelectLeastLoaded("grill")
	require.NoError(t, err)
	require.Equal(t, domain.StaffID("a"), w.ID)
	require.Same(t, second, w.Channel)
}

func TestRegistryReleasesOnDeregisterAndReset(t *testing.T) {
	r := NewRegistry()
	a, _ := channel.NewPipe()
	b, _ := channel.NewPipe()
	r.Register("a", specialities("grill"), a)
	r.Register("b", specialities("grill"), b)

	require.NoError(t, r.Deregister("a"))
	select {
	case <-a.Released():
	default:
		t.Fatal("deregistered channel was not released")
	}

	removed := r.Reset()
	require.Equal(t, []domain.StaffID{"b"}, removed)
	require.Equal(t, 0, r.Len())
	select {
	case <-b.Released():
	default:
		t.Fatal("reset did not release channel")
	}
}

func TestRegistryConcurrentSelectionsChargeOncePerCall(t *testing.T) {
	r := NewRegistry()
	ch, _ := channel.NewPipe()
	ids := []domain.StaffID{"a", "b", "c", "d"}
	for _, id := range ids {
		r.Register(id, specialities("grill"), ch)
	}

	const calls = 400
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.SelectLeastLoaded("grill")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	total := 0
	for _, id := range ids {
		n := completed(t, r, id)
		require.Equal(t, calls/len(ids), n, "least loaded selection must stay balanced")
		total += n
	}
	require.Equal(t, calls, total)
}
