package taskprogress

import (
	"reflect"
	"sync"
	"testing"
)

func TestSubjectDeliversCurrentThenChanges(t *testing.T) {
	s := NewSubject(1)

	var got []int
	unsubscribe := s.Subscribe(func(v int) { got = append(got, v) })
	s.Set(2)
	s.Set(3)
	unsubscribe()
	unsubscribe()
	s.Set(4)

	if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("delivered %v, want %v", got, want)
	}
	if v := s.Get(); v != 4 {
		t.Errorf("Get() = %d, want 4", v)
	}
}

func TestSubjectSubscriptionOrder(t *testing.T) {
	s := NewSubject("")
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		s.Subscribe(func(v string) {
			if v != "" {
				order = append(order, name)
			}
		})
	}
	s.Set("x")

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestSubjectConcurrentSetsStayOrdered(t *testing.T) {
	s := NewSubject(0)

	var mu sync.Mutex
	var seen []int
	s.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Set(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 51 {
		t.Fatalf("delivered %d values, want 51", len(seen))
	}
	// the last delivery is the value left in the subject
	if last := seen[len(seen)-1]; last != s.Get() {
		t.Errorf("last delivered %d, Get() = %d", last, s.Get())
	}
}
