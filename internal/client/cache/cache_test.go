package cache

import "testing"

func TestSetGetInvalidate(t *testing.T) {
	c := New()

	if _, ok := c.Get("patients"); ok {
		t.Fatalf("empty cache returned a value")
	}

	c.Set("patients", []string{"p1"})
	v, ok := c.Get("patients")
	if !ok || len(v.([]string)) != 1 {
		t.Fatalf("Get after Set: (%v, %v)", v, ok)
	}

	// Last write wins.
	c.Set("patients", []string{"p1", "p2"})
	v, _ = c.Get("patients")
	if len(v.([]string)) != 2 {
		t.Fatalf("overwrite did not stick: %v", v)
	}

	c.Invalidate("patients")
	if _, ok := c.Get("patients"); ok {
		t.Fatalf("value survived Invalidate")
	}
}

func TestInvalidateCollection(t *testing.T) {
	c := New()
	c.Set("patients", 1)
	c.Set("patients/p1", 2)
	c.Set("goals/patient/p1", 3)
	c.Set("patientsummary", 4) // shares a prefix but is another collection

	c.InvalidateCollection("patients")

	if _, ok := c.Get("patients"); ok {
		t.Fatalf("collection list entry survived")
	}
	if _, ok := c.Get("patients/p1"); ok {
		t.Fatalf("collection member entry survived")
	}
	if _, ok := c.Get("goals/patient/p1"); !ok {
		t.Fatalf("unrelated collection was invalidated")
	}
	if _, ok := c.Get("patientsummary"); !ok {
		t.Fatalf("prefix sibling was invalidated")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry survived Clear")
	}
	c.Set("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("cache unusable after Clear")
	}
}
