package bindables

import "testing"

func TestBindableListEvents(t *testing.T) {
	l := NewBindableList("a", "b")
	var events []CollectionChangedEvent[string]
	sub := l.BindCollectionChanged(func(e CollectionChangedEvent[string]) { events = append(events, e) }, true)
	defer sub.Unsubscribe()

	if len(events) != 1 || events[0].Action != ActionReset || len(events[0].NewItems) != 2 {
		t.Fatalf("expected an immediate reset with current items, got %+v", events)
	}

	l.Add("c")
	if last := events[len(events)-1]; last.Action != ActionAdd || last.Index != 2 || last.NewItems[0] != "c" {
		t.Errorf("unexpected add event %+v", last)
	}

	if ok := l.ReplaceFunc(func(s string) bool { return s == "b" }, "B"); !ok {
		t.Fatalf("ReplaceFunc did not find b")
	}
	if last := events[len(events)-1]; last.Action != ActionReplace || last.Index != 1 || last.OldItems[0] != "b" || last.NewItems[0] != "B" {
		t.Errorf("unexpected replace event %+v", last)
	}

	if n := l.RemoveFunc(func(s string) bool { return s == "a" }); n != 1 {
		t.Fatalf("RemoveFunc removed %d items, want 1", n)
	}
	if last := events[len(events)-1]; last.Action != ActionRemove {
		t.Errorf("unexpected remove event %+v", last)
	}

	l.ReplaceAll([]string{"x"})
	if last := events[len(events)-1]; last.Action != ActionReset || len(last.OldItems) != 2 || len(last.NewItems) != 1 {
		t.Errorf("unexpected reset event %+v", last)
	}

	if got := l.Items(); len(got) != 1 || got[0] != "x" {
		t.Errorf("Items() = %v", got)
	}
	if len(events) != 5 {
		t.Errorf("expected 5 events, got %d", len(events))
	}
}

func TestBindableListNoEventWithoutChange(t *testing.T) {
	l := NewBindableList(1, 2, 3)
	calls := 0
	l.BindCollectionChanged(func(CollectionChangedEvent[int]) { calls++ }, false)

	l.Add()
	l.RemoveFunc(func(v int) bool { return v > 10 })
	l.ReplaceFunc(func(v int) bool { return v > 10 }, 0)

	if calls != 0 {
		t.Fatalf("expected no events, got %d", calls)
	}
}

func TestBindableListItemsIsCopy(t *testing.T) {
	l := NewBindableList(1, 2)
	items := l.Items()
	items[0] = 99
	if l.Items()[0] != 1 {
		t.Fatalf("mutating Items() result changed the list")
	}
}

func TestCollectionActionString(t *testing.T) {
	cases := map[CollectionAction]string{
		ActionAdd:            "add",
		ActionRemove:         "remove",
		ActionReplace:        "replace",
		ActionReset:          "reset",
		CollectionAction(42): "unknown",
	}
	for a, want := range cases {
		if got := a.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(a), got, want)
		}
	}
}
