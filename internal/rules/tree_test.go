package rules

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/rulebook/internal/diag"
	"github.com/zjrosen/rulebook/internal/provider/builtin"
)

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func ids(tree *Tree) []int {
	out := make([]int, 0, tree.Len())
	for _, r := range tree.Rules() {
		out = append(out, r.ID())
	}
	return out
}

func TestTree_AddAssignsIncreasingIDs(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", nil, nil)
	b := tree.Add("b", nil, nil)
	require.Equal(t, 1, a.ID())
	require.Equal(t, 2, b.ID())
	require.NotEqual(t, a.GUID(), b.GUID())

	require.True(t, tree.Remove(b.ID()))
	c := tree.Add("c", nil, nil)
	require.Equal(t, 3, c.ID(), "ids are never reused")
}

func TestTree_AddRefreshesDescriptions(t *testing.T) {
	tree := NewTree(WithGroupResolver(mapResolver{"ui": "User Interface"}))
	r := tree.Add("a", builtin.NewConstant(), []string{"ui"})

	require.Equal(t, "Constant: 1.0.0", r.ProviderDescription())
	require.Equal(t, "User Interface", r.GroupDescription())
}

func TestTree_AddAtIndex(t *testing.T) {
	tree := NewTree()
	tree.Add("a", nil, nil)
	tree.Add("b", nil, nil)
	tree.Add("front", nil, nil, AtIndex(0))
	tree.Add("end", nil, nil, AtIndex(99))

	require.Equal(t, []string{"front", "a", "b", "end"}, names(tree.Rows()))
}

func TestTree_Move(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", nil, nil)
	tree.Add("b", nil, nil)
	tree.Add("c", nil, nil)

	tree.Move(a.ID(), 2)
	require.Equal(t, []string{"b", "c", "a"}, names(tree.Rows()))

	tree.Move(a.ID(), -5)
	require.Equal(t, []string{"a", "b", "c"}, names(tree.Rows()))

	tree.Move(a.ID(), 100)
	require.Equal(t, []string{"b", "c", "a"}, names(tree.Rows()))

	tree.Move(42, 0)
	require.Equal(t, []string{"b", "c", "a"}, names(tree.Rows()))
}

func TestTree_SetParentIsRejected(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", nil, nil)
	b := tree.Add("b", nil, nil)

	require.ErrorIs(t, tree.SetParent(b.ID(), a.ID()), ErrNestingNotAllowed)
	require.False(t, tree.CanBeParent(a.ID()))
	require.Equal(t, 2, tree.Len())
}

func TestTree_NaturalSort(t *testing.T) {
	tree := NewTree()
	for _, n := range []string{"item2", "item10", "item1"} {
		tree.Add(n, nil, nil)
	}

	tree.SetSort(ColumnName, true)
	require.Equal(t, []string{"item1", "item2", "item10"}, names(tree.Rows()))

	tree.SetSort(ColumnName, false)
	require.Equal(t, []string{"item10", "item2", "item1"}, names(tree.Rows()))

	tree.ClearSort()
	require.Equal(t, []string{"item2", "item10", "item1"}, names(tree.Rows()))
}

func TestTree_NaturalSortOrdersByNumericSuffix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "prefix")
		nums := rapid.SliceOfN(rapid.IntRange(0, 100000), 1, 12).Draw(rt, "nums")

		tree := NewTree()
		for _, n := range nums {
			tree.Add(fmt.Sprintf("%s%d", prefix, n), nil, nil)
		}

		sorted := slices.Clone(nums)
		slices.Sort(sorted)
		want := make([]string, len(sorted))
		for i, n := range sorted {
			want[i] = fmt.Sprintf("%s%d", prefix, n)
		}

		tree.SetSort(ColumnName, true)
		require.Equal(rt, want, names(tree.Rows()))

		slices.Reverse(want)
		tree.SetSort(ColumnName, false)
		require.Equal(rt, want, names(tree.Rows()))
	})
}

func TestTree_SortIsStable(t *testing.T) {
	tree := NewTree()
	tree.Add("b", builtin.NewConstant(), nil)
	tree.Add("a", builtin.NewFileHash(), nil)
	tree.Add("c", builtin.NewConstant(), nil)

	tree.SetSort(ColumnProvider, true)
	require.Equal(t, []string{"b", "c", "a"}, names(tree.Rows()))
}

func TestTree_SortByDescriptionRefreshesStaleRows(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", builtin.NewConstant(), nil)
	b := tree.Add("b", builtin.NewConstant(), nil)

	a.Provider().(*builtin.Constant).Version = "9.0.0"
	a.MarkProviderEdited()

	tree.SetSort(ColumnProvider, true)
	rows := tree.Rows()
	require.Equal(t, []int{b.ID(), a.ID()}, []int{rows[0].ID, rows[1].ID})
	require.Equal(t, "Constant: 9.0.0", rows[1].Provider)
}

func TestTree_SearchGroupExample(t *testing.T) {
	resolver := mapResolver{"a": "GroupA", "b": "Other", "c": "GroupAB"}
	tree := NewTree(WithGroupResolver(resolver))
	tree.Add("r1", nil, []string{"a"})
	tree.Add("r2", nil, []string{"b"})
	tree.Add("r3", nil, []string{"c"})

	tree.SetSearch("Group")
	require.Equal(t, []string{"r1", "r3"}, names(tree.Rows()))

	tree.SetSearch("group")
	require.Equal(t, []string{"r1", "r3"}, names(tree.Rows()), "search ignores case")

	tree.SetSearchColumns(ColumnName)
	require.Empty(t, tree.Rows())

	tree.SetSearchColumns()
	tree.SetSearch("")
	require.Len(t, tree.Rows(), 3)
}

func TestTree_SearchUsesCachedTextUnlessEager(t *testing.T) {
	for _, eager := range []bool{false, true} {
		t.Run(fmt.Sprintf("eager=%v", eager), func(t *testing.T) {
			tree := NewTree(WithEagerDescriptions(eager))
			r := tree.Add("a", builtin.NewConstant(), nil)

			r.Provider().(*builtin.Constant).Version = "7.7.7"
			r.MarkProviderEdited()

			tree.SetSearch("7.7.7")
			if eager {
				require.Len(t, tree.Rows(), 1)
			} else {
				require.Empty(t, tree.Rows())
			}
		})
	}
}

func TestTree_ActiveRowIsAlwaysFresh(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", builtin.NewConstant(), nil)
	b := tree.Add("b", builtin.NewConstant(), nil)

	for _, r := range []*Rule{a, b} {
		r.Provider().(*builtin.Constant).Version = "2.0.0"
		r.MarkProviderEdited()
	}
	tree.Select(b.ID())

	rows := tree.Rows()
	require.Equal(t, "Constant: 1.0.0", rows[0].Provider)
	require.Equal(t, "Constant: 2.0.0", rows[1].Provider)
	require.True(t, rows[1].Selected)
}

func TestTree_Selection(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", nil, nil)
	b := tree.Add("b", nil, nil)

	var events [][]int
	tree.OnSelectionChanged(func(ids []int) { events = append(events, ids) })

	tree.Select(b.ID(), 99, a.ID(), b.ID())
	require.Equal(t, []int{b.ID(), a.ID()}, tree.Selection())
	require.Equal(t, b.ID(), tree.ActiveID())

	tree.Select(b.ID(), a.ID())
	require.Len(t, events, 1, "unchanged selection fires nothing")

	tree.Remove(b.ID())
	require.Equal(t, []int{a.ID()}, tree.Selection())
	require.Equal(t, [][]int{{b.ID(), a.ID()}, {a.ID()}}, events)

	tree.Select()
	require.Equal(t, 0, tree.ActiveID())
}

func TestTree_Rename(t *testing.T) {
	tree := NewTree()
	a := tree.Add("a", nil, nil)

	var events []RenameEvent
	tree.OnRenameCommitted(func(e RenameEvent) { events = append(events, e) })

	require.True(t, tree.BeginRename(a.ID()))
	require.Equal(t, a.ID(), tree.Renaming())
	tree.CancelRename(a.ID())
	require.Equal(t, 0, tree.Renaming())
	require.Equal(t, "a", a.Name())

	require.NoError(t, tree.CommitRename(a.ID(), "renamed"))
	require.Equal(t, []RenameEvent{{ID: a.ID(), Name: "renamed"}}, events)

	var notFound *RuleNotFoundError
	require.ErrorAs(t, tree.CommitRename(42, "x"), &notFound)
	require.False(t, tree.BeginRename(42))
}

func TestTree_Resolve(t *testing.T) {
	tree := NewTree()
	a := tree.Restore("aaaa1111-0000-0000-0000-000000000000", "alpha", nil, nil)
	b := tree.Restore("aaaa2222-0000-0000-0000-000000000000", "beta", nil, nil)
	tree.Restore("cccc3333-0000-0000-0000-000000000000", "beta", nil, nil)

	tests := []struct {
		ref     string
		want    *Rule
		wantErr error
	}{
		{ref: "1", want: a},
		{ref: " 2 ", want: b},
		{ref: a.GUID(), want: a},
		{ref: "aaaa2", want: b},
		{ref: "alpha", want: a},
		{ref: "aaaa", wantErr: ErrAmbiguousRef},
		{ref: "beta", wantErr: ErrAmbiguousRef},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := tree.Resolve(tt.ref)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Same(t, tt.want, got)
		})
	}

	for _, ref := range []string{"0", "4", "zzzz", "gamma"} {
		_, err := tree.Resolve(ref)
		var notFound *RuleNotFoundError
		require.ErrorAs(t, err, &notFound, ref)
	}
}

func TestTree_OpenSelection(t *testing.T) {
	reg, editors := builtin.NewRegistry()
	tree := NewTree()
	a := tree.Add("a", builtin.NewConstant(), nil)
	b := tree.Add("b", builtin.NewConstant(), nil)

	c, err := tree.OpenSelection(b.ID(), reg, editors, nil)
	require.NoError(t, err)

	c.OnActivated()
	require.Equal(t, b.ID(), tree.ActiveID())

	require.NoError(t, c.SelectType(2))
	require.Equal(t, "File hash (8 chars)", b.ProviderDescription())

	_, err = c.EditFields(map[string]string{"length": "12"})
	require.NoError(t, err)
	require.Equal(t, "File hash (12 chars)", b.ProviderDescription())

	_, err = tree.OpenSelection(a.ID(), reg, editors, nil)
	require.NoError(t, err)
	c.OnActivated()
	require.Equal(t, b.ID(), tree.ActiveID(), "closed controller no longer selects")

	tree.Remove(a.ID())
	open, _ := tree.Controller()
	require.Nil(t, open)

	_, err = tree.OpenSelection(a.ID(), reg, editors, nil)
	require.Error(t, err)
}

func TestTree_UnregisteredProviderStaysUsable(t *testing.T) {
	reg, editors := builtin.NewRegistry()
	rec := diag.NewRecorder()
	tree := NewTree()
	r := tree.Restore("guid-orphan", "orphan", orphanProvider{}, nil)

	c, err := tree.OpenSelection(r.ID(), reg, editors, rec)
	require.NoError(t, err)
	require.Equal(t, -1, c.State().Index)
	require.Len(t, rec.OfKind(diag.ConfigurationMismatch), 1)

	require.NoError(t, tree.CommitRename(r.ID(), "renamed"))
	require.Equal(t, "renamed", r.Name())
	require.True(t, tree.Remove(r.ID()))
	require.Equal(t, 0, tree.Len())
}

func TestTree_AddThenRemoveLeavesOthersUntouched(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := NewTree()
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		for i := 0; i < n; i++ {
			tree.Add(fmt.Sprintf("item%d", i), nil, nil)
		}
		before := ids(tree)

		at := rapid.IntRange(-1, n+1).Draw(rt, "at")
		r := tree.Add("new", nil, nil, AtIndex(at))
		if !tree.Remove(r.ID()) {
			rt.Fatalf("remove of %d failed", r.ID())
		}
		if after := ids(tree); !slices.Equal(before, after) {
			rt.Fatalf("ids changed: %v -> %v", before, after)
		}
	})
}

func TestTree_RenameToSameNameIsInvisible(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := NewTree()
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		for i := 0; i < n; i++ {
			tree.Add(rapid.StringMatching(`[a-z0-9 ]{0,12}`).Draw(rt, "name"), nil, nil)
		}
		target := tree.Rules()[rapid.IntRange(0, n-1).Draw(rt, "target")]
		before := ids(tree)
		pos := tree.Position(target.ID())

		fired := false
		tree.OnRenameCommitted(func(RenameEvent) { fired = true })
		if err := tree.CommitRename(target.ID(), target.Name()); err != nil {
			rt.Fatal(err)
		}

		if fired {
			rt.Fatalf("rename event fired for unchanged name")
		}
		if !slices.Equal(before, ids(tree)) || tree.Position(target.ID()) != pos {
			rt.Fatalf("rename to same name moved rules")
		}
	})
}
