package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealquest/backend/internal/domain"
)

// MockRecipeClient answers immediately from the configured functions
type MockRecipeClient struct {
	mu          sync.Mutex
	searchFn    func(query domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error)
	detailFn    func(id int) (*domain.RecipeDetail, error)
	searchCalls []searchArgs
	detailCalls int
}

type searchArgs struct {
	query    domain.SearchQuery
	offset   int
	pageSize int
}

func (m *MockRecipeClient) Search(ctx context.Context, query domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, searchArgs{query: query, offset: offset, pageSize: pageSize})
	fn := m.searchFn
	m.mu.Unlock()
	if fn == nil {
		return &domain.ResultPage{Offset: offset, RequestedPageSize: pageSize}, nil
	}
	return fn(query, offset, pageSize)
}

func (m *MockRecipeClient) GetDetail(ctx context.Context, id int) (*domain.RecipeDetail, error) {
	m.mu.Lock()
	m.detailCalls++
	fn := m.detailFn
	m.mu.Unlock()
	if fn == nil {
		return nil, domain.ErrRecipeNotFound
	}
	return fn(id)
}

func (m *MockRecipeClient) calls() []searchArgs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]searchArgs(nil), m.searchCalls...)
}

// gatedCall is a request held by gatedRecipeClient until the test replies
type gatedCall struct {
	query  domain.SearchQuery
	offset int
	id     int
	reply  chan gatedReply
}

type gatedReply struct {
	page   *domain.ResultPage
	detail *domain.RecipeDetail
	err    error
}

// gatedRecipeClient blocks every call until the test releases it,
// so tests control the order in which responses arrive.
type gatedRecipeClient struct {
	searches chan *gatedCall
	details  chan *gatedCall
}

func newGatedRecipeClient() *gatedRecipeClient {
	return &gatedRecipeClient{
		searches: make(chan *gatedCall, 16),
		details:  make(chan *gatedCall, 16),
	}
}

func (g *gatedRecipeClient) Search(ctx context.Context, query domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
	call := &gatedCall{query: query, offset: offset, reply: make(chan gatedReply, 1)}
	g.searches <- call
	select {
	case r := <-call.reply:
		return r.page, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedRecipeClient) GetDetail(ctx context.Context, id int) (*domain.RecipeDetail, error) {
	call := &gatedCall{id: id, reply: make(chan gatedReply, 1)}
	g.details <- call
	select {
	case r := <-call.reply:
		return r.detail, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func recv(t *testing.T, ch <-chan *gatedCall) *gatedCall {
	t.Helper()
	select {
	case call := <-ch:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a client call")
		return nil
	}
}

func assertNoCall(t *testing.T, ch <-chan *gatedCall) {
	t.Helper()
	select {
	case call := <-ch:
		t.Fatalf("unexpected client call: %+v", call)
	case <-time.After(50 * time.Millisecond):
	}
}

func async(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the operation to return")
		return nil
	}
}

// recipesFrom returns n recipes with consecutive ids starting at first
func recipesFrom(first, n int, prefix string) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, n)
	for i := 0; i < n; i++ {
		id := first + i
		out = append(out, domain.RecipeSummary{ID: id, Title: prefix + " " + strings.Repeat("*", i+1)})
	}
	return out
}

func pageOf(items []domain.RecipeSummary) *domain.ResultPage {
	return &domain.ResultPage{Items: items}
}

func newTestController(client domain.RecipeClient) (*Controller, *MockKeyValueStore) {
	store := NewMockKeyValueStore()
	ctx := context.Background()
	history := LoadHistory(ctx, store, "history", discardLogger())
	favorites := LoadFavorites(ctx, nil, "", discardLogger())
	return NewController(client, history, favorites, ControllerConfig{PageSize: 9, Logger: discardLogger()}), store
}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(&MockRecipeClient{}, nil, nil, ControllerConfig{})

	assert.Equal(t, DefaultPageSize, c.PageSize())
	s := c.State()
	assert.Equal(t, ViewList, s.View)
	assert.Empty(t, s.Items)
	assert.NotNil(t, s.Items)
	assert.False(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Selected)
}

func TestSubmitSearch(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return pageOf(recipesFrom(1, 9, q.Term)), nil
		},
	}
	c, store := newTestController(client)

	require.NoError(t, c.SubmitSearch(ctx, "  pasta "))

	s := c.State()
	assert.Equal(t, "pasta", s.Term)
	assert.Len(t, s.Items, 9)
	assert.Equal(t, 0, s.Offset)
	assert.True(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.Equal(t, []string{"pasta"}, s.History)
	assert.Equal(t, `["pasta"]`, store.value("history"))

	calls := client.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0, calls[0].offset)
	assert.Equal(t, 9, calls[0].pageSize)
}

func TestSubmitSearch_EmptyTermIsNoop(t *testing.T) {
	client := &MockRecipeClient{}
	c, store := newTestController(client)

	require.NoError(t, c.SubmitSearch(context.Background(), "   "))

	assert.Empty(t, client.calls())
	assert.Empty(t, c.History())
	assert.Equal(t, 0, store.setCount())
}

func TestLoadMore_PastaScenario(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			if offset == 0 {
				return pageOf(recipesFrom(1, 9, "pasta")), nil
			}
			return pageOf(recipesFrom(100, 4, "pasta")), nil
		},
	}
	c, _ := newTestController(client)

	require.NoError(t, c.SubmitSearch(ctx, "pasta"))
	s := c.State()
	assert.Len(t, s.Items, 9)
	assert.Equal(t, 0, s.Offset)
	assert.True(t, s.HasMore)

	require.NoError(t, c.LoadMore(ctx))
	s = c.State()
	assert.Len(t, s.Items, 13)
	assert.Equal(t, 9, s.Offset)
	assert.False(t, s.HasMore)

	require.NoError(t, c.OnNearEndOfList(ctx))
	assert.Len(t, client.calls(), 2, "loadMore after a short page must not hit the API")
	assert.Equal(t, 9, client.calls()[1].offset)
}

func TestLoadMore_HasMoreReevaluatedByNewSearch(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			if q.Term == "rare" {
				return pageOf(recipesFrom(1, 2, "rare")), nil
			}
			return pageOf(recipesFrom(10, 9, q.Term)), nil
		},
	}
	c, _ := newTestController(client)

	require.NoError(t, c.SubmitSearch(ctx, "rare"))
	assert.False(t, c.State().HasMore)

	require.NoError(t, c.SubmitSearch(ctx, "soup"))
	s := c.State()
	assert.True(t, s.HasMore)
	assert.Len(t, s.Items, 9)
	assert.Equal(t, "soup", s.Items[0].Title[:4])
}

func TestLoadMore_WithoutSearchIsNoop(t *testing.T) {
	client := &MockRecipeClient{}
	c, _ := newTestController(client)

	require.NoError(t, c.LoadMore(context.Background()))
	assert.Empty(t, client.calls())
}

func TestLoadMore_DeduplicatesOverlappingPages(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			// each page repeats the last four ids of the previous one
			return pageOf(recipesFrom(offset/9*5+1, 9, "dup")), nil
		},
	}
	c, _ := newTestController(client)

	require.NoError(t, c.SubmitSearch(ctx, "dup"))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.LoadMore(ctx))
	}

	items := c.State().Items
	seen := make(map[int]bool)
	for _, r := range items {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Len(t, items, 24)
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, 24, items[len(items)-1].ID)
}

func TestLoadMore_RapidCallsCollapse(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	done := async(func() error { return c.SubmitSearch(ctx, "pasta") })
	recv(t, client.searches).reply <- gatedReply{page: pageOf(recipesFrom(1, 9, "pasta"))}
	require.NoError(t, await(t, done))

	first := async(func() error { return c.LoadMore(ctx) })
	call := recv(t, client.searches)
	assert.Equal(t, 9, call.offset)
	assert.True(t, c.State().Loading)

	require.NoError(t, c.LoadMore(ctx))
	assertNoCall(t, client.searches)

	call.reply <- gatedReply{page: pageOf(recipesFrom(10, 9, "pasta"))}
	require.NoError(t, await(t, first))

	s := c.State()
	assert.Len(t, s.Items, 18)
	assert.False(t, s.Loading)
}

func TestSubmitSearch_StaleResponseDiscarded(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	pizzaDone := async(func() error { return c.SubmitSearch(ctx, "pizza") })
	pizza := recv(t, client.searches)
	pastaDone := async(func() error { return c.SubmitSearch(ctx, "pasta") })
	pasta := recv(t, client.searches)

	assert.Equal(t, "pizza", pizza.query.Term)
	assert.Equal(t, "pasta", pasta.query.Term)

	pasta.reply <- gatedReply{page: pageOf(recipesFrom(1, 9, "pasta"))}
	require.NoError(t, await(t, pastaDone))
	pizza.reply <- gatedReply{page: pageOf(recipesFrom(500, 9, "pizza"))}
	require.NoError(t, await(t, pizzaDone))

	s := c.State()
	require.Len(t, s.Items, 9)
	for _, r := range s.Items {
		assert.True(t, strings.HasPrefix(r.Title, "pasta"), "stale item %q", r.Title)
	}
	assert.Equal(t, "pasta", s.Term)
	assert.False(t, s.Loading)
	assert.Equal(t, []string{"pizza", "pasta"}, s.History)
}

func TestSubmitSearch_StaleFailureIgnored(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	oldDone := async(func() error { return c.SubmitSearch(ctx, "pizza") })
	old := recv(t, client.searches)
	newDone := async(func() error { return c.SubmitSearch(ctx, "pasta") })
	latest := recv(t, client.searches)

	latest.reply <- gatedReply{page: pageOf(recipesFrom(1, 3, "pasta"))}
	require.NoError(t, await(t, newDone))
	old.reply <- gatedReply{err: errors.New("timeout")}
	assert.NoError(t, await(t, oldDone))

	s := c.State()
	assert.Empty(t, s.Notice)
	assert.Len(t, s.Items, 3)
}

func TestApplyFilters_InvalidatesInFlightLoadMore(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	done := async(func() error { return c.SubmitSearch(ctx, "curry") })
	recv(t, client.searches).reply <- gatedReply{page: pageOf(recipesFrom(1, 9, "curry"))}
	require.NoError(t, await(t, done))

	moreDone := async(func() error { return c.LoadMore(ctx) })
	more := recv(t, client.searches)

	filterDone := async(func() error {
		return c.ApplyFilters(ctx, domain.DietFilters{Vegan: true}, domain.SortHealthiness)
	})
	filtered := recv(t, client.searches)
	assert.Equal(t, 0, filtered.offset)
	assert.True(t, filtered.query.Diets.Vegan)
	assert.Equal(t, domain.SortHealthiness, filtered.query.Sort)
	assert.False(t, more.query.Diets.Vegan, "in-flight fetch keeps its query snapshot")

	filtered.reply <- gatedReply{page: pageOf(recipesFrom(200, 5, "vegan curry"))}
	require.NoError(t, await(t, filterDone))
	more.reply <- gatedReply{page: pageOf(recipesFrom(10, 9, "curry"))}
	require.NoError(t, await(t, moreDone))

	s := c.State()
	assert.Len(t, s.Items, 5)
	assert.Equal(t, 200, s.Items[0].ID)
	assert.False(t, s.HasMore)
	assert.Equal(t, 0, s.Offset)
}

func TestApplyFilters(t *testing.T) {
	ctx := context.Background()

	t.Run("stores filters without a term", func(t *testing.T) {
		client := &MockRecipeClient{}
		c, _ := newTestController(client)

		require.NoError(t, c.ApplyFilters(ctx, domain.DietFilters{GlutenFree: true}, domain.SortCalories))

		assert.Empty(t, client.calls())
		s := c.State()
		assert.True(t, s.Diets.GlutenFree)
		assert.Equal(t, domain.SortCalories, s.Sort)
	})

	t.Run("uses the current term and resets the offset", func(t *testing.T) {
		client := &MockRecipeClient{
			searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
				return pageOf(recipesFrom(offset+1, 9, q.Term)), nil
			},
		}
		c, _ := newTestController(client)
		require.NoError(t, c.SubmitSearch(ctx, "salad"))
		require.NoError(t, c.LoadMore(ctx))

		require.NoError(t, c.ApplyFilters(ctx, domain.DietFilters{Vegetarian: true}, "none"))

		calls := client.calls()
		require.Len(t, calls, 3)
		assert.Equal(t, "salad", calls[2].query.Term)
		assert.Equal(t, 0, calls[2].offset)
		assert.Equal(t, domain.SortNone, calls[2].query.Sort)
		assert.Len(t, c.State().Items, 9)
		assert.Equal(t, []string{"salad"}, c.History(), "filters do not touch history")
	})

	t.Run("rejects an unknown sort", func(t *testing.T) {
		client := &MockRecipeClient{}
		c, _ := newTestController(client)

		err := c.ApplyFilters(ctx, domain.DietFilters{}, "random")

		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Empty(t, client.calls())
	})
}

func TestFetchPage_Failure(t *testing.T) {
	ctx := context.Background()
	fail := false
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			if fail {
				return nil, errors.New("connection reset")
			}
			return pageOf(recipesFrom(offset+1, 9, q.Term)), nil
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "pasta"))

	fail = true
	err := c.LoadMore(ctx)

	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	s := c.State()
	assert.Len(t, s.Items, 9, "results unchanged on failure")
	assert.Equal(t, 0, s.Offset)
	assert.True(t, s.HasMore)
	assert.False(t, s.Loading)
	assert.NotEmpty(t, s.Notice)

	c.DismissNotice()
	assert.Empty(t, c.State().Notice)

	fail = false
	require.NoError(t, c.LoadMore(ctx), "a failed page can be retried by the user")
	assert.Len(t, c.State().Items, 18)
}

func TestFetchPage_FailureKeepsNetworkErrorChain(t *testing.T) {
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return nil, errors.Join(domain.ErrNetworkFailure, domain.ErrQuotaExceeded)
		},
	}
	c, _ := newTestController(client)

	err := c.SubmitSearch(context.Background(), "pasta")

	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, []string{"pasta"}, c.History(), "history is kept when the search fails")
}

func TestFetchPage_FailedReplacementKeepsOneQuery(t *testing.T) {
	ctx := context.Background()
	failTerm := ""
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			if q.Term == failTerm {
				return nil, errors.New("connection reset")
			}
			return pageOf(recipesFrom(offset+1, pageSize, q.Term)), nil
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "pizza"))

	failTerm = "pasta"
	assert.ErrorIs(t, c.SubmitSearch(ctx, "pasta"), domain.ErrNetworkFailure)

	s := c.State()
	assert.Equal(t, "pizza", s.Term, "term goes back to the one the results belong to")
	assert.Len(t, s.Items, 9)
	assert.NotEmpty(t, s.Notice)
	assert.Equal(t, []string{"pizza", "pasta"}, s.History)

	require.NoError(t, c.LoadMore(ctx))

	calls := client.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "pizza", calls[2].query.Term)
	assert.Equal(t, 9, calls[2].offset)
	s = c.State()
	require.Len(t, s.Items, 18)
	for _, r := range s.Items {
		assert.True(t, strings.HasPrefix(r.Title, "pizza"), "mixed item %q", r.Title)
	}
}

func TestApplyFilters_FailureRestoresPreviousFilters(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			if q.Diets.Vegan {
				return nil, errors.New("timeout")
			}
			return pageOf(recipesFrom(offset+1, pageSize, q.Term)), nil
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "curry"))

	err := c.ApplyFilters(ctx, domain.DietFilters{Vegan: true}, domain.SortPopularity)
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)

	s := c.State()
	assert.False(t, s.Diets.Vegan)
	assert.Equal(t, domain.SortNone, s.Sort)

	require.NoError(t, c.LoadMore(ctx))
	calls := client.calls()
	assert.False(t, calls[len(calls)-1].query.Diets.Vegan)
	assert.Len(t, c.State().Items, 18)
}

func TestFetchPage_FailedFirstSearchKeepsFilters(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return nil, errors.New("offline")
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.ApplyFilters(ctx, domain.DietFilters{GlutenFree: true}, domain.SortNone))

	assert.Error(t, c.SubmitSearch(ctx, "bread"))

	s := c.State()
	assert.True(t, s.Diets.GlutenFree)
	assert.Equal(t, "bread", s.Term)
	assert.Empty(t, s.Items)

	require.NoError(t, c.LoadMore(ctx))
	assert.Len(t, client.calls(), 1, "nothing to page before a search succeeds")
}

func TestSelectRecipe(t *testing.T) {
	ctx := context.Background()
	detail := &domain.RecipeDetail{ID: 42, Title: "Lasagna", ImageURL: "https://img/42.jpg"}

	t.Run("success enters detail view", func(t *testing.T) {
		client := &MockRecipeClient{
			detailFn: func(id int) (*domain.RecipeDetail, error) { return detail, nil },
		}
		c, _ := newTestController(client)

		require.NoError(t, c.SelectRecipe(ctx, 42))

		s := c.State()
		assert.Equal(t, ViewDetail, s.View)
		assert.Equal(t, detail, s.Selected)
		assert.False(t, s.Loading)

		c.GoBack()
		s = c.State()
		assert.Equal(t, ViewList, s.View)
		assert.Nil(t, s.Selected)
		assert.Empty(t, client.calls(), "going back does not re-fetch the list")
	})

	t.Run("failure stays in list view", func(t *testing.T) {
		client := &MockRecipeClient{
			detailFn: func(id int) (*domain.RecipeDetail, error) { return nil, errors.New("timeout") },
		}
		c, _ := newTestController(client)

		err := c.SelectRecipe(ctx, 42)

		assert.ErrorIs(t, err, domain.ErrNetworkFailure)
		s := c.State()
		assert.Equal(t, ViewList, s.View)
		assert.Nil(t, s.Selected)
		assert.False(t, s.Loading)
		assert.NotEmpty(t, s.Notice)
	})

	t.Run("not found", func(t *testing.T) {
		c, _ := newTestController(&MockRecipeClient{})

		err := c.SelectRecipe(ctx, 9999)

		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
		assert.Equal(t, ViewList, c.State().View)
	})
}

func TestSelectRecipe_DiscardedAfterGoBack(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	done := async(func() error { return c.SelectRecipe(ctx, 42) })
	call := recv(t, client.details)
	assert.True(t, c.State().Loading)

	c.GoBack()
	assert.False(t, c.State().Loading)

	call.reply <- gatedReply{detail: &domain.RecipeDetail{ID: 42, Title: "Lasagna"}}
	require.NoError(t, await(t, done))

	s := c.State()
	assert.Equal(t, ViewList, s.View)
	assert.Nil(t, s.Selected)
}

func TestSelectRecipe_LatestSelectionWins(t *testing.T) {
	ctx := context.Background()
	client := newGatedRecipeClient()
	c, _ := newTestController(client)

	firstDone := async(func() error { return c.SelectRecipe(ctx, 1) })
	first := recv(t, client.details)
	secondDone := async(func() error { return c.SelectRecipe(ctx, 2) })
	second := recv(t, client.details)

	second.reply <- gatedReply{detail: &domain.RecipeDetail{ID: 2, Title: "Second"}}
	require.NoError(t, await(t, secondDone))
	first.reply <- gatedReply{detail: &domain.RecipeDetail{ID: 1, Title: "First"}}
	require.NoError(t, await(t, firstDone))

	require.NotNil(t, c.State().Selected)
	assert.Equal(t, 2, c.State().Selected.ID)
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(&MockRecipeClient{})
	recipe := domain.RecipeSummary{ID: 42, Title: "Lasagna"}

	assert.True(t, c.ToggleFavorite(ctx, recipe))
	assert.Equal(t, []domain.RecipeSummary{recipe}, c.Favorites())

	assert.False(t, c.ToggleFavorite(ctx, recipe))
	assert.Empty(t, c.Favorites())
}

func TestAddRemoveFavorite(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(&MockRecipeClient{})

	assert.True(t, c.AddFavorite(ctx, domain.RecipeSummary{ID: 42, Title: "Lasagna"}))
	assert.False(t, c.AddFavorite(ctx, domain.RecipeSummary{ID: 42, Title: "Lasagna"}))
	assert.True(t, c.RemoveFavorite(ctx, 42))
	assert.Empty(t, c.Favorites())

	assert.NotPanics(t, func() {
		assert.False(t, c.RemoveFavorite(ctx, 42))
	})
}

func TestToggleFavoriteByID(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return pageOf(recipesFrom(1, 3, q.Term)), nil
		},
		detailFn: func(id int) (*domain.RecipeDetail, error) {
			return &domain.RecipeDetail{ID: id, Title: "Detail"}, nil
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "stew"))

	member, err := c.ToggleFavoriteByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, c.SelectRecipe(ctx, 77))
	member, err = c.ToggleFavoriteByID(ctx, 77)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, []string{"stew **", "Detail"}, c.FavoriteTitles())

	// favorites can be removed after they left the result set
	require.NoError(t, c.SubmitSearch(ctx, "other"))
	c.GoBack()
	member, err = c.ToggleFavoriteByID(ctx, 77)
	require.NoError(t, err)
	assert.False(t, member)

	_, err = c.ToggleFavoriteByID(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestToggleFavoriteByID_ConcurrentTogglesAlternate(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return pageOf(recipesFrom(1, 3, q.Term)), nil
		},
	}
	c, _ := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "stew"))
	c.AddFavorite(ctx, domain.RecipeSummary{ID: 2, Title: "stew **"})

	const toggles = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			member, err := c.ToggleFavoriteByID(ctx, 2)
			assert.NoError(t, err)
			if member {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, toggles/2, added, "every toggle flips membership once")
	assert.Len(t, c.Favorites(), 1, "an even number of toggles restores membership")
}

func TestReplaySearchFromHistory(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return pageOf(recipesFrom(1, 4, q.Term)), nil
		},
	}
	c, store := newTestController(client)
	require.NoError(t, c.SubmitSearch(ctx, "pasta"))
	require.NoError(t, c.SubmitSearch(ctx, "pizza"))
	writes := store.setCount()

	require.NoError(t, c.ReplaySearchFromHistory(ctx, "pasta"))

	assert.Equal(t, []string{"pasta", "pizza"}, c.History())
	assert.Equal(t, writes, store.setCount())
	assert.Equal(t, "pasta", c.State().Term)
	assert.Len(t, client.calls(), 3)
}

func TestController_LoadsPersistedHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMockKeyValueStore()
	store.data["history"] = `["tacos","ramen"]`

	history := LoadHistory(ctx, store, "history", discardLogger())
	c := NewController(&MockRecipeClient{}, history, nil, ControllerConfig{Logger: discardLogger()})

	assert.Equal(t, []string{"tacos", "ramen"}, c.State().History)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	client := &MockRecipeClient{
		searchFn: func(q domain.SearchQuery, offset, pageSize int) (*domain.ResultPage, error) {
			return pageOf(recipesFrom(1, 9, q.Term)), nil
		},
	}
	c, _ := newTestController(client)

	var mu sync.Mutex
	var states []State
	cancel := c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	require.NoError(t, c.SubmitSearch(ctx, "pasta"))

	mu.Lock()
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.Empty(t, states[0].Items)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Items, 9)
	mu.Unlock()

	cancel()
	cancel()
	c.ToggleFavorite(ctx, domain.RecipeSummary{ID: 1})

	mu.Lock()
	assert.Len(t, states, 2)
	mu.Unlock()
}

func TestExportFavorites(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(&MockRecipeClient{})
	c.AddFavorite(ctx, domain.RecipeSummary{ID: 1, Title: "Soup"})
	c.AddFavorite(ctx, domain.RecipeSummary{ID: 2, Title: "Bread"})

	var buf bytes.Buffer
	require.NoError(t, c.ExportFavorites(&buf, lineExporter{}))
	assert.Equal(t, "Soup\nBread\n", buf.String())

	assert.ErrorIs(t, c.ExportFavorites(&buf, nil), domain.ErrInvalidRequest)
}

type lineExporter struct{}

func (lineExporter) Export(w io.Writer, titles []string) error {
	for _, title := range titles {
		if _, err := io.WriteString(w, title+"\n"); err != nil {
			return err
		}
	}
	return nil
}
