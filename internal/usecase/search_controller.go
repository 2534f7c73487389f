package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mealquest/backend/internal/domain"
)

// DefaultPageSize is the number of recipes requested per page
const DefaultPageSize = 9

const (
	noticeSearchFailed = "Could not load recipes. Please try again."
	noticeDetailFailed = "Could not load the recipe. Please try again."
	noticeNotFound     = "That recipe is no longer available."
)

// View is the screen the controller is showing
type View string

const (
	ViewList   View = "list"
	ViewDetail View = "detail"
)

// State is a snapshot of everything a renderer needs
type State struct {
	Term      string                 `json:"term"`
	Diets     domain.DietFilters     `json:"diets"`
	Sort      domain.SortOption      `json:"sort"`
	Offset    int                    `json:"offset"`
	HasMore   bool                   `json:"hasMore"`
	Loading   bool                   `json:"loading"`
	Items     []domain.RecipeSummary `json:"items"`
	View      View                   `json:"view"`
	Selected  *domain.RecipeDetail   `json:"selected"`
	History   []string               `json:"history"`
	Favorites []domain.RecipeSummary `json:"favorites"`
	Notice    string                 `json:"notice,omitempty"`
}

// Exporter renders favorite titles into a document
type Exporter interface {
	Export(w io.Writer, titles []string) error
}

// ControllerConfig holds configuration for the search controller
type ControllerConfig struct {
	PageSize int
	Logger   *slog.Logger
}

// Controller owns one search session: the query, the accumulated result set,
// the detail selection and the history and favorites lists.
type Controller struct {
	client    domain.RecipeClient
	history   *History
	favorites *Favorites
	pageSize  int
	logger    *slog.Logger

	mu               sync.Mutex
	query            domain.SearchQuery
	results          domain.ResultSet
	resultsQuery     domain.SearchQuery
	listLoading      bool
	detailLoading    bool
	generation       uint64
	detailGeneration uint64
	view             View
	selected         *domain.RecipeDetail
	notice           string

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int
}

// pageRequest is a fetch captured at issuance time
type pageRequest struct {
	query      domain.SearchQuery
	offset     int
	append     bool
	generation uint64
}

// NewController creates a controller with empty results in list view
func NewController(client domain.RecipeClient, history *History, favorites *Favorites, config ControllerConfig) *Controller {
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if history == nil {
		history = LoadHistory(context.Background(), nil, "", logger)
	}
	if favorites == nil {
		favorites = LoadFavorites(context.Background(), nil, "", logger)
	}

	return &Controller{
		client:      client,
		history:     history,
		favorites:   favorites,
		pageSize:    pageSize,
		logger:      logger,
		results:     domain.ResultSet{Items: []domain.RecipeSummary{}},
		view:        ViewList,
		subscribers: make(map[int]func(State)),
	}
}

// PageSize returns the number of items requested per fetch
func (c *Controller) PageSize() int {
	return c.pageSize
}

// SubmitSearch records term in history and replaces the results with its first page.
// An empty term is ignored.
func (c *Controller) SubmitSearch(ctx context.Context, term string) error {
	term = normalizeTerm(term)
	if term == "" {
		return nil
	}
	c.history.Append(ctx, term)
	return c.startSearch(ctx, term)
}

// ReplaySearchFromHistory runs term again without adding it to history
func (c *Controller) ReplaySearchFromHistory(ctx context.Context, term string) error {
	term = normalizeTerm(term)
	if term == "" {
		return nil
	}
	return c.startSearch(ctx, term)
}

func (c *Controller) startSearch(ctx context.Context, term string) error {
	c.mu.Lock()
	c.query.Term = term
	req := c.beginFetchLocked(c.query, 0, false)
	c.mu.Unlock()

	c.notify()
	return c.fetchPage(ctx, req)
}

// ApplyFilters stores the diet and sort selection and, when a term is set,
// replaces the results with the first filtered page.
func (c *Controller) ApplyFilters(ctx context.Context, diets domain.DietFilters, sort domain.SortOption) error {
	sort, err := domain.ParseSortOption(string(sort))
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.query.Diets = diets
	c.query.Sort = sort
	if !c.query.Valid() {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	req := c.beginFetchLocked(c.query, 0, false)
	c.mu.Unlock()

	c.notify()
	return c.fetchPage(ctx, req)
}

// LoadMore appends the next page of the query the current results came from.
// It does nothing while a list fetch is in flight, when the last page was
// short or when no search has succeeded yet.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.listLoading || !c.results.HasMore || !c.resultsQuery.Valid() {
		c.mu.Unlock()
		return nil
	}
	req := c.beginFetchLocked(c.resultsQuery, c.results.Offset+c.pageSize, true)
	c.mu.Unlock()

	c.notify()
	return c.fetchPage(ctx, req)
}

// OnNearEndOfList is the presentation signal that the user reached the end of the list
func (c *Controller) OnNearEndOfList(ctx context.Context) error {
	return c.LoadMore(ctx)
}

// beginFetchLocked claims the next generation and marks the list as loading.
// c.mu must be held.
func (c *Controller) beginFetchLocked(query domain.SearchQuery, offset int, appendPage bool) pageRequest {
	c.generation++
	c.listLoading = true
	return pageRequest{
		query:      query,
		offset:     offset,
		append:     appendPage,
		generation: c.generation,
	}
}

// fetchPage calls the recipe client and applies the page if req is still the latest fetch
func (c *Controller) fetchPage(ctx context.Context, req pageRequest) error {
	page, err := c.client.Search(ctx, req.query, req.offset, c.pageSize)

	c.mu.Lock()
	if req.generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale page",
			"term", req.query.Term, "offset", req.offset, "generation", req.generation)
		return nil
	}
	c.listLoading = false

	if err != nil {
		// a failed replacement keeps the previous results, so the query
		// goes back to the one they were fetched with
		if !req.append && c.resultsQuery.Valid() {
			c.query = c.resultsQuery
		}
		c.notice = noticeSearchFailed
		c.mu.Unlock()
		c.notify()
		c.logger.Warn("recipe search failed", "term", req.query.Term, "offset", req.offset, "error", err)
		return networkError(err)
	}

	var items []domain.RecipeSummary
	if page != nil {
		items = page.Items
	}
	c.results = domain.ResultSet{
		Items:   mergePage(c.results.Items, items, req.append),
		Offset:  req.offset,
		HasMore: len(items) >= c.pageSize,
	}
	c.resultsQuery = req.query
	c.notice = ""
	c.mu.Unlock()

	c.notify()
	return nil
}

// SelectRecipe fetches the recipe detail and switches to the detail view
func (c *Controller) SelectRecipe(ctx context.Context, id int) error {
	c.mu.Lock()
	c.detailGeneration++
	generation := c.detailGeneration
	c.detailLoading = true
	c.mu.Unlock()
	c.notify()

	detail, err := c.client.GetDetail(ctx, id)

	c.mu.Lock()
	if generation != c.detailGeneration {
		c.mu.Unlock()
		c.logger.Debug("discarding stale recipe detail", "recipe_id", id)
		return nil
	}
	c.detailLoading = false

	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			c.notice = noticeNotFound
		} else {
			c.notice = noticeDetailFailed
		}
		c.mu.Unlock()
		c.notify()
		c.logger.Warn("recipe detail failed", "recipe_id", id, "error", err)
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return err
		}
		return networkError(err)
	}
	if detail == nil {
		c.notice = noticeNotFound
		c.mu.Unlock()
		c.notify()
		return domain.ErrRecipeNotFound
	}

	c.selected = detail
	c.view = ViewDetail
	c.notice = ""
	c.mu.Unlock()

	c.notify()
	return nil
}

// GoBack leaves the detail view. The list is not re-fetched.
func (c *Controller) GoBack() {
	c.mu.Lock()
	c.selected = nil
	c.view = ViewList
	c.detailGeneration++
	c.detailLoading = false
	c.mu.Unlock()

	c.notify()
}

// ToggleFavorite removes recipe from favorites if present, adds it otherwise.
// Returns the new membership.
func (c *Controller) ToggleFavorite(ctx context.Context, recipe domain.RecipeSummary) bool {
	member := c.favorites.Toggle(ctx, recipe)
	c.notify()
	return member
}

// ToggleFavoriteByID toggles the recipe with id, looked up in the current
// results, the selected detail or the favorites themselves.
func (c *Controller) ToggleFavoriteByID(ctx context.Context, id int) (bool, error) {
	recipe, ok := c.lookupRecipe(id)
	if !ok {
		recipe, ok = c.favorites.Find(id)
	}
	if !ok {
		return false, fmt.Errorf("%w: recipe %d is not in the current results", domain.ErrRecipeNotFound, id)
	}
	return c.ToggleFavorite(ctx, recipe), nil
}

// AddFavorite adds recipe unless it is already a favorite
func (c *Controller) AddFavorite(ctx context.Context, recipe domain.RecipeSummary) bool {
	added := c.favorites.Add(ctx, recipe)
	if added {
		c.notify()
	}
	return added
}

// RemoveFavorite removes the favorite with id. Removing a non-member is a no-op.
func (c *Controller) RemoveFavorite(ctx context.Context, id int) bool {
	removed := c.favorites.Remove(ctx, id)
	if removed {
		c.notify()
	}
	return removed
}

func (c *Controller) lookupRecipe(id int) (domain.RecipeSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOfRecipe(c.results.Items, id); i >= 0 {
		return c.results.Items[i], true
	}
	if c.selected != nil && c.selected.ID == id {
		return c.selected.Summary(), true
	}
	return domain.RecipeSummary{}, false
}

// DismissNotice clears the transient notice
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	changed := c.notice != ""
	c.notice = ""
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

// History returns the search history, oldest first
func (c *Controller) History() []string {
	return c.history.Terms()
}

// Favorites returns the favorites in insertion order
func (c *Controller) Favorites() []domain.RecipeSummary {
	return c.favorites.Items()
}

// FavoriteTitles returns the favorite titles in insertion order
func (c *Controller) FavoriteTitles() []string {
	return c.favorites.Titles()
}

// ExportFavorites writes the favorite titles to w using exporter
func (c *Controller) ExportFavorites(w io.Writer, exporter Exporter) error {
	if exporter == nil {
		return fmt.Errorf("%w: no exporter", domain.ErrInvalidRequest)
	}
	return exporter.Export(w, c.favorites.Titles())
}

// State returns a snapshot of the controller
func (c *Controller) State() State {
	c.mu.Lock()
	s := State{
		Term:     c.query.Term,
		Diets:    c.query.Diets,
		Sort:     c.query.Sort,
		Offset:   c.results.Offset,
		HasMore:  c.results.HasMore,
		Loading:  c.listLoading || c.detailLoading,
		Items:    append([]domain.RecipeSummary{}, c.results.Items...),
		View:     c.view,
		Selected: c.selected,
		Notice:   c.notice,
	}
	c.mu.Unlock()

	s.History = c.history.Terms()
	s.Favorites = c.favorites.Items()
	return s
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that changed the state and must not block or call
// back into Subscribe. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subscribers, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Controller) subscriberCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subscribers)
}

// notify publishes the current snapshot. Snapshots are taken under subMu so
// subscribers never see an older state after a newer one.
func (c *Controller) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if len(c.subscribers) == 0 {
		return
	}
	s := c.State()
	for _, fn := range c.subscribers {
		fn(s)
	}
}

// networkError wraps err as a network failure unless it already is one
func networkError(err error) error {
	if errors.Is(err, domain.ErrNetworkFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrNetworkFailure, err)
}
