package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealquest/backend/internal/domain"
	"github.com/mealquest/backend/internal/infrastructure/export"
	"github.com/mealquest/backend/internal/usecase"
)

const defaultHeartbeat = 25 * time.Second

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions  *usecase.SessionManager
	exporter  *export.TextExporter
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:  sessions,
		exporter:  export.NewTextExporter(),
		logger:    logger,
		heartbeat: defaultHeartbeat,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	live := 0
	if h.sessions != nil {
		live = h.sessions.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "mealquest-backend",
		"version":  "1.0.0",
		"sessions": live,
	})
}

// OpenSession starts a new session or resumes the one named in the body
func (h *Handler) OpenSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req OpenSessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	id, ctrl, err := h.sessions.Open(operationContext(c), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: id, State: ctrl.State()})
}

// GetSession returns the current state of a session
func (h *Handler) GetSession(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	h.respondState(c, ctrl, nil)
}

// CloseSession evicts a session. Its persisted history is kept unless
// ?forget=true asks for the stored history and favorites to be deleted too.
func (h *Handler) CloseSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	forget, err := strconv.ParseBool(c.DefaultQuery("forget", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid forget flag"})
		return
	}
	if forget {
		err = h.sessions.Forget(c.Request.Context(), c.Param("id"))
	} else {
		err = h.sessions.Close(c.Param("id"))
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search submits a new search term
func (h *Handler) Search(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := ctrl.SubmitSearch(operationContext(c), req.Term)
	h.respondState(c, ctrl, err)
}

// ApplyFilters changes the diet and sort selection
func (h *Handler) ApplyFilters(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	diets := domain.DietFilters{
		Vegetarian: req.Vegetarian,
		Vegan:      req.Vegan,
		GlutenFree: req.GlutenFree,
	}
	err := ctrl.ApplyFilters(operationContext(c), diets, domain.SortOption(req.Sort))
	h.respondState(c, ctrl, err)
}

// LoadMore is called by the client when the user nears the end of the list
func (h *Handler) LoadMore(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	err := ctrl.OnNearEndOfList(operationContext(c))
	h.respondState(c, ctrl, err)
}

// History returns the session's search history
func (h *Handler) History(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": ctrl.History()})
}

// ReplayHistory runs a term from history again without recording it twice
func (h *Handler) ReplayHistory(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	err := ctrl.ReplaySearchFromHistory(operationContext(c), req.Term)
	h.respondState(c, ctrl, err)
}

// SelectRecipe opens the detail view for a recipe
func (h *Handler) SelectRecipe(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	err := ctrl.SelectRecipe(operationContext(c), id)
	h.respondState(c, ctrl, err)
}

// GoBack returns to the list view
func (h *Handler) GoBack(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.GoBack()
	h.respondState(c, ctrl, nil)
}

// Favorites returns the session's favorites
func (h *Handler) Favorites(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": ctrl.Favorites()})
}

// ToggleFavorite adds or removes a recipe from favorites
func (h *Handler) ToggleFavorite(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	member, err := ctrl.ToggleFavoriteByID(operationContext(c), req.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToggleFavoriteResponse{
		SessionResponse: SessionResponse{SessionID: c.Param("id"), State: ctrl.State()},
		Favorite:        member,
	})
}

// RemoveFavorite removes a recipe from favorites. Unknown ids are ignored.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := recipeID(c)
	if !ok {
		return
	}

	ctrl.RemoveFavorite(operationContext(c), id)
	h.respondState(c, ctrl, nil)
}

// ExportFavorites downloads the favorites as a text document
func (h *Handler) ExportFavorites(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := ctrl.ExportFavorites(&buf, h.exporter); err != nil {
		h.logger.Error("favorites export failed", "session_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to export favorites"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+h.exporter.FileName()+`"`)
	c.Data(http.StatusOK, h.exporter.ContentType(), buf.Bytes())
}

// DismissNotice clears the transient error notice
func (h *Handler) DismissNotice(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.DismissNotice()
	h.respondState(c, ctrl, nil)
}

// Events streams state snapshots as server-sent events until the client leaves
func (h *Handler) Events(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	// newest snapshot wins; a slow reader skips intermediate states
	updates := make(chan usecase.State, 1)
	cancel := ctrl.Subscribe(func(s usecase.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("state", ctrl.State())
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s := <-updates:
			c.SSEvent("state", s)
			return true
		case <-ticker.C:
			c.SSEvent("ping", strconv.FormatInt(time.Now().Unix(), 10))
			return true
		}
	})
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.sessions == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Recipe search not configured"})
		return false
	}
	return true
}

// session resolves the :id parameter, writing a 404 when it is unknown
func (h *Handler) session(c *gin.Context) (*usecase.Controller, bool) {
	if !h.configured(c) {
		return nil, false
	}
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return ctrl, true
}

// respondState writes the state snapshot. Network failures are already
// reflected in the snapshot's notice, so they still answer 200.
func (h *Handler) respondState(c *gin.Context, ctrl *usecase.Controller, err error) {
	if err != nil && !errors.Is(err, domain.ErrNetworkFailure) && !errors.Is(err, domain.ErrRecipeNotFound) {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: c.Param("id"), State: ctrl.State()})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
	case errors.Is(err, domain.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Recipe not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// bindOptionalJSON binds the body when one was sent
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// recipeID parses the :recipeId parameter, writing a 400 when it is malformed
func recipeID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("recipeId"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid recipe id"})
		return 0, false
	}
	return id, true
}

// operationContext keeps request values but not request cancellation, so a
// fetch other subscribers are waiting on completes after the caller leaves.
func operationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
